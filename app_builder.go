package glc

// Module installs resources, entities and systems into an App.
type Module interface {
	Install(app *App, cmd *Commands)
}

type AppBuilder struct {
	app     *App
	modules []Module
}

func NewAppBuilder() *AppBuilder {
	return &AppBuilder{app: newApp()}
}

func (b *AppBuilder) UseModule(modules ...Module) *AppBuilder {
	b.modules = append(b.modules, modules...)
	return b
}

// Build installs the modules in order and applies the commands they issued.
// Errors reported during installation are returned.
func (b *AppBuilder) Build() (*App, error) {
	app := b.app
	cmd := app.Commands()
	for _, module := range b.modules {
		module.Install(app, cmd)
	}
	app.FlushCommands()
	if err := app.takeError(); err != nil {
		return nil, err
	}
	return app, nil
}
