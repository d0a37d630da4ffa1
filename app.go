package glc

import (
	"fmt"
	"reflect"
	"runtime"
	"slices"
)

type systemFn any

// App owns the ECS world, the typed resources and the staged systems. Every
// call to Update runs each stage once, in order, flushing deferred commands
// after each stage.
type App struct {
	stages    []Stage
	systems   map[string][]systemFn
	resources map[reflect.Type]any
	ecs       *Ecs

	pendingAdditions    []pendingEntity
	pendingRemovals     []EntityId
	pendingCompAdds     []pendingEntity
	pendingCompRemovals []pendingEntity

	errs []error
}

type pendingEntity struct {
	eid        EntityId
	components []any
}

func newApp() *App {
	ecs := MakeEcs()
	app := &App{
		stages:    slices.Clone(defaultStages),
		systems:   make(map[string][]systemFn, len(defaultStages)),
		resources: make(map[reflect.Type]any),
		ecs:       &ecs,
	}
	for _, s := range app.stages {
		app.systems[s.Name] = nil
	}
	return app
}

func (app *App) Commands() *Commands {
	return &Commands{app: app}
}

// Update runs one frame. The first error reported by a system is returned,
// further ones are logged.
func (app *App) Update() error {
	for _, stage := range app.stages {
		for _, system := range app.systems[stage.Name] {
			app.callSystem(system)
		}
		app.FlushCommands()
	}
	return app.takeError()
}

func (app *App) reportError(err error) {
	if err == nil {
		return
	}
	app.errs = append(app.errs, err)
}

func (app *App) takeError() error {
	if len(app.errs) == 0 {
		return nil
	}
	first := app.errs[0]
	for _, err := range app.errs[1:] {
		app.Logger().Errorf("%v", err)
	}
	app.errs = app.errs[:0]
	return first
}

func (app *App) addResources(resources ...any) *App {
	for _, resource := range resources {
		resourceType := reflect.TypeOf(resource)
		if resourceType.Kind() != reflect.Pointer {
			panic(fmt.Sprintf("resource %s must be a pointer", resourceType))
		}
		if _, ok := app.resources[resourceType.Elem()]; ok {
			panic(fmt.Sprintf("%s is already in resources", resourceType))
		}
		app.resources[resourceType.Elem()] = resource
	}
	return app
}

// Resource returns the resource of type T, or nil.
func Resource[T any](app *App) *T {
	if r, ok := app.resources[reflect.TypeFor[T]()]; ok {
		return r.(*T)
	}
	return nil
}

var typeOfCommands = reflect.TypeOf(Commands{})

// callSystem resolves every pointer parameter of system from the resources,
// except *Commands which is created per call.
func (app *App) callSystem(system systemFn) {
	systemType := reflect.TypeOf(system)
	systemValue := reflect.ValueOf(system)

	args := make([]reflect.Value, systemType.NumIn())
	for i := range args {
		argType := systemType.In(i)
		if argType.Kind() != reflect.Pointer {
			app.unresolved(systemValue, systemType, argType)
		}
		underlying := argType.Elem()

		if underlying == typeOfCommands {
			args[i] = reflect.ValueOf(&Commands{app: app})
		} else if resource, ok := app.resources[underlying]; ok {
			args[i] = reflect.ValueOf(resource)
		} else {
			app.unresolved(systemValue, systemType, argType)
		}
	}
	systemValue.Call(args)
}

func (app *App) unresolved(systemValue reflect.Value, systemType, argType reflect.Type) {
	panic(fmt.Sprintf("Unable to resolve System dependency.\nSystem: %s\nSystem type: %s\nDependency: %s",
		runtime.FuncForPC(systemValue.Pointer()).Name(),
		systemType,
		argType,
	))
}

// FlushCommands applies deferred entity changes: removals, then spawns, then
// component additions and removals.
func (app *App) FlushCommands() {
	for _, eid := range app.pendingRemovals {
		app.ecs.removeEntity(eid)
	}
	app.pendingRemovals = app.pendingRemovals[:0]

	for _, add := range app.pendingAdditions {
		app.ecs.insertEntity(add.eid, add.components...)
	}
	app.pendingAdditions = app.pendingAdditions[:0]

	for _, add := range app.pendingCompAdds {
		app.ecs.addComponents(add.eid, add.components...)
	}
	app.pendingCompAdds = app.pendingCompAdds[:0]

	for _, rm := range app.pendingCompRemovals {
		app.ecs.removeComponents(rm.eid, rm.components...)
	}
	app.pendingCompRemovals = app.pendingCompRemovals[:0]
}
