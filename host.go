package glc

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/glc3d/glc/render/gpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// Glc is the host facing handle of one color cube view. Event methods may be
// called from any goroutine; they take effect on the next Update.
type Glc struct {
	app    *App
	target gpu.Target
	closed bool

	cameraMoves hostQueue[CameraMoveEvent]
	inputImages hostQueue[SetInputImageEvent]
	rotations   hostQueue[SetColorTransformationEvent]
	canvases    hostQueue[SetOutputCanvasEvent]
}

// New builds a color cube app drawing into the render target surfaceID of env
// and runs its first frame. The target passes to the returned Glc, which
// releases it on Close. When New fails the target stays with the caller.
func New(env HostEnvironment, surfaceID string, cfg Config) (*Glc, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if env == nil {
		return nil, errors.Wrap(ErrNoRenderTarget, "no host environment")
	}
	target, err := env.RenderTarget(surfaceID)
	if err != nil {
		return nil, errors.Wrapf(err, "render target %q", surfaceID)
	}
	if target == nil {
		return nil, errors.Wrapf(ErrNoRenderTarget, "%q", surfaceID)
	}
	if n := target.SampleCount(); n != cfg.SampleCount {
		return nil, errors.Wrapf(ErrSampleCount, "render target %q has %d samples, config wants %d", surfaceID, n, cfg.SampleCount)
	}

	app, err := NewAppBuilder().
		UseModule(
			LoggingModule{Prefix: cfg.LogPrefix, Debug: cfg.Debug},
			TimeModule{},
			AssetServerModule{},
			ImageModule{Env: env},
			ColorCubeModule{Resolution: cfg.Resolution, Threshold: cfg.Threshold, Size: cfg.CubeSize},
			CameraModule{},
			RenderModule{
				Target: target,
				ClearColor: wgpu.Color{
					R: cfg.ClearColor[0],
					G: cfg.ClearColor[1],
					B: cfg.ClearColor[2],
					A: cfg.ClearColor[3],
				},
			},
		).
		Build()
	if err != nil {
		return nil, err
	}

	g := &Glc{app: app, target: target}
	app.Logger().Infof("color cube %d^3 on %q (%d samples)", cfg.Resolution, surfaceID, target.SampleCount())
	if err := g.Update(); err != nil {
		releaseRenderResources(app)
		return nil, err
	}
	return g, nil
}

// Update moves pending host events into the app and runs one frame.
func (g *Glc) Update() error {
	if g.closed {
		return ErrClosed
	}
	g.cameraMoves.flushInto(Resource[Events[CameraMoveEvent]](g.app))
	g.inputImages.flushInto(Resource[Events[SetInputImageEvent]](g.app))
	g.rotations.flushInto(Resource[Events[SetColorTransformationEvent]](g.app))
	g.canvases.flushInto(Resource[Events[SetOutputCanvasEvent]](g.app))

	if err := g.app.Update(); err != nil {
		g.app.Logger().Errorf("frame failed: %v", err)
		return err
	}
	return nil
}

// MoveCamera orbits the camera by -rx around the vertical axis and -ry around
// the horizontal one, and moves it z further away.
func (g *Glc) MoveCamera(rx, ry, z float32) {
	g.cameraMoves.push(CameraMoveEvent{Rx: rx, Ry: ry, Zoom: z})
}

// SetInputImage replaces the source image with 8-bit row-major RGBA data.
func (g *Glc) SetInputImage(width, height uint32, rgba []byte) error {
	img, err := NewImageFromRGBA8(width, height, rgba)
	if err != nil {
		return err
	}
	g.inputImages.push(SetInputImageEvent{Width: img.Width, Height: img.Height, Pixels: img.Pixels})
	return nil
}

// SetOutputCanvas chooses the surface the rotated image is drawn to.
func (g *Glc) SetOutputCanvas(surfaceID string) {
	g.canvases.push(SetOutputCanvasEvent{SurfaceID: surfaceID})
}

// RotateColor sets the color rotation to degrees around the green axis.
func (g *Glc) RotateColor(degrees float32) {
	g.SetColorRotation(mgl32.QuatRotate(mgl32.DegToRad(degrees), mgl32.Vec3{0, 1, 0}))
}

// SetColorRotation sets an arbitrary color rotation.
func (g *Glc) SetColorRotation(q mgl32.Quat) {
	g.rotations.push(SetColorTransformationEvent{Rotation: q})
}

func (g *Glc) Resize(width, height uint32) error {
	if g.closed {
		return ErrClosed
	}
	if err := g.target.Resize(width, height); err != nil {
		return errors.Wrapf(err, "resize to %dx%d", width, height)
	}
	return nil
}

// Stats returns the counters of the last rendered frame.
func (g *Glc) Stats() RenderStats {
	if s := Resource[RenderStats](g.app); s != nil {
		return *s
	}
	return RenderStats{}
}

// Close releases every GPU resource and the render target. It is safe to call twice.
func (g *Glc) Close() {
	if g.closed {
		return
	}
	g.closed = true
	releaseRenderResources(g.app)
	g.target.Release()
}
