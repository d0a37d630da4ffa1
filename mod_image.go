package glc

import (
	"github.com/glc3d/glc/cube"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// Image is a row-major float RGBA image. len(Pixels) == Width*Height.
type Image struct {
	Width  uint32
	Height uint32
	Pixels []mgl32.Vec4
}

func (img Image) Empty() bool {
	return len(img.Pixels) == 0
}

// InputImage marks the image the host feeds in.
type InputImage struct{}

// OutputImage marks the color transformed copy of the input image.
type OutputImage struct{}

// ColorTransformation rotates colors around the center of the RGB cube.
type ColorTransformation struct {
	Rotation mgl32.Quat
}

// OutputTarget names the surface the output image is drawn to. Empty means none.
type OutputTarget struct {
	SurfaceID string
}

type SetInputImageEvent struct {
	Width  uint32
	Height uint32
	Pixels []mgl32.Vec4
}

type SetColorTransformationEvent struct {
	Rotation mgl32.Quat
}

type SetOutputCanvasEvent struct {
	SurfaceID string
}

type TransformImageEvent struct{}

type RenderRequestEvent struct{}

// NewImageFromRGBA8 normalizes 8-bit row-major RGBA data to [0,1].
func NewImageFromRGBA8(width, height uint32, data []byte) (Image, error) {
	n := int(width) * int(height)
	if len(data) != n*4 {
		return Image{}, errors.Wrapf(ErrImageSize, "%dx%d needs %d bytes, got %d", width, height, n*4, len(data))
	}
	pixels := make([]mgl32.Vec4, n)
	for i := range pixels {
		o := i * 4
		pixels[i] = mgl32.Vec4{
			float32(data[o+0]) / 255,
			float32(data[o+1]) / 255,
			float32(data[o+2]) / 255,
			float32(data[o+3]) / 255,
		}
	}
	return Image{Width: width, Height: height, Pixels: pixels}, nil
}

// ImageModule spawns the input and output images and runs the chain
// set -> transform -> histogram/render within one frame. Env resolves output
// surface ids.
type ImageModule struct {
	Env HostEnvironment
}

func (m ImageModule) Install(app *App, cmd *Commands) {
	AddEvent[SetInputImageEvent](app)
	AddEvent[SetColorTransformationEvent](app)
	AddEvent[SetOutputCanvasEvent](app)
	AddEvent[TransformImageEvent](app)
	AddEvent[RenderRequestEvent](app)
	AddEvent[UpdateColorCubeEvent](app)

	if surfaces := Resource[Surfaces](app); surfaces != nil {
		if m.Env != nil {
			surfaces.Env = m.Env
		}
	} else {
		cmd.AddResources(&Surfaces{Env: m.Env})
	}

	cmd.AddEntity(Image{}, InputImage{})
	cmd.AddEntity(Image{}, OutputImage{}, ColorTransformation{Rotation: mgl32.QuatIdent()}, OutputTarget{})

	app.UseSystem(System(setInputImageSystem).InStage(PreUpdate))
	app.UseSystem(System(setColorTransformationSystem).InStage(PreUpdate))
	app.UseSystem(System(setOutputCanvasSystem).InStage(PreUpdate))
	app.UseSystem(System(transformImageSystem).InStage(Update))
	app.UseSystem(System(renderImageSystem).InStage(PostUpdate))
}

func setInputImageSystem(cmd *Commands, in *Events[SetInputImageEvent], out *Events[TransformImageEvent]) {
	evt, ok := in.Latest()
	if !ok {
		return
	}
	MakeQuery2[Image, InputImage](cmd).Map(func(eid EntityId, img *Image, _ *InputImage) bool {
		img.Width = evt.Width
		img.Height = evt.Height
		img.Pixels = evt.Pixels
		return true
	})
	cmd.Logger().Debugf("input image set to %dx%d", evt.Width, evt.Height)
	out.Send(TransformImageEvent{})
}

func setColorTransformationSystem(cmd *Commands, in *Events[SetColorTransformationEvent], out *Events[TransformImageEvent]) {
	evt, ok := in.Latest()
	if !ok {
		return
	}
	MakeQuery1[ColorTransformation](cmd).Map(func(eid EntityId, xf *ColorTransformation) bool {
		xf.Rotation = evt.Rotation.Normalize()
		return true
	})
	out.Send(TransformImageEvent{})
}

func setOutputCanvasSystem(cmd *Commands, in *Events[SetOutputCanvasEvent], out *Events[RenderRequestEvent]) {
	evt, ok := in.Latest()
	if !ok {
		return
	}
	MakeQuery1[OutputTarget](cmd).Map(func(eid EntityId, target *OutputTarget) bool {
		target.SurfaceID = evt.SurfaceID
		return true
	})
	cmd.Logger().Debugf("output surface set to %q", evt.SurfaceID)
	out.Send(RenderRequestEvent{})
}

func transformImageSystem(
	cmd *Commands,
	in *Events[TransformImageEvent],
	cubeEvents *Events[UpdateColorCubeEvent],
	render *Events[RenderRequestEvent],
) {
	if _, ok := in.Latest(); !ok {
		return
	}

	var input *Image
	MakeQuery2[Image, InputImage](cmd).Map(func(eid EntityId, img *Image, _ *InputImage) bool {
		input = img
		return false
	})
	if input == nil {
		return
	}

	MakeQuery3[Image, OutputImage, ColorTransformation](cmd).Map(func(eid EntityId, out *Image, _ *OutputImage, xf *ColorTransformation) bool {
		if cap(out.Pixels) < len(input.Pixels) {
			out.Pixels = make([]mgl32.Vec4, len(input.Pixels))
		}
		out.Pixels = cube.RotatePixels(xf.Rotation, input.Pixels, out.Pixels[:len(input.Pixels)])
		out.Width = input.Width
		out.Height = input.Height
		return true
	})

	cubeEvents.Send(UpdateColorCubeEvent{})
	render.Send(RenderRequestEvent{})
}

func renderImageSystem(cmd *Commands, in *Events[RenderRequestEvent], surfaces *Surfaces) {
	if _, ok := in.Latest(); !ok {
		return
	}
	MakeQuery3[Image, OutputImage, OutputTarget](cmd).Map(func(eid EntityId, img *Image, _ *OutputImage, target *OutputTarget) bool {
		if target.SurfaceID == "" {
			cmd.Logger().Debugf("no output surface, skipping image render")
			return true
		}
		if img.Empty() {
			cmd.Logger().Debugf("output image empty, skipping render to %q", target.SurfaceID)
			return true
		}
		s, err := surfaces.Lookup(target.SurfaceID)
		if err != nil {
			cmd.ReportError(err)
			return true
		}
		if err := DrawToSurface(img, s); err != nil {
			cmd.ReportError(errors.Wrapf(err, "render output image to %q", target.SurfaceID))
		}
		return true
	})
}
