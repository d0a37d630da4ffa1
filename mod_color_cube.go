package glc

import (
	"github.com/glc3d/glc/cube"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// ColorCube is a voxel histogram of the input image colors.
type ColorCube struct {
	Resolution uint32
	Threshold  float32
}

// InstancedMesh is the per-instance data drawn with the entity's Mesh.
type InstancedMesh struct {
	Instances []cube.InstanceData
}

// ModelTransform places an entity in the world: p' = p*Scale + Translation.
type ModelTransform struct {
	Translation mgl32.Vec3
	Scale       float32
}

func (t ModelTransform) Matrix() mgl32.Mat4 {
	return mgl32.Translate3D(t.Translation[0], t.Translation[1], t.Translation[2]).
		Mul4(mgl32.Scale3D(t.Scale, t.Scale, t.Scale))
}

type UpdateColorCubeEvent struct{}

// ColorCubeModule spawns the color cube centered at the origin with edge Size.
// It needs the AssetServer resource.
type ColorCubeModule struct {
	Resolution uint32
	Threshold  float32
	Size       float32
}

func (m ColorCubeModule) Install(app *App, cmd *Commands) {
	AddEvent[UpdateColorCubeEvent](app)

	if !(m.Threshold > 0) {
		cmd.ReportError(errors.Wrapf(ErrInvalidThreshold, "got %v", m.Threshold))
		return
	}
	if !(m.Size > 0) {
		cmd.ReportError(errors.Wrapf(ErrInvalidCubeSize, "got %v", m.Size))
		return
	}
	instances, err := cube.Build(m.Resolution)
	if err != nil {
		cmd.ReportError(err)
		return
	}

	assets := Resource[AssetServer](app)
	if assets == nil {
		panic("ColorCubeModule requires AssetServerModule")
	}
	mesh := assets.LoadMesh(UnitCubeMesh())

	half := m.Size / 2
	cmd.AddEntity(
		ColorCube{Resolution: m.Resolution, Threshold: m.Threshold},
		InstancedMesh{Instances: instances},
		mesh,
		ModelTransform{Translation: mgl32.Vec3{-half, -half, -half}, Scale: m.Size},
	)
	cmd.Logger().Debugf("color cube %d^3 spawned", m.Resolution)

	app.UseSystem(System(updateColorCubeSystem).InStage(PostUpdate))
}

func updateColorCubeSystem(cmd *Commands, events *Events[UpdateColorCubeEvent]) {
	if _, ok := events.Latest(); !ok {
		return
	}

	var pixels []mgl32.Vec4
	MakeQuery2[Image, InputImage](cmd).Map(func(eid EntityId, img *Image, _ *InputImage) bool {
		pixels = img.Pixels
		return false
	})
	if len(pixels) == 0 {
		cmd.Logger().Debugf("input image empty, keeping color cube")
		return
	}

	MakeQuery2[ColorCube, InstancedMesh](cmd).Map(func(eid EntityId, cc *ColorCube, mesh *InstancedMesh) bool {
		if err := cube.UpdateHistogram(mesh.Instances, pixels, cc.Resolution, cc.Threshold); err != nil {
			cmd.ReportError(errors.Wrapf(err, "update color cube %d", eid))
		}
		return true
	})
}
