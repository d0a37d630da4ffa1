package glc

import (
	"testing"

	"github.com/glc3d/glc/cube"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func colorCubeInstances(app *App) []cube.InstanceData {
	var instances []cube.InstanceData
	MakeQuery2[ColorCube, InstancedMesh](app.Commands()).Map(func(eid EntityId, _ *ColorCube, mesh *InstancedMesh) bool {
		instances = mesh.Instances
		return false
	})
	return instances
}

func TestColorCubeModule_Spawn(t *testing.T) {
	app := newImageApp(t, nil)

	var (
		found int
		xf    ModelTransform
		mesh  Mesh
	)
	MakeQuery4[ColorCube, InstancedMesh, Mesh, ModelTransform](app.Commands()).Map(
		func(eid EntityId, cc *ColorCube, im *InstancedMesh, m *Mesh, t *ModelTransform) bool {
			found++
			xf = *t
			mesh = *m
			return true
		})
	require.Equal(t, 1, found)

	assert.Equal(t, mgl32.Vec3{-5, -5, -5}, xf.Translation)
	assert.Equal(t, float32(10), xf.Scale)

	_, ok := Resource[AssetServer](app).Mesh(mesh.AssetId)
	assert.True(t, ok, "cube mesh registered with the asset server")

	instances := colorCubeInstances(app)
	require.Len(t, instances, 8)
	for _, inst := range instances {
		assert.Equal(t, float32(1), inst.Scale, "fully occupied before any image")
	}
}

func TestModelTransform_Matrix(t *testing.T) {
	xf := ModelTransform{Translation: mgl32.Vec3{-5, -5, -5}, Scale: 10}
	m := xf.Matrix()

	assert.Equal(t, mgl32.Vec4{-5, -5, -5, 1}, m.Mul4x1(mgl32.Vec4{0, 0, 0, 1}))
	assert.Equal(t, mgl32.Vec4{5, 5, 5, 1}, m.Mul4x1(mgl32.Vec4{1, 1, 1, 1}))
}

func TestColorCube_SingleRedPixel(t *testing.T) {
	app := newImageApp(t, nil)

	sendInput(app, 1, 1, mgl32.Vec4{1, 0, 0, 1})
	require.NoError(t, app.Update())

	instances := colorCubeInstances(app)
	red := cube.Index(1, 0, 0, 2)
	for i, inst := range instances {
		if i == red {
			assert.Equal(t, float32(1), inst.Scale)
		} else {
			assert.Equal(t, float32(0), inst.Scale, "voxel %d", i)
		}
	}
}

func TestColorCube_HistogramFollowsInputNotRotation(t *testing.T) {
	app := newImageApp(t, nil)

	sendInput(app, 1, 1, mgl32.Vec4{1, 0, 0, 1})
	Resource[Events[SetColorTransformationEvent]](app).Send(SetColorTransformationEvent{
		Rotation: mgl32.QuatRotate(mgl32.DegToRad(180), mgl32.Vec3{0, 1, 0}),
	})
	require.NoError(t, app.Update())

	instances := colorCubeInstances(app)
	assert.Equal(t, float32(1), instances[cube.Index(1, 0, 0, 2)].Scale)
	assert.Equal(t, float32(0), instances[cube.Index(0, 0, 1, 2)].Scale)
}

func TestColorCube_EmptyInputKeepsInstances(t *testing.T) {
	app := newImageApp(t, nil)

	Resource[Events[UpdateColorCubeEvent]](app).Send(UpdateColorCubeEvent{})
	require.NoError(t, app.Update())

	for _, inst := range colorCubeInstances(app) {
		assert.Equal(t, float32(1), inst.Scale)
	}
}

func TestColorCube_EmptyInputKeepsPreviousHistogram(t *testing.T) {
	app := newImageApp(t, nil)
	sendInput(app, 1, 1, mgl32.Vec4{1, 0, 0, 1})
	require.NoError(t, app.Update())
	before := append([]cube.InstanceData(nil), colorCubeInstances(app)...)

	sendInput(app, 0, 0)
	require.NoError(t, app.Update())

	assert.True(t, inputImage(app).Empty())
	assert.Equal(t, before, colorCubeInstances(app))
	assert.Equal(t, float32(1), colorCubeInstances(app)[cube.Index(1, 0, 0, 2)].Scale)
}

func TestColorCube_OnlyUpdatesOnEvent(t *testing.T) {
	app := newImageApp(t, nil)
	sendInput(app, 1, 1, mgl32.Vec4{1, 0, 0, 1})
	require.NoError(t, app.Update())

	instances := colorCubeInstances(app)
	instances[0].Scale = 0.25
	require.NoError(t, app.Update())
	assert.Equal(t, float32(0.25), colorCubeInstances(app)[0].Scale)
}

func TestColorCubeModule_InvalidParameters(t *testing.T) {
	for name, tc := range map[string]struct {
		module ColorCubeModule
		want   error
	}{
		"resolution": {ColorCubeModule{Resolution: 1, Threshold: 0.1, Size: 1}, ErrInvalidResolution},
		"threshold":  {ColorCubeModule{Resolution: 2, Threshold: 0, Size: 1}, ErrInvalidThreshold},
		"size":       {ColorCubeModule{Resolution: 2, Threshold: 0.1, Size: -1}, ErrInvalidCubeSize},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NewAppBuilder().UseModule(AssetServerModule{}, tc.module).Build()
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestColorCubeModule_RequiresAssetServer(t *testing.T) {
	assert.Panics(t, func() {
		_, _ = NewAppBuilder().UseModule(ColorCubeModule{Resolution: 2, Threshold: 0.1, Size: 1}).Build()
	})
}
