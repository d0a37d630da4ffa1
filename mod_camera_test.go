package glc

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func camera(app *App) OrbitCamera {
	var cam OrbitCamera
	MakeQuery1[OrbitCamera](app.Commands()).Map(func(eid EntityId, c *OrbitCamera) bool {
		cam = *c
		return false
	})
	return cam
}

func TestCameraModule_Defaults(t *testing.T) {
	app, err := NewAppBuilder().UseModule(CameraModule{}).Build()
	require.NoError(t, err)

	cam := camera(app)
	assert.InDelta(t, mgl32.DegToRad(20), cam.Yaw, 1e-6)
	assert.InDelta(t, mgl32.DegToRad(10), cam.Pitch, 1e-6)
	assert.Equal(t, float32(20), cam.Distance)
	assert.InDelta(t, 20, cam.Eye().Len(), 1e-4)
}

func TestOrbitCamera_EyeOnAxis(t *testing.T) {
	cam := OrbitCamera{Distance: 5}
	eye := cam.Eye()
	assert.InDelta(t, 0, eye[0], 1e-6)
	assert.InDelta(t, 0, eye[1], 1e-6)
	assert.InDelta(t, 5, eye[2], 1e-6)

	cam.Yaw = mgl32.DegToRad(90)
	eye = cam.Eye()
	assert.InDelta(t, 5, eye[0], 1e-5)
	assert.InDelta(t, 0, eye[2], 1e-5)
}

func TestOrbitCamera_ViewLooksAtOrigin(t *testing.T) {
	cam := OrbitCamera{Yaw: 0.4, Pitch: 0.3, Distance: 12, Fov: mgl32.DegToRad(45), Near: 0.1, Far: 100}

	// the origin lands straight ahead in view space
	p := cam.View().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assert.InDelta(t, 0, p[0], 1e-4)
	assert.InDelta(t, 0, p[1], 1e-4)
	assert.InDelta(t, -12, p[2], 1e-4)

	clip := cam.ViewProjection(16.0 / 9.0).Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assert.InDelta(t, 0, clip[0]/clip[3], 1e-4)
	assert.InDelta(t, 0, clip[1]/clip[3], 1e-4)
}

func TestOrbitCamera_Move(t *testing.T) {
	cam := OrbitCamera{Yaw: 1, Pitch: 1, Distance: 10}
	cam.Move(0.5, 0.25, 3)

	assert.Equal(t, float32(0.5), cam.Yaw)
	assert.Equal(t, float32(0.75), cam.Pitch)
	assert.Equal(t, float32(13), cam.Distance)

	cam.Move(0, 0, -100)
	assert.Equal(t, float32(minCameraDistance), cam.Distance)
}

func TestCameraModule_LatestMoveWins(t *testing.T) {
	app, err := NewAppBuilder().UseModule(CameraModule{Yaw: 1, Pitch: 1, Distance: 10}).Build()
	require.NoError(t, err)

	events := Resource[Events[CameraMoveEvent]](app)
	events.Send(CameraMoveEvent{Rx: 0.5}, CameraMoveEvent{Zoom: 2})
	require.NoError(t, app.Update())

	cam := camera(app)
	assert.Equal(t, float32(1), cam.Yaw)
	assert.Equal(t, float32(12), cam.Distance)

	require.NoError(t, app.Update())
	assert.Equal(t, float32(12), camera(app).Distance, "no event, no move")
}
