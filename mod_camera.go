package glc

import (
	"github.com/go-gl/mathgl/mgl32"
)

const minCameraDistance = 0.5

// OrbitCamera looks at the origin from Distance away. Yaw turns around the
// vertical axis, Pitch tilts up and down. Angles are in radians.
type OrbitCamera struct {
	Yaw      float32
	Pitch    float32
	Distance float32
	Fov      float32
	Near     float32
	Far      float32
}

func (c OrbitCamera) rotation() mgl32.Quat {
	return mgl32.QuatRotate(c.Yaw, mgl32.Vec3{0, 1, 0}).
		Mul(mgl32.QuatRotate(c.Pitch, mgl32.Vec3{1, 0, 0}))
}

func (c OrbitCamera) Eye() mgl32.Vec3 {
	return c.rotation().Rotate(mgl32.Vec3{0, 0, c.Distance})
}

func (c OrbitCamera) View() mgl32.Mat4 {
	up := c.rotation().Rotate(mgl32.Vec3{0, 1, 0})
	return mgl32.LookAtV(c.Eye(), mgl32.Vec3{}, up)
}

func (c OrbitCamera) Projection(aspect float32) mgl32.Mat4 {
	if aspect <= 0 {
		aspect = 1
	}
	return mgl32.Perspective(c.Fov, aspect, c.Near, c.Far)
}

func (c OrbitCamera) ViewProjection(aspect float32) mgl32.Mat4 {
	return c.Projection(aspect).Mul4(c.View())
}

// Move applies a host drag/zoom: yaw by -rx, pitch by -ry, distance by +zoom.
func (c *OrbitCamera) Move(rx, ry, zoom float32) {
	c.Yaw -= rx
	c.Pitch -= ry
	c.Distance += zoom
	if c.Distance < minCameraDistance {
		c.Distance = minCameraDistance
	}
}

type CameraMoveEvent struct {
	Rx   float32
	Ry   float32
	Zoom float32
}

// CameraModule spawns the orbit camera. Zero fields take the defaults
// 20 degree yaw, 10 degree pitch, distance 20.
type CameraModule struct {
	Yaw      float32
	Pitch    float32
	Distance float32
}

func (m CameraModule) Install(app *App, cmd *Commands) {
	AddEvent[CameraMoveEvent](app)

	cam := OrbitCamera{
		Yaw:      mgl32.DegToRad(20),
		Pitch:    mgl32.DegToRad(10),
		Distance: 20,
		Fov:      mgl32.DegToRad(45),
		Near:     0.1,
		Far:      1000,
	}
	if m.Yaw != 0 {
		cam.Yaw = m.Yaw
	}
	if m.Pitch != 0 {
		cam.Pitch = m.Pitch
	}
	if m.Distance != 0 {
		cam.Distance = m.Distance
	}
	cmd.AddEntity(cam)

	app.UseSystem(System(moveCameraSystem).InStage(Update))
}

func moveCameraSystem(cmd *Commands, events *Events[CameraMoveEvent]) {
	evt, ok := events.Latest()
	if !ok {
		return
	}
	MakeQuery1[OrbitCamera](cmd).Map(func(eid EntityId, cam *OrbitCamera) bool {
		cam.Move(evt.Rx, evt.Ry, evt.Zoom)
		return true
	})
}
