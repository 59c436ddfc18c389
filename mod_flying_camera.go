package framegraph

import (
	"math"

	"github.com/gekko3d/framegraph/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// FlyingCameraModule steers the main camera from the keyboard and, while the mouse is
// captured (Tab), from mouse look. It needs InputModule and TimeModule.
type FlyingCameraModule struct{}

func (m FlyingCameraModule) Install(app *App, cmd *Commands) {
	cmd.UseSystem(System(flyingCameraInputSystem).InStage(Update))
	cmd.UseSystem(System(flyingCameraControlSystem).InStage(Update))
}

// FlyingCamera is attached to the main camera node. Yaw and Pitch are in degrees and
// are taken from the camera's forward vector the first time it moves.
type FlyingCamera struct {
	Speed       float32
	Sensitivity float32
	Move        mgl32.Vec3
	Look        mgl32.Vec2

	Yaw, Pitch  float32
	initialized bool
}

func mainFlyingCamera(w *scene.World) (*scene.Camera, *FlyingCamera, bool) {
	cam, ok := scene.FindOne[scene.Camera](w, scene.TagMainCamera)
	if !ok {
		return nil, nil, false
	}
	fly, ok := scene.GetComponent[FlyingCamera](w, cam.Node.Id())
	return cam.Component, fly, ok
}

func flyingCameraInputSystem(input *Input, w *scene.World) {
	if input.JustPressed[KeyTab] {
		input.MouseCaptured = !input.MouseCaptured
	}
	_, fly, ok := mainFlyingCamera(w)
	if !ok {
		return
	}

	fly.Move = mgl32.Vec3{}
	axis := func(positive, negative Key) float32 {
		var v float32
		if input.Pressed[positive] {
			v++
		}
		if input.Pressed[negative] {
			v--
		}
		return v
	}
	fly.Move[0] = axis(KeyD, KeyA)
	fly.Move[1] = axis(KeySpace, KeyControl)
	fly.Move[2] = axis(KeyW, KeyS)

	if input.MouseCaptured {
		fly.Look = mgl32.Vec2{float32(input.MouseDeltaX), float32(input.MouseDeltaY)}
	} else {
		fly.Look = mgl32.Vec2{}
	}
}

func flyingCameraControlSystem(t *Time, w *scene.World) {
	dt := float32(t.Dt.Seconds())
	if dt <= 0 {
		return
	}
	if cam, fly, ok := mainFlyingCamera(w); ok {
		fly.apply(cam, dt)
	}
}

// apply turns and moves cam by one frame of input.
func (fly *FlyingCamera) apply(cam *scene.Camera, dt float32) {
	if !fly.initialized {
		f := cam.Forward.Normalize()
		fly.Pitch = mgl32.RadToDeg(float32(math.Asin(float64(f.Y()))))
		fly.Yaw = mgl32.RadToDeg(float32(math.Atan2(float64(f.X()), float64(-f.Z()))))
		fly.initialized = true
	}
	if fly.Sensitivity == 0 {
		fly.Sensitivity = 0.1
	}
	if fly.Speed == 0 {
		fly.Speed = 5.0
	}

	fly.Yaw += fly.Look[0] * fly.Sensitivity
	fly.Pitch = mgl32.Clamp(fly.Pitch-fly.Look[1]*fly.Sensitivity, -89, 89)

	yaw := float64(mgl32.DegToRad(fly.Yaw))
	pitch := float64(mgl32.DegToRad(fly.Pitch))
	forward := mgl32.Vec3{
		float32(math.Sin(yaw) * math.Cos(pitch)),
		float32(math.Sin(pitch)),
		float32(-math.Cos(yaw) * math.Cos(pitch)),
	}.Normalize()
	up := cam.DefaultUp
	right := forward.Cross(up).Normalize()

	move := right.Mul(fly.Move[0]).Add(up.Mul(fly.Move[1])).Add(forward.Mul(fly.Move[2]))
	if move.Len() > 0 {
		cam.Position = cam.Position.Add(move.Normalize().Mul(fly.Speed * dt))
	}
	cam.Forward = forward
	cam.Up = up
}
