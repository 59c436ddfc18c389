package framegraph

import (
	"testing"
	"time"

	"github.com/gekko3d/framegraph/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertVec(t *testing.T, want, got mgl32.Vec3) {
	t.Helper()
	assert.True(t, want.ApproxEqualThreshold(got, 1e-4), "want %v, got %v", want, got)
}

func TestInput_Transitions(t *testing.T) {
	var input Input

	input.set(KeyW, true)
	assert.True(t, input.Pressed[KeyW])
	assert.True(t, input.JustPressed[KeyW])

	input.set(KeyW, true)
	assert.True(t, input.Pressed[KeyW])
	assert.False(t, input.JustPressed[KeyW])

	input.set(KeyW, false)
	assert.False(t, input.Pressed[KeyW])
	assert.True(t, input.JustReleased[KeyW])

	input.set(KeyW, false)
	assert.False(t, input.JustReleased[KeyW])
}

func TestInput_MouseDeltaOnlyWhileCaptured(t *testing.T) {
	var input Input
	input.moveMouse(10, 20)
	input.moveMouse(15, 18)
	assert.Zero(t, input.MouseDeltaX)

	input.MouseCaptured = true
	input.moveMouse(20, 10)
	assert.Equal(t, 5.0, input.MouseDeltaX)
	assert.Equal(t, -8.0, input.MouseDeltaY)
}

func TestFlyingCamera_Apply(t *testing.T) {
	cam := scene.NewCamera(mgl32.Vec3{}, mgl32.Vec3{0, 0, -1})
	fly := &FlyingCamera{Speed: 2, Move: mgl32.Vec3{0, 0, 1}}

	fly.apply(&cam, 1)
	assertVec(t, mgl32.Vec3{0, 0, -2}, cam.Position)
	assertVec(t, mgl32.Vec3{0, 0, -1}, cam.Forward)

	fly.Move = mgl32.Vec3{}
	fly.Look = mgl32.Vec2{900, 0}
	fly.apply(&cam, 1)
	assert.InDelta(t, 90, fly.Yaw, 1e-3)
	assertVec(t, mgl32.Vec3{1, 0, 0}, cam.Forward)

	fly.Look = mgl32.Vec2{0, -2000}
	fly.apply(&cam, 1)
	assert.Equal(t, float32(89), fly.Pitch)
}

func TestFlyingCamera_TakesYawFromTheCamera(t *testing.T) {
	cam := scene.NewCamera(mgl32.Vec3{}, mgl32.Vec3{1, 0, 0})
	fly := &FlyingCamera{}
	fly.apply(&cam, 0.1)

	assert.InDelta(t, 90, fly.Yaw, 1e-3)
	assert.InDelta(t, 0, fly.Pitch, 1e-3)
	assertVec(t, mgl32.Vec3{1, 0, 0}, cam.Forward)
}

func TestFlyingCamera_Systems(t *testing.T) {
	w := scene.NewWorld()
	n := w.AddNode(nil, 0, scene.TagMainCamera)
	require.NoError(t, w.AddComponents(n.Id(), scene.NewCamera(mgl32.Vec3{}, mgl32.Vec3{0, 0, -1}), &FlyingCamera{Speed: 1}))

	input := &Input{}
	input.set(KeyD, true)
	input.set(KeyTab, true)
	flyingCameraInputSystem(input, w)

	fly, _ := scene.GetComponent[FlyingCamera](w, n.Id())
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, fly.Move)
	assert.True(t, input.MouseCaptured)

	flyingCameraControlSystem(&Time{Dt: 500 * time.Millisecond}, w)
	cam, _ := scene.GetComponent[scene.Camera](w, n.Id())
	assertVec(t, mgl32.Vec3{0.5, 0, 0}, cam.Position)
}
