package framegraph

import (
	"github.com/go-gl/glfw/v3.3/glfw"
)

type Key int

const (
	KeyA Key = iota
	KeyD
	KeyE
	KeyQ
	KeyR
	KeyS
	KeyW
	KeySpace
	KeyEscape
	KeyTab
	KeyF1
	KeyF2
	KeyF3
	KeyShift
	KeyControl
	MouseButtonLeft
	MouseButtonRight
	MouseButtonMiddle

	keyCount
)

type InputModule struct{}

// Input is the keyboard and mouse state sampled at the start of the frame.
type Input struct {
	Pressed      [keyCount]bool
	JustPressed  [keyCount]bool
	JustReleased [keyCount]bool

	MouseX, MouseY           float64
	MouseDeltaX, MouseDeltaY float64
	MouseCaptured            bool
}

// InputModule needs the Window resource, so it comes after WindowModule.
func (mod InputModule) Install(app *App, cmd *Commands) {
	mustResource[Window](app, "install WindowModule before InputModule")
	cmd.AddResources(&Input{})
	cmd.UseSystem(System(inputSystem).InStage(PreUpdate))
}

// set records the state of key for this frame.
func (input *Input) set(key Key, down bool) {
	input.JustPressed[key] = down && !input.Pressed[key]
	input.JustReleased[key] = !down && input.Pressed[key]
	input.Pressed[key] = down
}

// moveMouse records the cursor position. Deltas are only reported while captured.
func (input *Input) moveMouse(x, y float64) {
	if input.MouseCaptured {
		input.MouseDeltaX = x - input.MouseX
		input.MouseDeltaY = y - input.MouseY
	} else {
		input.MouseDeltaX, input.MouseDeltaY = 0, 0
	}
	input.MouseX, input.MouseY = x, y
}

func inputSystem(w *Window, input *Input) {
	for key, glfwKey := range keyToGlfw {
		input.set(key, w.window.GetKey(glfwKey) == glfw.Press)
	}
	for key, button := range buttonToGlfw {
		input.set(key, w.window.GetMouseButton(button) == glfw.Press)
	}
	input.moveMouse(w.window.GetCursorPos())

	if input.MouseCaptured {
		w.window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	} else {
		w.window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
	}
}

var keyToGlfw = map[Key]glfw.Key{
	KeyA:       glfw.KeyA,
	KeyD:       glfw.KeyD,
	KeyE:       glfw.KeyE,
	KeyQ:       glfw.KeyQ,
	KeyR:       glfw.KeyR,
	KeyS:       glfw.KeyS,
	KeyW:       glfw.KeyW,
	KeySpace:   glfw.KeySpace,
	KeyEscape:  glfw.KeyEscape,
	KeyTab:     glfw.KeyTab,
	KeyF1:      glfw.KeyF1,
	KeyF2:      glfw.KeyF2,
	KeyF3:      glfw.KeyF3,
	KeyShift:   glfw.KeyLeftShift,
	KeyControl: glfw.KeyLeftControl,
}

var buttonToGlfw = map[Key]glfw.MouseButton{
	MouseButtonLeft:   glfw.MouseButtonLeft,
	MouseButtonRight:  glfw.MouseButtonRight,
	MouseButtonMiddle: glfw.MouseButtonMiddle,
}
