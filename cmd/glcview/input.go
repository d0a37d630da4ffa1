package main

import (
	"github.com/go-gl/glfw/v3.3/glfw"
)

const (
	KeyLeft int = iota
	KeyRight
	KeyUp
	KeyDown
	KeyEscape
	MouseButtonLeft
	inputCount
)

var keyToGlfw = map[int]glfw.Key{
	KeyLeft:   glfw.KeyLeft,
	KeyRight:  glfw.KeyRight,
	KeyUp:     glfw.KeyUp,
	KeyDown:   glfw.KeyDown,
	KeyEscape: glfw.KeyEscape,
}

// Input is the keyboard and mouse state sampled once per frame.
type Input struct {
	Pressed     [inputCount]bool
	JustPressed [inputCount]bool

	MouseX, MouseY           float64
	MouseDeltaX, MouseDeltaY float64
	Scroll                   float64

	Resized bool
}

// attach installs the callbacks that cannot be polled.
func (input *Input) attach(w *window) {
	w.glfw.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		input.Scroll += yoff
	})
	w.glfw.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		input.Resized = true
	})
}

// poll pumps the glfw event queue and refreshes the state.
func (input *Input) poll(w *window) {
	input.Scroll = 0
	input.Resized = false
	glfw.PollEvents()

	for key, glfwKey := range keyToGlfw {
		input.press(key, w.glfw.GetKey(glfwKey))
	}
	input.press(MouseButtonLeft, w.glfw.GetMouseButton(glfw.MouseButtonLeft))

	mx, my := w.glfw.GetCursorPos()
	if input.Pressed[MouseButtonLeft] && !input.JustPressed[MouseButtonLeft] {
		input.MouseDeltaX = mx - input.MouseX
		input.MouseDeltaY = my - input.MouseY
	} else {
		input.MouseDeltaX = 0
		input.MouseDeltaY = 0
	}
	input.MouseX = mx
	input.MouseY = my
}

func (input *Input) press(key int, action glfw.Action) {
	input.JustPressed[key] = false
	if glfw.Press == action {
		if !input.Pressed[key] {
			input.JustPressed[key] = true
		}
		input.Pressed[key] = true
	} else if glfw.Release == action {
		input.Pressed[key] = false
	}
}
