package main

import (
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"
)

func init() {
	// glfw must run on the main thread
	runtime.LockOSThread()
}

// window is the single desktop window the 3D view renders into.
type window struct {
	glfw   *glfw.Window
	width  int
	height int
	title  string
}

func openWindow(width, height int, title string) (*window, error) {
	if width <= 0 {
		width = 1280
	}
	if height <= 0 {
		height = 720
	}
	if title == "" {
		title = "glc"
	}

	if err := glfw.Init(); err != nil {
		return nil, errors.Wrap(err, "init glfw")
	}
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	win, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, errors.Wrap(err, "create window")
	}
	return &window{glfw: win, width: width, height: height, title: title}, nil
}

func (w *window) surfaceDescriptor() *wgpu.SurfaceDescriptor {
	return wgpuglfw.GetSurfaceDescriptor(w.glfw)
}

func (w *window) framebufferSize() (uint32, uint32) {
	fw, fh := w.glfw.GetFramebufferSize()
	return uint32(max(fw, 0)), uint32(max(fh, 0))
}

func (w *window) shouldClose() bool {
	return w.glfw.ShouldClose()
}

func (w *window) close() {
	w.glfw.Destroy()
	glfw.Terminate()
}
