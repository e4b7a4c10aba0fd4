//go:build !tinygo && cgo

package gldevice

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/soypat/zengl/glrender"
)

var (
	_ glrender.Surface = (*Window)(nil)
	_ glrender.Device  = (*Device)(nil)
)

func init() {
	// GLFW event handling must run on the main thread.
	runtime.LockOSThread()
}

// Window is a GLFW window with an OpenGL 4.1 core context. It implements [glrender.Surface].
type Window struct {
	win    *glfw.Window
	dev    *Device
	width  int
	height int
	closed bool
}

// NewWindow opens a window and makes its context current. Only one window
// may be open at a time.
func NewWindow(cfg WindowConfig) (*Window, error) {
	cfg.defaults()
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("initializing GLFW: %w", err)
	}
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	resizable := glfw.False
	if cfg.Resizable {
		resizable = glfw.True
	}
	glfw.WindowHint(glfw.Resizable, resizable)

	win, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("creating window: %w", err)
	}
	win.MakeContextCurrent()
	if err := gl.Init(); err != nil {
		win.Destroy()
		glfw.Terminate()
		return nil, fmt.Errorf("initializing OpenGL: %w", err)
	}
	glfw.SwapInterval(cfg.SwapInterval)
	glrender.Logger().Info("gldevice: window opened",
		slog.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		slog.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)
	return &Window{win: win, dev: newDevice()}, nil
}

// Device returns the device drawing to the window.
func (w *Window) Device() (glrender.Device, error) {
	if w.closed {
		return nil, errors.New("gldevice: window closed")
	}
	return w.dev, nil
}

// SetSize records the framebuffer size drawn by the renderer. The window
// itself is sized by the user.
func (w *Window) SetSize(width, height int) { w.width, w.height = width, height }

// FramebufferSize returns the size of the window in pixels, which on high
// density displays is larger than the window size in screen coordinates.
func (w *Window) FramebufferSize() (width, height int) { return w.win.GetFramebufferSize() }

func (w *Window) ShouldClose() bool { return w.closed || w.win.ShouldClose() }

// Present swaps the window buffers and processes pending events.
func (w *Window) Present() {
	w.win.SwapBuffers()
	glfw.PollEvents()
}

// Time returns the seconds elapsed since the window was opened.
func (w *Window) Time() float64 { return glfw.GetTime() }

// GLFW returns the underlying window, for registering input callbacks.
func (w *Window) GLFW() *glfw.Window { return w.win }

// Close releases the device and destroys the window. Renderers mounted on
// the window must be disposed first.
func (w *Window) Close() {
	if w.closed {
		return
	}
	w.closed = true
	w.dev.release()
	w.win.Destroy()
	glfw.Terminate()
}
