//go:build tinygo || !cgo

package gldevice

import "github.com/soypat/zengl/glrender"

// Device is unavailable without CGo.
type Device struct{}

// Window is unavailable without CGo. Mounting jobs on it fails with [glrender.ErrUnsupported].
type Window struct{}

func NewWindow(cfg WindowConfig) (*Window, error) {
	return nil, errNoCGO
}

func (w *Window) Device() (glrender.Device, error)     { return nil, errNoCGO }
func (w *Window) SetSize(width, height int)            {}
func (w *Window) FramebufferSize() (width, height int) { return 0, 0 }
func (w *Window) ShouldClose() bool                    { return true }
func (w *Window) Present()                             {}
func (w *Window) Time() float64                        { return 0 }
func (w *Window) Close()                               {}
