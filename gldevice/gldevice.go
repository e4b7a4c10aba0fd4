// Package gldevice implements [glrender.Device] on desktop OpenGL 4.1 and
// provides a GLFW window to render to.
//
// GLSL ES 1.00 sources produced by zengl are upgraded to GLSL 4.10 before
// compiling. OpenGL calls must be made from the main thread, which this
// package locks on initialization.
package gldevice

import "errors"

var errNoCGO = errors.New("gldevice: OpenGL requires CGo and is not supported on TinyGo")

// WindowConfig configures a window created with [NewWindow].
type WindowConfig struct {
	Title     string
	Width     int
	Height    int
	Resizable bool
	// SwapInterval is the number of screen refreshes to wait between buffer swaps. Zero disables vsync.
	SwapInterval int
}

func (cfg *WindowConfig) defaults() {
	if cfg.Title == "" {
		cfg.Title = "zengl"
	}
	if cfg.Width <= 0 {
		cfg.Width = 800
	}
	if cfg.Height <= 0 {
		cfg.Height = 600
	}
}
