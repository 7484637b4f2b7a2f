// Package render paints the overlay animation.
//
// A Renderer owns a looping sequence of frames. The event loop calls
// RenderFrame and AdvanceFrame on every paint tick; all methods are called
// from that one goroutine.
package render

import (
	"errors"
	"image"
)

// ErrNotLoaded is returned when rendering before any source was loaded.
var ErrNotLoaded = errors.New("render: no source loaded")

// Renderer draws a looping animation into a window surface.
type Renderer interface {
	// LoadSource loads the animation at path and rewinds to its first frame.
	LoadSource(path string) error

	// RenderFrame paints the current frame.
	RenderFrame() error

	// AdvanceFrame moves to the next frame, wrapping after the last one.
	AdvanceFrame() error
}

// Surface receives finished frames.
type Surface interface {
	Present(img image.Image) error
}

// SurfaceFunc adapts a function to the Surface interface.
type SurfaceFunc func(img image.Image) error

// Present calls f(img).
func (f SurfaceFunc) Present(img image.Image) error {
	return f(img)
}

// Nop is a Renderer that does nothing and always succeeds. It is used for
// headless runs and tests.
type Nop struct{}

var _ Renderer = Nop{}

func (Nop) LoadSource(string) error { return nil }
func (Nop) RenderFrame() error      { return nil }
func (Nop) AdvanceFrame() error     { return nil }
