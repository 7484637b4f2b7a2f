package overlay

import "image"

// ClassName is the native window class registered for the overlay.
const ClassName = "GO_OVERLAY"

// WindowHandle is a copyable reference to a native window. It carries no
// ownership: it stays valid until the window is destroyed on its host
// goroutine and nothing else may release it.
type WindowHandle uintptr

// Rect is a window rectangle in physical pixels.
type Rect struct {
	X, Y int32
	W, H int32
}

// Style is the set of visual attributes requested at window creation.
type Style uint8

const (
	StyleLayered Style = 1 << iota
	StyleClickThrough
	StyleTopmost
	StyleNoActivate
	StyleToolWindow
	StyleVisible
)

// OverlayStyle is the attribute set used for the tray overlay.
const OverlayStyle = StyleLayered | StyleClickThrough | StyleTopmost | StyleNoActivate | StyleToolWindow | StyleVisible

// Has reports whether all bits of o are set in s.
func (s Style) Has(o Style) bool {
	return s&o == o
}

// WindowConfig describes the window to create.
type WindowConfig struct {
	Class  string
	Title  string
	Bounds Rect
	Style  Style
}

// Anchor is the UI element the overlay is positioned against.
type Anchor struct {
	// Parent is the top-level window containing the anchor (the taskbar).
	Parent WindowHandle
	// Bounds is the anchor's rectangle in physical pixels.
	Bounds Rect
}

// WindowSystem is the platform binding used by the window host.
//
// Everything except RequestClose and Present must be called from the host
// goroutine that created the window.
type WindowSystem interface {
	// Register registers the window class. Registering twice is not an error.
	Register(class string) error

	// Anchor locates the tray notification area.
	Anchor() (Anchor, error)

	// DPI returns the system DPI; 96 means a scale factor of 1.
	DPI() uint32

	// Create creates the window.
	Create(cfg WindowConfig) (WindowHandle, error)

	// PinTopmost puts the window back on top of the z-order without
	// moving, resizing or activating it.
	PinTopmost(h WindowHandle) error

	// Pump retrieves and dispatches native messages for h, calling fn for
	// each one, until fn returns EndPump or the platform ends the loop.
	Pump(h WindowHandle, fn func(Message) Disposition) error

	// Release frees native resources tied to h after the pump ended.
	Release(h WindowHandle)

	// RequestClose asks the window to destroy itself on its own goroutine.
	// Safe to call from any goroutine.
	RequestClose(h WindowHandle) error

	// Present paints img into the window surface.
	Present(h WindowHandle, img image.Image) error
}
