package overlay

import "fmt"

// Event is the closed set of things the overlay reacts to.
// Use a type switch to handle specific event types.
//
// Every variant is a comparable value type, so two Events are equal with ==
// exactly when they have the same variant and the same payload.
type Event interface {
	// isEvent is a marker method to prevent external implementations.
	isEvent()
	String() string
}

// AppCreateEvent is posted once the application finished its startup.
type AppCreateEvent struct{}

// AppDestroyEvent is emitted when the native window has been destroyed.
// It is the terminal event: the dispatcher stops after delivering it.
type AppDestroyEvent struct{}

// AppRenderChangeEvent asks the application to redraw outside the paint cadence.
type AppRenderChangeEvent struct{}

// PaintEvent requests the next animation frame.
type PaintEvent struct{}

// ResizeEvent reports the new client size of the window.
type ResizeEvent struct {
	Width  uint32
	Height uint32
}

// CloseEvent is emitted when the window is asked to close.
type CloseEvent struct{}

// KeyDownEvent reports a key press with its virtual key code.
type KeyDownEvent struct {
	Code uint32
}

// MouseMoveEvent reports pointer motion in client coordinates.
type MouseMoveEvent struct {
	X int32
	Y int32
}

func (AppCreateEvent) isEvent()       {}
func (AppDestroyEvent) isEvent()      {}
func (AppRenderChangeEvent) isEvent() {}
func (PaintEvent) isEvent()           {}
func (ResizeEvent) isEvent()          {}
func (CloseEvent) isEvent()           {}
func (KeyDownEvent) isEvent()         {}
func (MouseMoveEvent) isEvent()       {}

func (AppCreateEvent) String() string       { return "AppCreate" }
func (AppDestroyEvent) String() string      { return "AppDestroy" }
func (AppRenderChangeEvent) String() string { return "AppRenderChange" }
func (PaintEvent) String() string           { return "Paint" }
func (CloseEvent) String() string           { return "Close" }

func (e ResizeEvent) String() string {
	return fmt.Sprintf("Resize(%d, %d)", e.Width, e.Height)
}

func (e KeyDownEvent) String() string {
	return fmt.Sprintf("KeyDown(%d)", e.Code)
}

func (e MouseMoveEvent) String() string {
	return fmt.Sprintf("MouseMove(%d, %d)", e.X, e.Y)
}

// IsTerminal reports whether ev ends the dispatch loop.
func IsTerminal(ev Event) bool {
	_, ok := ev.(AppDestroyEvent)
	return ok
}
