package overlay

import "errors"

var (
	// ErrStartup marks failures that prevent the overlay from starting:
	// the window or the renderer could not be created. They are fatal.
	ErrStartup = errors.New("startup failure")

	// ErrChannelClosed is returned by Send and Recv once the event channel
	// has been closed. Producers drop their event and carry on.
	ErrChannelClosed = errors.New("event channel closed")

	// ErrUnsupported is returned when no native window system exists on
	// the current platform.
	ErrUnsupported = errors.New("native overlay window not supported on this platform")
)
