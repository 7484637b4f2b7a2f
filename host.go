package overlay

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/grindlemire/go-overlay/internal/debug"
)

// HostState is the lifecycle state of a window host.
type HostState int32

const (
	HostUninitialized HostState = iota
	HostCreating
	HostPumping
	HostDestroyed
)

func (s HostState) String() string {
	switch s {
	case HostUninitialized:
		return "Uninitialized"
	case HostCreating:
		return "Creating"
	case HostPumping:
		return "Pumping"
	case HostDestroyed:
		return "Destroyed"
	default:
		return fmt.Sprintf("HostState(%d)", int32(s))
	}
}

// HostConfig configures the native window created by the host.
type HostConfig struct {
	Class string
	Title string
}

// DefaultHostConfig returns the class and title used by the overlay.
func DefaultHostConfig() HostConfig {
	return HostConfig{Class: ClassName, Title: "go-overlay"}
}

// handoff is the one value sent from the host goroutine once the window exists.
type handoff struct {
	handle   WindowHandle
	parent   WindowHandle
	geometry Rect
}

// Host owns the native window. The window is created, pumped and destroyed
// on one dedicated goroutine locked to its OS thread; other goroutines only
// see the copyable handle.
type Host struct {
	sys  WindowSystem
	sink EventSink
	cfg  HostConfig

	handle   WindowHandle
	parent   WindowHandle
	geometry Rect

	state        atomic.Int32
	sentTerminal bool // host goroutine only
	done         chan struct{}
	err          error
}

// StartHost starts the window host goroutine and blocks until it has created
// the window and handed back its handle. Translated window events are sent
// to sink. If the window cannot be created StartHost returns an error
// wrapping ErrStartup.
func StartHost(sys WindowSystem, sink EventSink, cfg HostConfig) (*Host, error) {
	if cfg.Class == "" {
		cfg.Class = ClassName
	}

	h := &Host{
		sys:  sys,
		sink: sink,
		cfg:  cfg,
		done: make(chan struct{}),
	}

	ready := make(chan handoff, 1)
	go h.run(ready)

	// The only receive on ready. A closed channel means the goroutine gave
	// up before creating the window.
	ho, ok := <-ready
	if !ok {
		<-h.done
		return nil, fmt.Errorf("%w: window host: %w", ErrStartup, h.err)
	}

	debug.Log("window host ready: handle=%#x geometry=%+v", ho.handle, ho.geometry)
	return h, nil
}

// Handle returns the window handle.
func (h *Host) Handle() WindowHandle { return h.handle }

// Parent returns the handle of the window containing the anchor.
func (h *Host) Parent() WindowHandle { return h.parent }

// Geometry returns the window rectangle computed at startup.
func (h *Host) Geometry() Rect { return h.geometry }

// State returns the current lifecycle state.
func (h *Host) State() HostState { return HostState(h.state.Load()) }

// Done is closed once the message pump ended and the window was released.
func (h *Host) Done() <-chan struct{} { return h.done }

// RequestClose asks the window to destroy itself. The host then emits
// AppDestroyEvent and stops. Safe to call from any goroutine and more than once.
func (h *Host) RequestClose() error {
	if h.State() != HostPumping {
		return nil
	}
	return h.sys.RequestClose(h.handle)
}

// Wait blocks until the host goroutine finished and returns the pump error.
func (h *Host) Wait() error {
	<-h.done
	return h.err
}

func (h *Host) setState(s HostState) {
	h.state.Store(int32(s))
}

func (h *Host) run(ready chan<- handoff) {
	// Native windows belong to the thread that created them.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(h.done)

	h.setState(HostCreating)
	ho, err := h.create()
	if err != nil {
		h.err = err
		h.setState(HostDestroyed)
		close(ready)
		return
	}

	h.handle = ho.handle
	h.parent = ho.parent
	h.geometry = ho.geometry
	h.setState(HostPumping)
	ready <- ho

	h.err = h.sys.Pump(ho.handle, h.handleMessage)
	if h.err != nil {
		debug.Errorf("window host: message pump: %v", h.err)
	}

	if !h.sentTerminal {
		// The platform ended the loop without a destroy notification.
		h.emit(AppDestroyEvent{})
	}
	h.sys.Release(ho.handle)
	h.setState(HostDestroyed)
	debug.Log("window host destroyed")
}

func (h *Host) create() (handoff, error) {
	if err := h.sys.Register(h.cfg.Class); err != nil {
		return handoff{}, fmt.Errorf("register class %q: %w", h.cfg.Class, err)
	}

	anchor, err := h.sys.Anchor()
	if err != nil {
		return handoff{}, fmt.Errorf("locate tray anchor: %w", err)
	}

	geometry := ComputeGeometry(anchor.Bounds, h.sys.DPI())
	handle, err := h.sys.Create(WindowConfig{
		Class:  h.cfg.Class,
		Title:  h.cfg.Title,
		Bounds: geometry,
		Style:  OverlayStyle,
	})
	if err != nil {
		return handoff{}, fmt.Errorf("create window: %w", err)
	}

	if err := h.sys.PinTopmost(handle); err != nil {
		debug.Warnf("window host: pin topmost: %v", err)
	}

	return handoff{handle: handle, parent: anchor.Parent, geometry: geometry}, nil
}

// handleMessage runs on the host goroutine for every native message.
func (h *Host) handleMessage(msg Message) Disposition {
	ev, ok := Translate(msg)
	if !ok {
		if err := h.sys.PinTopmost(h.handle); err != nil {
			debug.Log("window host: pin topmost: %v", err)
		}
		return PassThrough
	}

	h.emit(ev)
	if IsTerminal(ev) {
		return EndPump
	}
	return Consumed
}

func (h *Host) emit(ev Event) {
	if IsTerminal(ev) {
		h.sentTerminal = true
	}
	if err := h.sink.Send(ev); err != nil {
		debug.Log("window host: dropping %v: %v", ev, err)
	}
}
