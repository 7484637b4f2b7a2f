package overlay

import (
	"fmt"
	"image"
	"sync"
)

// HeadlessSystem is an in-memory WindowSystem. It has no display: messages
// are injected with Post and presented frames are only counted. It backs
// the overlay on platforms without a native binding and serves as the test
// double for the window host.
type HeadlessSystem struct {
	mu         sync.Mutex
	anchor     Anchor
	dpi        uint32
	classes    map[string]bool
	windows    map[WindowHandle]*headlessWindow
	next       WindowHandle
	createErr  error
	anchorErr  error
	pinCount   int
	presented  int
	lastFrame  image.Image
	queueDepth int
}

type headlessWindow struct {
	cfg      WindowConfig
	inbox    chan Message
	released bool
	closing  bool
}

var _ WindowSystem = (*HeadlessSystem)(nil)

// DefaultHeadlessAnchor is a 1920x1080 taskbar notification area.
var DefaultHeadlessAnchor = Anchor{
	Parent: 1,
	Bounds: Rect{X: 1600, Y: 1032, W: 240, H: 48},
}

// NewHeadlessSystem creates a headless system with the given anchor and DPI.
func NewHeadlessSystem(anchor Anchor, dpi uint32) *HeadlessSystem {
	return &HeadlessSystem{
		anchor:     anchor,
		dpi:        dpi,
		classes:    make(map[string]bool),
		windows:    make(map[WindowHandle]*headlessWindow),
		next:       0x1000,
		queueDepth: 1024,
	}
}

// FailCreate makes the next Create calls return err.
func (s *HeadlessSystem) FailCreate(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createErr = err
}

// FailAnchor makes Anchor return err.
func (s *HeadlessSystem) FailAnchor(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.anchorErr = err
}

// Register records class as registered.
func (s *HeadlessSystem) Register(class string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.classes[class] = true
	return nil
}

// Anchor returns the configured anchor, or the error set by FailAnchor.
func (s *HeadlessSystem) Anchor() (Anchor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.anchorErr != nil {
		return Anchor{}, s.anchorErr
	}
	return s.anchor, nil
}

// DPI returns the configured DPI.
func (s *HeadlessSystem) DPI() uint32 {
	return s.dpi
}

// Create allocates a window with an empty message queue. The class must be
// registered first.
func (s *HeadlessSystem) Create(cfg WindowConfig) (WindowHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.createErr != nil {
		return 0, s.createErr
	}
	if !s.classes[cfg.Class] {
		return 0, fmt.Errorf("window class %q not registered", cfg.Class)
	}

	s.next++
	h := s.next
	s.windows[h] = &headlessWindow{
		cfg:   cfg,
		inbox: make(chan Message, s.queueDepth),
	}
	return h, nil
}

// PinTopmost counts the call.
func (s *HeadlessSystem) PinTopmost(h WindowHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.windows[h]; !ok {
		return fmt.Errorf("unknown window %#x", h)
	}
	s.pinCount++
	return nil
}

// Pump delivers queued messages to fn until it returns EndPump.
func (s *HeadlessSystem) Pump(h WindowHandle, fn func(Message) Disposition) error {
	w, err := s.window(h)
	if err != nil {
		return err
	}
	for msg := range w.inbox {
		if fn(msg) == EndPump {
			return nil
		}
	}
	return nil
}

// Release marks the window released. Later posts to it fail.
func (s *HeadlessSystem) Release(h WindowHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok := s.windows[h]; ok {
		w.released = true
	}
}

// RequestClose queues a destroy notification, as destroying a native
// window from its own thread would.
func (s *HeadlessSystem) RequestClose(h WindowHandle) error {
	s.mu.Lock()
	w, ok := s.windows[h]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("unknown window %#x", h)
	}
	if w.closing || w.released {
		s.mu.Unlock()
		return nil
	}
	w.closing = true
	s.mu.Unlock()

	w.inbox <- Message{ID: MsgDestroy}
	return nil
}

// Present counts the frame and keeps it for inspection.
func (s *HeadlessSystem) Present(h WindowHandle, img image.Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.windows[h]; !ok {
		return fmt.Errorf("unknown window %#x", h)
	}
	s.presented++
	s.lastFrame = img
	return nil
}

// Post injects a native message into the window's queue. Posting to a
// released window fails, since nothing pumps it anymore.
func (s *HeadlessSystem) Post(h WindowHandle, msg Message) error {
	s.mu.Lock()
	w, ok := s.windows[h]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("unknown window %#x", h)
	}
	if w.released {
		s.mu.Unlock()
		return fmt.Errorf("window %#x released", h)
	}
	s.mu.Unlock()

	w.inbox <- msg
	return nil
}

// LastHandle returns the most recently created window, or 0.
func (s *HeadlessSystem) LastHandle() WindowHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.windows) == 0 {
		return 0
	}
	return s.next
}

// Config returns the configuration a window was created with.
func (s *HeadlessSystem) Config(h WindowHandle) (WindowConfig, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.windows[h]
	if !ok {
		return WindowConfig{}, false
	}
	return w.cfg, true
}

// Released reports whether Release was called for h.
func (s *HeadlessSystem) Released(h WindowHandle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.windows[h]
	return ok && w.released
}

// Registered reports whether class was registered.
func (s *HeadlessSystem) Registered(class string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.classes[class]
}

// PinCount returns how often a window was pinned top-most.
func (s *HeadlessSystem) PinCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pinCount
}

// Presented returns the number of frames presented and the last one.
func (s *HeadlessSystem) Presented() (int, image.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presented, s.lastFrame
}

func (s *HeadlessSystem) window(h WindowHandle) (*headlessWindow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.windows[h]
	if !ok {
		return nil, fmt.Errorf("unknown window %#x", h)
	}
	return w, nil
}
