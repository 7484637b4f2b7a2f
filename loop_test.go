package overlay

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// recordHandler records every callback in the order it happened.
type recordHandler struct {
	mu       sync.Mutex
	calls    []string
	events   []Event
	startErr error
	onStart  func(loop *EventLoop)
	onEvent  func(loop *EventLoop, ev Event)
	stopped  int
	inFlight int
	overlap  bool
}

func (h *recordHandler) enter() {
	h.mu.Lock()
	h.inFlight++
	if h.inFlight > 1 {
		h.overlap = true
	}
	h.mu.Unlock()
}

func (h *recordHandler) exit() {
	h.mu.Lock()
	h.inFlight--
	h.mu.Unlock()
}

func (h *recordHandler) OnStart(loop *EventLoop) error {
	h.enter()
	defer h.exit()

	h.mu.Lock()
	h.calls = append(h.calls, "start")
	h.mu.Unlock()

	if h.onStart != nil {
		h.onStart(loop)
	}
	return h.startErr
}

func (h *recordHandler) OnEvent(loop *EventLoop, ev Event) {
	h.enter()
	defer h.exit()

	h.mu.Lock()
	h.calls = append(h.calls, "event")
	h.events = append(h.events, ev)
	h.mu.Unlock()

	if h.onEvent != nil {
		h.onEvent(loop, ev)
	}
}

func (h *recordHandler) OnStop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopped++
}

func (h *recordHandler) snapshot() []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Event(nil), h.events...)
}

func TestEventLoop_StartBeforeQueuedEvents(t *testing.T) {
	loop := NewEventLoop()
	s := loop.Sender()
	require.NoError(t, s.Send(KeyDownEvent{Code: 1}))
	require.NoError(t, s.Send(KeyDownEvent{Code: 2}))
	require.NoError(t, s.Send(AppDestroyEvent{}))

	h := &recordHandler{}
	require.NoError(t, loop.Run(context.Background(), h))

	require.Equal(t, []string{"start", "event", "event", "event"}, h.calls)
	require.Equal(t, []Event{KeyDownEvent{Code: 1}, KeyDownEvent{Code: 2}, AppDestroyEvent{}}, h.events)
	require.Equal(t, 1, h.stopped)
}

func TestEventLoop_StopsAfterTerminalEvent(t *testing.T) {
	loop := NewEventLoop()
	s := loop.Sender()
	s.Send(PaintEvent{})
	s.Send(AppDestroyEvent{})
	s.Send(PaintEvent{})

	h := &recordHandler{}
	require.NoError(t, loop.Run(context.Background(), h))

	require.Equal(t, []Event{PaintEvent{}, AppDestroyEvent{}}, h.events)
	require.Equal(t, 1, loop.ch.Len(), "events after the terminal event stay queued")
}

func TestEventLoop_StartupFailure(t *testing.T) {
	loop := NewEventLoop()
	loop.Sender().Send(PaintEvent{})

	boom := errors.New("no window")
	h := &recordHandler{startErr: boom}
	err := loop.Run(context.Background(), h)

	require.ErrorIs(t, err, ErrStartup)
	require.ErrorIs(t, err, boom)
	require.Empty(t, h.events, "no event may be delivered after a failed start")
	require.Equal(t, 1, h.stopped)
}

func TestEventLoop_ContextCancel(t *testing.T) {
	loop := NewEventLoop()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx, &recordHandler{}) }()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestEventLoop_CloseDrains(t *testing.T) {
	loop := NewEventLoop()
	loop.Sender().Send(CloseEvent{})
	loop.Close()

	h := &recordHandler{}
	require.NoError(t, loop.Run(context.Background(), h))
	require.Equal(t, []Event{CloseEvent{}}, h.events)
	require.ErrorIs(t, loop.Post(PaintEvent{}), ErrChannelClosed)
}

func TestEventLoop_PostFromHandler(t *testing.T) {
	loop := NewEventLoop()
	h := &recordHandler{
		onStart: func(l *EventLoop) {
			l.Post(AppCreateEvent{})
		},
		onEvent: func(l *EventLoop, ev Event) {
			if _, ok := ev.(ResizeEvent); ok {
				l.Post(AppRenderChangeEvent{})
				l.Post(AppDestroyEvent{})
			}
		},
	}
	loop.Sender().Send(ResizeEvent{10, 20})

	require.NoError(t, loop.Run(context.Background(), h))
	require.Equal(t, []Event{
		ResizeEvent{10, 20},
		AppCreateEvent{},
		AppRenderChangeEvent{},
		AppDestroyEvent{},
	}, h.events)
}

// Concurrent producers: each producer's order is preserved and the handler
// never runs concurrently with itself.
func TestEventLoop_SerialDeliveryAcrossProducers(t *testing.T) {
	loop := NewEventLoop()
	const perProducer = 200

	var wg sync.WaitGroup
	h := &recordHandler{
		onStart: func(l *EventLoop) {
			for p := int32(0); p < 3; p++ {
				s := l.Sender()
				wg.Add(1)
				go func(p int32) {
					defer wg.Done()
					for i := int32(0); i < perProducer; i++ {
						s.Send(MouseMoveEvent{X: p, Y: i})
					}
				}(p)
			}
			go func() {
				wg.Wait()
				l.Post(AppDestroyEvent{})
			}()
		},
	}

	require.NoError(t, loop.Run(context.Background(), h))
	require.False(t, h.overlap, "handler ran concurrently with itself")

	events := h.snapshot()
	require.Len(t, events, 3*perProducer+1)

	next := map[int32]int32{}
	for _, ev := range events[:len(events)-1] {
		mm := ev.(MouseMoveEvent)
		require.Equal(t, next[mm.X], mm.Y, "producer %d out of order", mm.X)
		next[mm.X]++
	}
}
