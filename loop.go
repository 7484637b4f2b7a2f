package overlay

import (
	"context"
	"errors"
	"fmt"

	"github.com/grindlemire/go-overlay/internal/debug"
)

// Handler is the application logic driven by an EventLoop.
// Both methods run on the dispatch goroutine and never concurrently.
type Handler interface {
	// OnStart runs once before any event is delivered. A non-nil error
	// aborts the loop with ErrStartup.
	OnStart(loop *EventLoop) error

	// OnEvent receives every event in channel order.
	OnEvent(loop *EventLoop, ev Event)
}

// Stopper is implemented by handlers that need to release resources on the
// dispatch goroutine when the loop ends.
type Stopper interface {
	OnStop()
}

// EventLoop is the single consumer of the event channel.
type EventLoop struct {
	ch *Channel
}

// NewEventLoop creates a loop with a fresh, empty channel.
func NewEventLoop() *EventLoop {
	return &EventLoop{ch: NewChannel()}
}

// Sender returns a producer handle for the loop's channel.
func (l *EventLoop) Sender() Sender {
	return l.ch.Sender()
}

// Post enqueues an application command. Safe to call from any goroutine,
// including the handler itself; the event is delivered after those already
// queued.
func (l *EventLoop) Post(ev Event) error {
	return l.ch.send(ev)
}

// TryRecv removes the next queued event without blocking. It is meant for
// draining the queue outside Run.
func (l *EventLoop) TryRecv() (Event, bool) {
	return l.ch.TryRecv()
}

// Close closes the channel. Events already queued are still delivered;
// after that Run returns.
func (l *EventLoop) Close() {
	l.ch.Close()
}

// Run calls h.OnStart once, then delivers events to h.OnEvent one at a time
// until a terminal event has been delivered, ctx ends, or the channel is
// closed and drained. Events sent before Run starts simply wait in the queue.
func (l *EventLoop) Run(ctx context.Context, h Handler) error {
	if s, ok := h.(Stopper); ok {
		defer s.OnStop()
	}

	if err := h.OnStart(l); err != nil {
		return fmt.Errorf("%w: %w", ErrStartup, err)
	}

	for {
		ev, err := l.ch.Recv(ctx)
		if err != nil {
			if errors.Is(err, ErrChannelClosed) {
				debug.Log("event loop: channel closed")
			}
			return nil
		}

		h.OnEvent(l, ev)

		if IsTerminal(ev) {
			debug.Log("event loop: %v delivered, stopping", ev)
			return nil
		}
	}
}
