package overlay

import (
	"context"
	"sync"
)

// EventSink accepts events from a producer. Sender implements it.
type EventSink interface {
	Send(ev Event) error
}

// Channel is an unbounded FIFO of events with many producers and one consumer.
// Producers hold Sender values; the consumer calls Recv.
type Channel struct {
	mu     sync.Mutex
	queue  []Event
	closed bool

	// notify holds at most one pending wake-up for the consumer.
	notify chan struct{}
}

// NewChannel creates an empty, open channel.
func NewChannel() *Channel {
	return &Channel{
		notify: make(chan struct{}, 1),
	}
}

// Sender returns a producer handle. Sender values may be copied freely;
// every copy feeds the same queue.
func (c *Channel) Sender() Sender {
	return Sender{ch: c}
}

// send appends ev to the queue and wakes the consumer.
func (c *Channel) send(ev Event) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrChannelClosed
	}
	c.queue = append(c.queue, ev)
	c.mu.Unlock()

	select {
	case c.notify <- struct{}{}:
	default:
		// A wake-up is already pending.
	}
	return nil
}

// Recv blocks until an event is available and returns it.
// Queued events are still delivered after Close; once the queue is drained
// Recv returns ErrChannelClosed. It returns ctx.Err() if ctx ends first.
func (c *Channel) Recv(ctx context.Context) (Event, error) {
	for {
		c.mu.Lock()
		if len(c.queue) > 0 {
			ev := c.queue[0]
			c.queue[0] = nil
			c.queue = c.queue[1:]
			c.mu.Unlock()
			return ev, nil
		}
		closed := c.closed
		c.mu.Unlock()

		if closed {
			return nil, ErrChannelClosed
		}

		select {
		case <-c.notify:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// TryRecv returns the next event without blocking.
func (c *Channel) TryRecv() (Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.queue) == 0 {
		return nil, false
	}
	ev := c.queue[0]
	c.queue[0] = nil
	c.queue = c.queue[1:]
	return ev, true
}

// Len returns the number of queued events.
func (c *Channel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Close stops accepting events. It is idempotent.
func (c *Channel) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	select {
	case c.notify <- struct{}{}:
	default:
	}
}

// Sender is the producer side of a Channel.
type Sender struct {
	ch *Channel
}

var _ EventSink = Sender{}

// Send enqueues ev. It never blocks beyond queue admission and returns
// ErrChannelClosed if the consumer side has been closed.
func (s Sender) Send(ev Event) error {
	if s.ch == nil {
		return ErrChannelClosed
	}
	return s.ch.send(ev)
}
