package overlay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/grindlemire/go-overlay/internal/debug"
)

const (
	// DefaultTimerCeiling caps each scheduler sleep so that a timer
	// registered during a long sleep is picked up within this bound.
	DefaultTimerCeiling = 330 * time.Millisecond

	// maxTimerWait seeds the minimum-wait computation of each cycle.
	maxTimerWait = time.Second
)

// TimerState is a snapshot of one registered timer.
type TimerState struct {
	Key       Event
	Interval  time.Duration
	LastFired time.Time
	Active    bool
}

// timerRecord is the engine's bookkeeping for one periodic timer.
type timerRecord struct {
	key       Event
	interval  time.Duration
	lastFired time.Time
	active    bool
}

// TimerEngine runs any number of periodic timers on a single goroutine.
// Each due timer sends its key event to the sink.
//
// Timers are keyed by the full Event value, payload included: a timer for
// ResizeEvent{1, 1} and one for ResizeEvent{2, 2} are independent.
type TimerEngine struct {
	sink    EventSink
	ceiling time.Duration
	now     func() time.Time

	mu      sync.Mutex
	records []timerRecord

	// kick wakes a sleeping Run when a timer is started.
	kick chan struct{}
}

// TimerOption configures a TimerEngine.
type TimerOption func(*TimerEngine) error

// WithCeiling sets the upper bound on a single scheduler sleep.
// Default is DefaultTimerCeiling. Must be positive.
func WithCeiling(d time.Duration) TimerOption {
	return func(e *TimerEngine) error {
		if d <= 0 {
			return fmt.Errorf("timer ceiling must be positive, got %v", d)
		}
		e.ceiling = d
		return nil
	}
}

// WithClock replaces time.Now for the engine's bookkeeping.
func WithClock(now func() time.Time) TimerOption {
	return func(e *TimerEngine) error {
		if now == nil {
			return fmt.Errorf("clock must not be nil")
		}
		e.now = now
		return nil
	}
}

// NewTimerEngine creates an engine that sends due events to sink.
// The engine does nothing until Run is called.
func NewTimerEngine(sink EventSink, opts ...TimerOption) (*TimerEngine, error) {
	e := &TimerEngine{
		sink:    sink,
		ceiling: DefaultTimerCeiling,
		now:     time.Now,
		kick:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// StartTimer registers a timer firing ev every interval, or restarts an
// existing one: its interval is replaced, its phase reset to now and it is
// reactivated. A running engine is woken so the new interval takes effect
// without waiting out its current sleep.
func (e *TimerEngine) StartTimer(ev Event, interval time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer e.wake()

	now := e.now()
	if i := e.indexLocked(ev); i >= 0 {
		r := &e.records[i]
		r.interval = interval
		r.lastFired = now
		r.active = true
		return
	}
	e.records = append(e.records, timerRecord{
		key:       ev,
		interval:  interval,
		lastFired: now,
		active:    true,
	})
}

// StopTimer pauses the timer for ev, keeping its record so a later
// StartTimer resumes it. Unknown keys are ignored.
func (e *TimerEngine) StopTimer(ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if i := e.indexLocked(ev); i >= 0 {
		e.records[i].active = false
	}
}

// RemoveTimer deletes the timer for ev. Unknown keys are ignored.
func (e *TimerEngine) RemoveTimer(ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	kept := e.records[:0]
	for _, r := range e.records {
		if r.key != ev {
			kept = append(kept, r)
		}
	}
	for i := len(kept); i < len(e.records); i++ {
		e.records[i] = timerRecord{}
	}
	e.records = kept
}

// Timers returns a snapshot of the registered timers in registration order.
func (e *TimerEngine) Timers() []TimerState {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]TimerState, len(e.records))
	for i, r := range e.records {
		out[i] = TimerState{
			Key:       r.key,
			Interval:  r.interval,
			LastFired: r.lastFired,
			Active:    r.active,
		}
	}
	return out
}

func (e *TimerEngine) wake() {
	select {
	case e.kick <- struct{}{}:
	default:
	}
}

func (e *TimerEngine) indexLocked(ev Event) int {
	for i := range e.records {
		if e.records[i].key == ev {
			return i
		}
	}
	return -1
}

// collect marks every due timer as fired at now and returns the due events
// in record order, along with how long the scheduler may sleep before the
// next timer is due.
func (e *TimerEngine) collect(now time.Time) ([]Event, time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var due []Event
	wait := maxTimerWait
	for i := range e.records {
		r := &e.records[i]
		if !r.active {
			continue
		}
		elapsed := now.Sub(r.lastFired)
		if elapsed >= r.interval {
			due = append(due, r.key)
			r.lastFired = now
			wait = min(wait, r.interval)
		} else {
			wait = min(wait, r.interval-elapsed)
		}
	}
	return due, wait
}

// Run drives the timers until ctx ends. It returns nil on cancellation.
// A closed sink drops the rest of the cycle's events; the loop keeps going.
func (e *TimerEngine) Run(ctx context.Context) error {
	debug.Log("timer engine started")
	defer debug.Log("timer engine stopped")

	for {
		due, wait := e.collect(e.now())

		for _, ev := range due {
			if err := e.sink.Send(ev); err != nil {
				debug.Log("timer engine: dropping %v: %v", ev, err)
				break
			}
		}

		sleep := min(wait, e.ceiling)
		if sleep < 0 {
			sleep = 0
		}
		t := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-e.kick:
			t.Stop()
		case <-t.C:
		}
	}
}
