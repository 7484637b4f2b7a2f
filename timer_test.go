package overlay

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// recordSink collects sent events with their arrival time.
type recordSink struct {
	mu     sync.Mutex
	events []Event
	times  []time.Time
	err    error
	sends  int
}

func (s *recordSink) Send(ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sends++
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, ev)
	s.times = append(s.times, time.Now())
	return nil
}

func (s *recordSink) count(ev Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.events {
		if e == ev {
			n++
		}
	}
	return n
}

func (s *recordSink) first(ev Event) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.events {
		if e == ev {
			return s.times[i], true
		}
	}
	return time.Time{}, false
}

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

func newTestEngine(t *testing.T, sink EventSink, opts ...TimerOption) *TimerEngine {
	t.Helper()
	e, err := NewTimerEngine(sink, opts...)
	if err != nil {
		t.Fatalf("NewTimerEngine() error = %v", err)
	}
	return e
}

func TestNewTimerEngine_Options(t *testing.T) {
	if _, err := NewTimerEngine(&recordSink{}, WithCeiling(0)); err == nil {
		t.Error("WithCeiling(0) should fail")
	}
	if _, err := NewTimerEngine(&recordSink{}, WithClock(nil)); err == nil {
		t.Error("WithClock(nil) should fail")
	}

	e := newTestEngine(t, &recordSink{}, WithCeiling(50*time.Millisecond))
	if e.ceiling != 50*time.Millisecond {
		t.Errorf("ceiling = %v, want 50ms", e.ceiling)
	}
	if d := newTestEngine(t, &recordSink{}); d.ceiling != DefaultTimerCeiling {
		t.Errorf("default ceiling = %v, want %v", d.ceiling, DefaultTimerCeiling)
	}
}

func TestTimerEngine_StartStopRemove(t *testing.T) {
	clock := newFakeClock()
	e := newTestEngine(t, &recordSink{}, WithClock(clock.Now))

	e.StartTimer(PaintEvent{}, 20*time.Millisecond)
	e.StartTimer(CloseEvent{}, time.Second)

	timers := e.Timers()
	if len(timers) != 2 {
		t.Fatalf("len(Timers()) = %d, want 2", len(timers))
	}
	if timers[0].Key != (PaintEvent{}) || !timers[0].Active || timers[0].Interval != 20*time.Millisecond {
		t.Errorf("Timers()[0] = %+v, want active Paint every 20ms", timers[0])
	}

	e.StopTimer(PaintEvent{})
	if e.Timers()[0].Active {
		t.Error("StopTimer() should deactivate the timer")
	}
	if len(e.Timers()) != 2 {
		t.Error("StopTimer() should keep the record")
	}

	// Restart resets the phase and interval.
	later := clock.Advance(time.Minute)
	e.StartTimer(PaintEvent{}, 40*time.Millisecond)
	got := e.Timers()[0]
	if !got.Active || got.Interval != 40*time.Millisecond || !got.LastFired.Equal(later) {
		t.Errorf("restarted timer = %+v, want active, 40ms, lastFired=%v", got, later)
	}

	e.RemoveTimer(PaintEvent{})
	timers = e.Timers()
	if len(timers) != 1 || timers[0].Key != (CloseEvent{}) {
		t.Errorf("Timers() after RemoveTimer = %+v, want only Close", timers)
	}

	// Unknown keys are ignored.
	e.StopTimer(KeyDownEvent{Code: 1})
	e.RemoveTimer(KeyDownEvent{Code: 1})
	if len(e.Timers()) != 1 {
		t.Errorf("unknown key changed the timer set: %+v", e.Timers())
	}
}

func TestTimerEngine_Collect(t *testing.T) {
	clock := newFakeClock()
	e := newTestEngine(t, &recordSink{}, WithClock(clock.Now))

	e.StartTimer(PaintEvent{}, 20*time.Millisecond)
	e.StartTimer(AppRenderChangeEvent{}, 50*time.Millisecond)

	due, wait := e.collect(clock.Advance(5 * time.Millisecond))
	if len(due) != 0 {
		t.Errorf("collect() at 5ms due = %v, want none", due)
	}
	if wait != 15*time.Millisecond {
		t.Errorf("collect() at 5ms wait = %v, want 15ms", wait)
	}

	due, wait = e.collect(clock.Advance(15 * time.Millisecond))
	if len(due) != 1 || due[0] != (PaintEvent{}) {
		t.Errorf("collect() at 20ms due = %v, want [Paint]", due)
	}
	if wait != 20*time.Millisecond {
		t.Errorf("collect() at 20ms wait = %v, want 20ms", wait)
	}

	// Both due: record order is kept.
	due, _ = e.collect(clock.Advance(30 * time.Millisecond))
	if len(due) != 2 || due[0] != (PaintEvent{}) || due[1] != (AppRenderChangeEvent{}) {
		t.Errorf("collect() at 50ms due = %v, want [Paint AppRenderChange]", due)
	}

	// Inactive timers are skipped and do not shorten the wait.
	e.StopTimer(PaintEvent{})
	due, wait = e.collect(clock.Advance(10 * time.Millisecond))
	if len(due) != 0 {
		t.Errorf("collect() after stop due = %v, want none", due)
	}
	if wait != 40*time.Millisecond {
		t.Errorf("collect() after stop wait = %v, want 40ms", wait)
	}
}

func TestTimerEngine_CollectEmptyWait(t *testing.T) {
	e := newTestEngine(t, &recordSink{})
	due, wait := e.collect(time.Now())
	if len(due) != 0 || wait != maxTimerWait {
		t.Errorf("collect() on empty engine = %v, %v; want none, %v", due, wait, maxTimerWait)
	}
}

// Timers keyed by payload-bearing events are distinct per payload.
func TestTimerEngine_PayloadKeying(t *testing.T) {
	clock := newFakeClock()
	e := newTestEngine(t, &recordSink{}, WithClock(clock.Now))

	e.StartTimer(ResizeEvent{1, 1}, 10*time.Millisecond)
	e.StartTimer(ResizeEvent{2, 2}, 10*time.Millisecond)
	if len(e.Timers()) != 2 {
		t.Fatalf("len(Timers()) = %d, want 2 independent timers", len(e.Timers()))
	}

	e.StopTimer(ResizeEvent{1, 1})
	due, _ := e.collect(clock.Advance(10 * time.Millisecond))
	if len(due) != 1 || due[0] != (ResizeEvent{2, 2}) {
		t.Errorf("due = %v, want only Resize(2, 2)", due)
	}
}

func TestTimerEngine_FiresWithinCeiling(t *testing.T) {
	sink := &recordSink{}
	const ceiling = 50 * time.Millisecond
	const interval = 30 * time.Millisecond
	e := newTestEngine(t, sink, WithCeiling(ceiling))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.Run(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	// Let the engine settle into a ceiling-length sleep first.
	time.Sleep(10 * time.Millisecond)
	registered := time.Now()
	e.StartTimer(PaintEvent{}, interval)

	time.Sleep(interval + ceiling + 50*time.Millisecond)

	first, ok := sink.first(PaintEvent{})
	if !ok {
		t.Fatal("timer never fired")
	}
	latency := first.Sub(registered)
	if latency < interval {
		t.Errorf("first firing after %v, want at least %v", latency, interval)
	}
	if latency > interval+ceiling+20*time.Millisecond {
		t.Errorf("first firing after %v, want at most %v", latency, interval+ceiling)
	}
}

func TestTimerEngine_StartWakesSleepingEngine(t *testing.T) {
	sink := &recordSink{}
	e := newTestEngine(t, sink)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.Run(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	// The first cycle sees no timers and sleeps for the full default ceiling.
	time.Sleep(5 * time.Millisecond)
	e.StartTimer(PaintEvent{}, 20*time.Millisecond)
	time.Sleep(100 * time.Millisecond)

	if got := sink.count(PaintEvent{}); got < 4 {
		t.Errorf("Paint fired %d times in 100ms at a 20ms interval, want at least 4", got)
	}
}

func TestTimerEngine_StopEndsFiring(t *testing.T) {
	sink := &recordSink{}
	e := newTestEngine(t, sink, WithCeiling(20*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.Run(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	e.StartTimer(PaintEvent{}, 10*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	if sink.count(PaintEvent{}) == 0 {
		t.Fatal("timer never fired")
	}

	e.StopTimer(PaintEvent{})
	// A cycle already past its bookkeeping may still deliver.
	time.Sleep(20 * time.Millisecond)
	stopped := sink.count(PaintEvent{})

	time.Sleep(100 * time.Millisecond)
	if got := sink.count(PaintEvent{}); got != stopped {
		t.Errorf("timer fired %d more times after StopTimer", got-stopped)
	}
}

func TestTimerEngine_ClosedSinkKeepsRunning(t *testing.T) {
	sink := &recordSink{err: ErrChannelClosed}
	e := newTestEngine(t, sink, WithCeiling(10*time.Millisecond))
	e.StartTimer(PaintEvent{}, 5*time.Millisecond)
	e.StartTimer(CloseEvent{}, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()
	if err := e.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}

	sink.mu.Lock()
	sends := sink.sends
	sink.mu.Unlock()
	if sends < 2 {
		t.Errorf("sends = %d, want the loop to keep trying across cycles", sends)
	}
}

func TestTimerEngine_RunStopsOnCancel(t *testing.T) {
	e := newTestEngine(t, &recordSink{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

// timerModel is the reference model for the timer set: records in
// registration order.
type timerModel struct {
	key    Event
	active bool
}

var propertyKeys = []Event{
	PaintEvent{},
	ResizeEvent{1, 1},
	ResizeEvent{2, 2},
	KeyDownEvent{Code: 7},
}

func TestTimerEngine_PropertyTimerSetMatchesModel(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("timer set equals the model after any command sequence", prop.ForAll(
		func(ops []int) bool {
			e, _ := NewTimerEngine(&recordSink{})
			var model []timerModel

			find := func(key Event) int {
				for i := range model {
					if model[i].key == key {
						return i
					}
				}
				return -1
			}

			for _, op := range ops {
				key := propertyKeys[op%len(propertyKeys)]
				switch op / len(propertyKeys) {
				case 0:
					e.StartTimer(key, time.Second)
					if i := find(key); i >= 0 {
						model[i].active = true
					} else {
						model = append(model, timerModel{key: key, active: true})
					}
				case 1:
					e.StopTimer(key)
					if i := find(key); i >= 0 {
						model[i].active = false
					}
				case 2:
					e.RemoveTimer(key)
					if i := find(key); i >= 0 {
						model = append(model[:i], model[i+1:]...)
					}
				}
			}

			got := e.Timers()
			if len(got) != len(model) {
				return false
			}
			for i := range model {
				if got[i].Key != model[i].key || got[i].Active != model[i].active {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 3*len(propertyKeys)-1)),
	))

	properties.Property("stopping one payload key never affects another", prop.ForAll(
		func(w1, h1, w2, h2 uint32) bool {
			a := ResizeEvent{Width: w1, Height: h1}
			b := ResizeEvent{Width: w2, Height: h2}
			if a == b {
				return true
			}

			clock := newFakeClock()
			e, _ := NewTimerEngine(&recordSink{}, WithClock(clock.Now))
			e.StartTimer(a, time.Millisecond)
			e.StartTimer(b, time.Millisecond)
			e.StopTimer(a)

			due, _ := e.collect(clock.Advance(time.Millisecond))
			return len(due) == 1 && due[0] == b
		},
		gen.UInt32Range(0, 4),
		gen.UInt32Range(0, 4),
		gen.UInt32Range(0, 4),
		gen.UInt32Range(0, 4),
	))

	properties.TestingRun(t)
}
