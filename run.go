package overlay

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Run drives the timer engine and the event loop together. It blocks until
// the loop returns, then cancels the timer goroutine and waits for it.
// The window host is started by the handler from OnStart and joined from
// its OnStop.
func Run(ctx context.Context, loop *EventLoop, timers *TimerEngine, h Handler) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return timers.Run(ctx)
	})
	g.Go(func() error {
		defer cancel()
		return loop.Run(ctx, h)
	})
	return g.Wait()
}
