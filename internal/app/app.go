// Package app is the overlay application: it owns the window host, the
// renderer and the paint timer, and reacts to events on the dispatch
// goroutine.
package app

import (
	"errors"
	"fmt"
	"image"
	"time"

	overlay "github.com/grindlemire/go-overlay"
	"github.com/grindlemire/go-overlay/internal/debug"
	"github.com/grindlemire/go-overlay/pkg/render"
)

// ErrRender marks a frame that failed to load or draw. Render failures are
// logged and the next paint tick tries again.
var ErrRender = errors.New("render failure")

// DefaultPaintInterval is the paint cadence, about 50 frames per second.
const DefaultPaintInterval = 20 * time.Millisecond

// RendererFactory builds the renderer once the window surface exists.
type RendererFactory func(surface render.Surface) render.Renderer

// Options configures an App.
type Options struct {
	System        overlay.WindowSystem
	Host          overlay.HostConfig
	Asset         string
	PaintInterval time.Duration
	NewRenderer   RendererFactory
}

// state is either uninitialized or *running. Only running holds the window
// and renderer, so neither can be used before startup finished.
type state interface {
	isState()
}

type uninitialized struct {
	timers *overlay.TimerEngine
}

type running struct {
	host     *overlay.Host
	renderer render.Renderer
	timers   *overlay.TimerEngine
	size     overlay.ResizeEvent
	painted  int
}

func (uninitialized) isState() {}
func (*running) isState()      {}

// App implements overlay.Handler.
type App struct {
	opts  Options
	state state
}

var (
	_ overlay.Handler = (*App)(nil)
	_ overlay.Stopper = (*App)(nil)
)

// New creates an App that schedules its paint timer on timers.
func New(timers *overlay.TimerEngine, opts Options) *App {
	if opts.PaintInterval <= 0 {
		opts.PaintInterval = DefaultPaintInterval
	}
	if opts.Host.Class == "" {
		opts.Host = overlay.DefaultHostConfig()
	}
	if opts.NewRenderer == nil {
		opts.NewRenderer = func(s render.Surface) render.Renderer {
			return render.NewAnimation(s)
		}
	}
	return &App{
		opts:  opts,
		state: uninitialized{timers: timers},
	}
}

// OnStart creates the window, starts the paint timer and loads the animation.
func (a *App) OnStart(loop *overlay.EventLoop) error {
	st, ok := a.state.(uninitialized)
	if !ok {
		return fmt.Errorf("app already started")
	}
	if a.opts.System == nil {
		return fmt.Errorf("no window system configured")
	}

	host, err := overlay.StartHost(a.opts.System, loop.Sender(), a.opts.Host)
	if err != nil {
		return err
	}

	st.timers.StartTimer(overlay.PaintEvent{}, a.opts.PaintInterval)

	sys, handle := a.opts.System, host.Handle()
	renderer := a.opts.NewRenderer(render.SurfaceFunc(func(img image.Image) error {
		return sys.Present(handle, img)
	}))
	if err := renderer.LoadSource(a.opts.Asset); err != nil {
		debug.Errorf("%v: load %s: %v", ErrRender, a.opts.Asset, err)
	}

	geometry := host.Geometry()
	a.state = &running{
		host:     host,
		renderer: renderer,
		timers:   st.timers,
		size:     overlay.ResizeEvent{Width: uint32(geometry.W), Height: uint32(geometry.H)},
	}

	if err := loop.Post(overlay.AppCreateEvent{}); err != nil {
		debug.Log("app: post %v: %v", overlay.AppCreateEvent{}, err)
	}
	return nil
}

// OnEvent reacts to one event.
func (a *App) OnEvent(loop *overlay.EventLoop, ev overlay.Event) {
	st, ok := a.state.(*running)
	if !ok {
		debug.Warnf("app: %v received before startup", ev)
		return
	}

	switch e := ev.(type) {
	case overlay.PaintEvent:
		if err := a.paint(st, true); err != nil {
			debug.Errorf("%v", err)
		}
	case overlay.AppRenderChangeEvent:
		if err := a.paint(st, false); err != nil {
			debug.Errorf("%v", err)
		}
	case overlay.ResizeEvent:
		debug.Log("app: %v", e)
		st.size = e
		if err := loop.Post(overlay.AppRenderChangeEvent{}); err != nil {
			debug.Log("app: post render change: %v", err)
		}
	case overlay.CloseEvent:
		debug.Infof("app: close requested")
		st.timers.StopTimer(overlay.PaintEvent{})
		if err := st.host.RequestClose(); err != nil {
			debug.Warnf("app: request close: %v", err)
		}
	case overlay.AppDestroyEvent:
		debug.Infof("app: window destroyed")
		st.timers.RemoveTimer(overlay.PaintEvent{})
	default:
		debug.Log("app: %v", ev)
	}
}

// paint draws the current frame and, on paint ticks, moves to the next one.
func (a *App) paint(st *running, advance bool) error {
	if err := st.renderer.RenderFrame(); err != nil {
		return fmt.Errorf("%w: render frame: %w", ErrRender, err)
	}
	st.painted++
	if !advance {
		return nil
	}
	if err := st.renderer.AdvanceFrame(); err != nil {
		return fmt.Errorf("%w: advance frame: %w", ErrRender, err)
	}
	return nil
}

// OnStop closes the window if it is still open and waits for the window
// host to release it.
func (a *App) OnStop() {
	st, ok := a.state.(*running)
	if !ok {
		return
	}
	st.timers.RemoveTimer(overlay.PaintEvent{})
	if err := st.host.RequestClose(); err != nil {
		debug.Log("app: request close: %v", err)
	}
	if err := st.host.Wait(); err != nil {
		debug.Errorf("app: window host: %v", err)
	}
}

// Running reports whether startup completed.
func (a *App) Running() bool {
	_, ok := a.state.(*running)
	return ok
}

// Painted returns how many frames were drawn successfully.
func (a *App) Painted() int {
	if st, ok := a.state.(*running); ok {
		return st.painted
	}
	return 0
}

// Size returns the last known window size.
func (a *App) Size() overlay.ResizeEvent {
	if st, ok := a.state.(*running); ok {
		return st.size
	}
	return overlay.ResizeEvent{}
}

// Host returns the window host, or nil before startup.
func (a *App) Host() *overlay.Host {
	if st, ok := a.state.(*running); ok {
		return st.host
	}
	return nil
}
