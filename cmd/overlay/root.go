package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	overlay "github.com/grindlemire/go-overlay"
	"github.com/grindlemire/go-overlay/internal/app"
	"github.com/grindlemire/go-overlay/internal/config"
	"github.com/grindlemire/go-overlay/internal/debug"
)

const version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:           "overlay",
	Short:         "Animated always-on-top overlay next to the system tray",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runOverlay,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "overlay version %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runOverlay(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := debug.Init(cfg.LogFile); err != nil {
		return err
	}
	defer debug.Close()
	debug.SetLevel(cfg.LogLevel)

	sys, err := windowSystem(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loop := overlay.NewEventLoop()
	timers, err := overlay.NewTimerEngine(loop.Sender(), overlay.WithCeiling(cfg.TimerCeiling))
	if err != nil {
		return err
	}

	a := app.New(timers, app.Options{
		System:        sys,
		Host:          overlay.DefaultHostConfig(),
		Asset:         cfg.Asset,
		PaintInterval: cfg.PaintInterval,
	})

	debug.Infof("overlay %s starting (asset %s)", version, cfg.Asset)
	if err := overlay.Run(ctx, loop, timers, a); err != nil {
		return err
	}
	debug.Infof("overlay stopped")
	return nil
}

// windowSystem picks the native binding, falling back to a headless one
// where none exists.
func windowSystem(cfg *config.Config) (overlay.WindowSystem, error) {
	if cfg.Headless {
		return overlay.NewHeadlessSystem(overlay.DefaultHeadlessAnchor, 96), nil
	}
	sys, err := overlay.NewWindowSystem()
	if errors.Is(err, overlay.ErrUnsupported) {
		debug.Warnf("%v; running headless", err)
		return overlay.NewHeadlessSystem(overlay.DefaultHeadlessAnchor, 96), nil
	}
	return sys, err
}
