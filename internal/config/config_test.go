package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/grindlemire/go-overlay/internal/debug"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, Default(), *cfg)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("OVERLAY_ASSET", "/tmp/cat.gif")
	t.Setenv("OVERLAY_PAINT_INTERVAL", "40ms")
	t.Setenv("OVERLAY_TIMER_CEILING", "100ms")
	t.Setenv("OVERLAY_LOG_FILE", "/tmp/overlay.log")
	t.Setenv("OVERLAY_LOG_LEVEL", "warn")
	t.Setenv("OVERLAY_HEADLESS", "true")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "/tmp/cat.gif", cfg.Asset)
	require.Equal(t, 40*time.Millisecond, cfg.PaintInterval)
	require.Equal(t, 100*time.Millisecond, cfg.TimerCeiling)
	require.Equal(t, "/tmp/overlay.log", cfg.LogFile)
	require.Equal(t, debug.LevelWarn, cfg.LogLevel)
	require.True(t, cfg.Headless)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"zero paint interval", "OVERLAY_PAINT_INTERVAL", "0s"},
		{"negative ceiling", "OVERLAY_TIMER_CEILING", "-1s"},
		{"unknown level", "OVERLAY_LOG_LEVEL", "chatty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			require.Error(t, err)
		})
	}
}
