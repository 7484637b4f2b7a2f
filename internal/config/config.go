// Package config loads overlay settings from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/grindlemire/go-overlay/internal/debug"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "OVERLAY"

// Config holds the runtime settings of the overlay.
type Config struct {
	// Asset is the path of the animation to display.
	Asset string
	// PaintInterval is the paint timer cadence.
	PaintInterval time.Duration
	// TimerCeiling bounds a single timer engine sleep.
	TimerCeiling time.Duration
	// LogFile is the log destination; empty logs to stderr.
	LogFile string
	// LogLevel is the minimum level logged.
	LogLevel debug.Level
	// Headless forces the in-memory window system.
	Headless bool
}

// Default returns the settings used when no environment variable is set.
func Default() Config {
	return Config{
		Asset:         "resources/gif/cat-rainbow.gif",
		PaintInterval: 20 * time.Millisecond,
		TimerCeiling:  330 * time.Millisecond,
		LogLevel:      debug.LevelDebug,
	}
}

// Load reads OVERLAY_* environment variables over the defaults.
// There is no config file and no flag layer.
func Load() (*Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("asset", def.Asset)
	v.SetDefault("paint_interval", def.PaintInterval.String())
	v.SetDefault("timer_ceiling", def.TimerCeiling.String())
	v.SetDefault("log_file", "")
	v.SetDefault("log_level", "debug")
	v.SetDefault("headless", false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	level, err := debug.ParseLevel(v.GetString("log_level"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Asset:         v.GetString("asset"),
		PaintInterval: v.GetDuration("paint_interval"),
		TimerCeiling:  v.GetDuration("timer_ceiling"),
		LogFile:       v.GetString("log_file"),
		LogLevel:      level,
		Headless:      v.GetBool("headless"),
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Asset == "" {
		return fmt.Errorf("asset path must not be empty")
	}
	if cfg.PaintInterval <= 0 {
		return fmt.Errorf("paint_interval must be positive, got %v", cfg.PaintInterval)
	}
	if cfg.TimerCeiling <= 0 {
		return fmt.Errorf("timer_ceiling must be positive, got %v", cfg.TimerCeiling)
	}
	return nil
}
