package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level is a logging threshold.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name (debug, info, warn, error) to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelDebug, fmt.Errorf("unknown log level %q", s)
	}
}

var (
	out     io.Writer = os.Stderr
	logFile *os.File
	level   = LevelDebug
	mu      sync.Mutex
)

// Init directs log output to the file at path. An empty path logs to stderr.
func Init(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if path == "" {
		out = os.Stderr
		return nil
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	if logFile != nil {
		logFile.Close()
	}
	logFile = f
	out = f
	return nil
}

// SetOutput redirects log output to w. Used by tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

// SetLevel sets the minimum level that is written.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	level = l
}

// Close closes the log file, if any, and falls back to stderr.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	out = os.Stderr
	if logFile != nil {
		err := logFile.Close()
		logFile = nil
		return err
	}
	return nil
}

func write(l Level, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()

	if l < level {
		return
	}

	timestamp := time.Now().Format("15:04:05.000")
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(out, "[%s] %-5s %s\n", timestamp, l, msg)
}

// Log writes a debug message. It is an alias for Debugf.
func Log(format string, args ...any) {
	write(LevelDebug, format, args...)
}

// Debugf writes a message at LevelDebug.
func Debugf(format string, args ...any) { write(LevelDebug, format, args...) }

// Infof writes a message at LevelInfo.
func Infof(format string, args ...any) { write(LevelInfo, format, args...) }

// Warnf writes a message at LevelWarn.
func Warnf(format string, args ...any) { write(LevelWarn, format, args...) }

// Errorf writes a message at LevelError.
func Errorf(format string, args ...any) { write(LevelError, format, args...) }
