package contract

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/huangsam/commitmap/schema"
)

// ParseLogLevel maps a level name to a slog level.
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level '%s'. must be debug, info, warn, error", level)
	}
}

// DailyLogFile returns <dir>/<YYYY-MM-DD>.log for the given day.
func DailyLogFile(dir string, day time.Time) string {
	return filepath.Join(dir, day.Format(time.DateOnly)+".log")
}

// NewLogger builds a slog logger writing to w in the given format.
func NewLogger(w io.Writer, level slog.Level, format schema.LogFormat) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == schema.JSONLog {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// SetupLogger installs the default logger. Output goes to stderr and, when logDir is set,
// is also appended to a dated file in that directory. The returned func closes the file.
func SetupLogger(level slog.Level, format schema.LogFormat, logDir string) (func(), error) {
	var w io.Writer = os.Stderr
	closeFn := func() {}

	if logDir != "" {
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return closeFn, fmt.Errorf("failed to create log directory %q: %w", logDir, err)
		}
		name := DailyLogFile(logDir, time.Now())
		f, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return closeFn, fmt.Errorf("failed to open log file %q: %w", name, err)
		}
		w = io.MultiWriter(os.Stderr, f)
		closeFn = func() { _ = f.Close() }
	}

	slog.SetDefault(NewLogger(w, level, format))
	return closeFn, nil
}
