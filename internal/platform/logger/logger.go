package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/phrazzld/users-qa/internal/ciutil"
	"github.com/phrazzld/users-qa/internal/config"
)

// Setup initializes the harness logging system from cfg. It creates a
// structured JSON logger writing to stderr, wraps it in a CIHandler when
// running under CI and installs it as the slog default. Stdout is left to
// the scenario report.
func Setup(cfg config.LogConfig) (*slog.Logger, error) {
	logger := New(os.Stderr, cfg)
	slog.SetDefault(logger)
	return logger, nil
}

// New builds a logger writing JSON to out without touching the slog default.
func New(out io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var handler slog.Handler
	if ciutil.IsCI() {
		handler = NewCIHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}
	return slog.New(handler)
}

// ParseLevel maps a configured level name to a slog.Level (case-insensitive).
// Unknown names fall back to info with a warning on stderr.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		tmpLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		tmpLogger.Warn("invalid log level configured, using default level",
			"configured_level", name,
			"default_level", "info")
		return slog.LevelInfo
	}
}

// Component returns base tagged with a component attribute. A nil base
// means slog.Default().
func Component(base *slog.Logger, name string) *slog.Logger {
	if base == nil {
		base = slog.Default()
	}
	return base.With(slog.String("component", name))
}
