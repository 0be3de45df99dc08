package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewLogger builds a JSON slog logger tagged with service and env
func NewLogger(level, serviceName, env string) *slog.Logger {
	return newLogger(os.Stdout, level, serviceName, env)
}

func newLogger(w io.Writer, level, serviceName, env string) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
	return slog.New(h).With(
		slog.String("service", serviceName),
		slog.String("env", env),
	)
}

// ParseLevel maps a config level name to a slog level, defaulting to info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Adapter exposes a slog logger through printf style methods. Without
// arguments the format is logged as is.
type Adapter struct {
	logger *slog.Logger
}

func NewAdapter(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{logger: logger}
}

// Slog returns the wrapped logger
func (a *Adapter) Slog() *slog.Logger {
	return a.logger
}

func (a *Adapter) Debug(format string, args ...any) { a.log(slog.LevelDebug, format, args...) }
func (a *Adapter) Info(format string, args ...any)  { a.log(slog.LevelInfo, format, args...) }
func (a *Adapter) Warn(format string, args ...any)  { a.log(slog.LevelWarn, format, args...) }
func (a *Adapter) Error(format string, args ...any) { a.log(slog.LevelError, format, args...) }

func (a *Adapter) log(level slog.Level, format string, args ...any) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	a.logger.Log(context.Background(), level, msg)
}
