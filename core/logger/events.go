package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"

	coreconfig "github.com/m3rciful/meteobot/core/config"
)

// Component returns the base logger tagged with the given component name.
func Component(name string) *slog.Logger {
	if name == "" {
		return L
	}
	return L.With("component", name)
}

// Debug logs a debug event for component.
func Debug(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelDebug, event, attrs...)
}

// Info logs an info event for component.
func Info(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelInfo, event, attrs...)
}

// Warn logs a warning event for component.
func Warn(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelWarn, event, attrs...)
}

// Error logs an error event for component.
func Error(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelError, event, attrs...)
}

// ShouldSampleDebug reports whether a high-volume debug line should be written.
// LOG_TRACE=1 disables sampling.
func ShouldSampleDebug() bool {
	if traceOverride {
		return true
	}
	if levelVar.Level() > slog.LevelDebug {
		return false
	}
	return debugSample.allow()
}

// parseDebugSample reads logging.debug_sample; empty means one line in 50,
// "all" or "off" writes every line.
func parseDebugSample(cfg *coreconfig.Config) (keep, window int) {
	raw := ""
	if cfg != nil {
		raw = strings.ToLower(strings.TrimSpace(cfg.Logging.DebugSample))
	}
	switch raw {
	case "":
		return 1, 50
	case "all", "off":
		return 0, 0
	}
	return parseRatio(raw)
}

func envFlag(name string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
