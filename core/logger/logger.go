package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/natefinch/lumberjack"

	"github.com/m3rciful/meteobot/core/buildinfo"
	coreconfig "github.com/m3rciful/meteobot/core/config"
)

const (
	defaultMaxSizeMB  = 5
	defaultMaxBackups = 3
)

var (
	initOnce sync.Once
	closeMu  sync.Mutex
	out      *sink

	levelVar      slog.LevelVar
	debugSample   ratio
	traceOverride bool

	// L is the base logger. Until InitLogger runs it discards everything.
	L = slog.New(slog.DiscardHandler)

	// DB logs database-related events.
	DB *slog.Logger
	// TG logs Telegram transport events.
	TG *slog.Logger
	// MIG logs database migration events.
	MIG *slog.Logger
	// TWire logs Telegram wiring steps.
	TWire *slog.Logger
	// SVCWeather logs weather provider calls.
	SVCWeather *slog.Logger
	// SVCDialog logs conversation transitions.
	SVCDialog *slog.Logger
	// SVCJournal logs lookup journal activity.
	SVCJournal *slog.Logger
	// OPS logs the operational HTTP endpoint.
	OPS *slog.Logger
)

func init() {
	debugSample.set(1, 50)
	wireComponents()
}

// InitLogger installs the process-wide logger described by cfg. Only the
// first call has an effect.
func InitLogger(cfg *coreconfig.Config) error {
	var err error
	initOnce.Do(func() {
		var lc coreconfig.LoggingConfig
		if cfg != nil {
			lc = cfg.Logging
		}
		levelVar.Set(parseLevel(lc.Level))
		debugSample.set(parseDebugSample(cfg))
		traceOverride = envFlag("LOG_TRACE")

		outputs := []io.Writer{os.Stdout}
		if file := strings.TrimSpace(lc.BotFile); file != "" {
			dir := strings.TrimSpace(lc.Dir)
			if dir != "" {
				if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
					err = fmt.Errorf("logger: create %s: %w", dir, mkErr)
					return
				}
			}
			outputs = append(outputs, newRotator(filepath.Join(dir, file), lc))
		}
		out = newSink(outputs...)

		L = slog.New(newLineHandler(handlerOptions{
			level: &levelVar,
			out:   out,
			json:  useJSON(lc),
			order: parseOrder(lc.KeysOrder),
		}))
		slog.SetDefault(L)
		wireComponents()

		L.LogAttrs(context.Background(), slog.LevelInfo, "",
			slog.String("event", "startup"),
			slog.String("go_version", runtime.Version()),
			slog.String("build_version", buildinfo.Version),
			slog.String("build_commit", buildinfo.Commit),
			slog.String("build_time", buildinfo.Date),
			slog.String("cfg_profile", profile(lc)),
		)
	})
	return err
}

func wireComponents() {
	DB = L.With("component", "db")
	TG = L.With("component", "tg")
	MIG = L.With("component", "db.migrate")
	TWire = L.With("component", "tg.wire")
	SVCWeather = L.With("component", "service.weather")
	SVCDialog = L.With("component", "service.dialog")
	SVCJournal = L.With("component", "service.journal")
	OPS = L.With("component", "ops")
}

// Shutdown closes the log outputs. Later lines are discarded.
func Shutdown() error {
	closeMu.Lock()
	defer closeMu.Unlock()
	if out == nil {
		return nil
	}
	err := out.close()
	out = nil
	return err
}

// useJSON selects the line format: explicit format wins, debug and dev
// profiles default to key=value.
func useJSON(lc coreconfig.LoggingConfig) bool {
	switch strings.ToLower(strings.TrimSpace(lc.Format)) {
	case "json":
		return true
	case "kv", "text", "pretty":
		return false
	}
	switch strings.ToLower(strings.TrimSpace(lc.Profile)) {
	case "debug", "dev":
		return false
	}
	return true
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func parseOrder(s string) []string {
	if s = strings.TrimSpace(s); s == "" || s == "default" {
		return keyOrder
	}
	var order []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			order = append(order, k)
		}
	}
	if len(order) == 0 {
		return keyOrder
	}
	return order
}

func profile(lc coreconfig.LoggingConfig) string {
	if p := strings.TrimSpace(lc.Profile); p != "" {
		return strings.ToLower(p)
	}
	return "prod"
}

func newRotator(path string, lc coreconfig.LoggingConfig) *lumberjack.Logger {
	r := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    lc.MaxSizeMB,
		MaxBackups: lc.MaxBackups,
		MaxAge:     lc.MaxAgeDays,
		Compress:   lc.Compress,
	}
	if r.MaxSize <= 0 {
		r.MaxSize = defaultMaxSizeMB
	}
	if r.MaxBackups <= 0 {
		r.MaxBackups = defaultMaxBackups
	}
	return r
}

// LogEvent writes attrs at level with the event key set. A nil log falls
// back to the logger stored in ctx and then to L.
func LogEvent(ctx context.Context, log *slog.Logger, level slog.Level, event string, attrs ...slog.Attr) {
	if log == nil {
		log = loggerFrom(ctx)
	}
	if event != "" {
		attrs = append([]slog.Attr{slog.String("event", event)}, attrs...)
	}
	log.LogAttrs(ctx, level, "", attrs...)
}
