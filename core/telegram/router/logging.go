package router

import (
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/meteobot/core/logger"
	tghelpers "github.com/m3rciful/meteobot/core/telegram/helpers"
	"github.com/m3rciful/meteobot/core/telegram/middleware"
	"github.com/m3rciful/meteobot/core/telegram/netutil"

	tele "gopkg.in/telebot.v4"
)

// summarize writes the one "handler.handled" line every update ends with.
// status is derived from err unless given.
func summarize(c tele.Context, name string, start time.Time, status string, err error) {
	if status == "" {
		status = "ok"
		if err != nil {
			status = "fail"
		}
	}
	msgs, kb := middleware.GetCounters(c)
	attrs := []slog.Attr{
		slog.String("status", status),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Duration("duration", time.Since(start)),
	}
	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelWarn
		attrs = append(attrs,
			slog.String("error_kind", netutil.Classify(err)),
			slog.String("err", logger.SanitizeLimit(netutil.Redact(err), 256)),
		)
	}
	logger.LogEvent(tghelpers.WithHandler(c, name), logger.TG, level, "handler.handled", attrs...)
}

// slug turns a command or callback tag into a handler name: "/Menu" -> "menu".
func slug(name string) string {
	name = strings.TrimPrefix(strings.TrimSpace(name), "/")
	if name == "" {
		return "unknown"
	}
	return strings.ToLower(strings.ReplaceAll(name, " ", "_"))
}
