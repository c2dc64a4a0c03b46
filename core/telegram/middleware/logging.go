package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/meteobot/core/logger"
	"github.com/m3rciful/meteobot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/meteobot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

const dedupWindow = 10 * time.Second

// seenUpdates remembers update ids logged within dedupWindow; Telegram may
// redeliver an update after a slow response.
type seenUpdates struct {
	mu   sync.Mutex
	seen map[int]time.Time
}

var recent = &seenUpdates{seen: make(map[int]time.Time)}

func (s *seenUpdates) first(updateID int, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, at := range s.seen {
		if now.Sub(at) > dedupWindow {
			delete(s.seen, id)
		}
	}
	if _, dup := s.seen[updateID]; dup {
		return false
	}
	s.seen[updateID] = now
	return true
}

// LoggerMiddleware prepares the per-update logging context and writes one
// sampled debug line describing the update.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		upd := c.Update()
		if logger.ShouldSampleDebug() && recent.first(upd.ID, time.Now()) {
			logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "update.received", describe(c, upd)...)
		}
		return next(c)
	}
}

func describe(c tele.Context, upd tele.Update) []slog.Attr {
	attrs := []slog.Attr{slog.String("status", "ok")}
	if ch := c.Chat(); ch != nil {
		attrs = append(attrs, slog.String("chat_type", string(ch.Type)))
	}
	if u := c.Sender(); u != nil {
		attrs = append(attrs,
			slog.String("username", logger.SanitizeLimit(u.Username, 64)),
			slog.String("lang", u.LanguageCode),
		)
	}
	switch {
	case upd.Callback != nil:
		attrs = append(attrs, slog.String("cb_key", logger.SanitizeLimit(callbacks.Tag(c), 128)))
	case upd.Message != nil && upd.Message.Location != nil:
		attrs = append(attrs, slog.String("kind", "location"))
	case upd.Message != nil:
		attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(c.Text(), 256)))
	}
	return attrs
}
