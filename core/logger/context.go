package logger

import (
	"context"
	"log/slog"
	"strconv"
	"time"
	"unicode"
	"unicode/utf8"
)

type ctxKey struct{ name string }

var (
	metaKey   = ctxKey{"meta"}
	loggerKey = ctxKey{"logger"}
)

// updateMeta is the per-update correlation data the handler copies into every
// line written under the context.
type updateMeta struct {
	rid      string
	updateID int
	userID   int64
	chatID   int64
	handler  string
}

func metaFrom(ctx context.Context) updateMeta {
	if ctx == nil {
		return updateMeta{}
	}
	m, _ := ctx.Value(metaKey).(updateMeta)
	return m
}

func withMeta(ctx context.Context, fn func(*updateMeta)) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	m := metaFrom(ctx)
	fn(&m)
	return context.WithValue(ctx, metaKey, m)
}

// WithRID attaches the correlation id of the current update.
func WithRID(ctx context.Context, rid string) context.Context {
	return withMeta(ctx, func(m *updateMeta) { m.rid = rid })
}

// WithUpdateMeta attaches update, user and chat identifiers.
func WithUpdateMeta(ctx context.Context, updateID int, userID, chatID int64) context.Context {
	return withMeta(ctx, func(m *updateMeta) {
		m.updateID = updateID
		m.userID = userID
		m.chatID = chatID
	})
}

// WithHandler names the handler serving the current update.
func WithHandler(ctx context.Context, handler string) context.Context {
	if handler == "" {
		if ctx == nil {
			return context.Background()
		}
		return ctx
	}
	return withMeta(ctx, func(m *updateMeta) { m.handler = handler })
}

// WithLogger stores log in ctx; LogEvent falls back to it when no component
// logger is given.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if log == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey, log)
}

func loggerFrom(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
			return l
		}
	}
	return L
}

// Background is the root context for lines not tied to an update.
func Background() context.Context {
	return context.Background()
}

// BuildRID formats the correlation id as update:chat:user.
func BuildRID(updateID int, chatID, userID int64) string {
	b := make([]byte, 0, 32)
	b = strconv.AppendInt(b, int64(updateID), 10)
	b = append(b, ':')
	b = strconv.AppendInt(b, chatID, 10)
	b = append(b, ':')
	b = strconv.AppendInt(b, userID, 10)
	return string(b)
}

// SanitizeLimit drops control and format runes (tab and newline survive) and
// keeps at most limit runes of user-supplied text.
func SanitizeLimit(s string, limit int) string {
	if limit <= 0 || s == "" {
		return ""
	}
	out := make([]rune, 0, min(limit, utf8.RuneCountInString(s)))
	for _, r := range s {
		if len(out) == limit {
			break
		}
		if r != '\n' && r != '\t' && (unicode.IsControl(r) || unicode.Is(unicode.Cf, r)) {
			continue
		}
		out = append(out, r)
	}
	return string(out)
}

// Took is the time since start rounded for logging.
func Took(start time.Time) time.Duration {
	return RoundMS(time.Since(start))
}

// RoundMS rounds d to whole milliseconds; negative values become zero.
func RoundMS(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d.Round(time.Millisecond)
}
