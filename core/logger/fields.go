package logger

import "log/slog"

// Status values used across components: ok, fail, skip, retry, cancelled.
// Lookup outcomes are restricted to the set below; anything else is dropped.
var outcomes = map[string]struct{}{
	"ok":        {},
	"fail":      {},
	"cancelled": {},
	"not_found": {},
}

func levelName(l slog.Level) string {
	switch {
	case l < slog.LevelInfo:
		return "DEBUG"
	case l < slog.LevelWarn:
		return "INFO"
	case l < slog.LevelError:
		return "WARN"
	default:
		return "ERROR"
	}
}

// keyOrder puts the fields operators scan first at the head of the line.
// Keys not listed follow in alphabetical order.
var keyOrder = []string{
	"ts", "level", "component", "event", "status", "rid",
	"update_id", "user_id", "chat_id", "chat_type", "handler",
	"rule", "kind", "state", "next_state", "cb_key", "outcome", "duration_ms",
	"mode", "query", "place", "temp_c", "weather_kind", "http_code",
	"listen", "public_url", "db", "host", "port", "sessions", "evicted",
	"err", "error_kind", "attempts",
}
