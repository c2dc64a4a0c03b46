package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// ParseCallbackData splits callback data into the action tag and an optional
// payload. Both the bare "<tag>" form used by our keyboards and telebot's
// "\f<unique>|<payload>" encoding are accepted.
func ParseCallbackData(data string) (string, string) {
	raw := strings.TrimPrefix(data, "\f")
	tag, payload, _ := strings.Cut(raw, "|")
	return strings.TrimSpace(tag), payload
}

// Tag returns the action tag of the callback in c, or "" for other updates.
func Tag(c tele.Context) string {
	cb := c.Callback()
	if cb == nil {
		return ""
	}
	if cb.Unique != "" {
		return cb.Unique
	}
	tag, _ := ParseCallbackData(cb.Data)
	return tag
}
