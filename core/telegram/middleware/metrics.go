package middleware

import tele "gopkg.in/telebot.v4"

const (
	messagesKey = "messages"
	keyboardKey = "kb"
)

// MessageMetricsMiddleware resets the per-update outbound counters.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		c.Set(messagesKey, 0)
		c.Set(keyboardKey, false)
		return next(c)
	}
}

// IncMessages counts one outbound message (send or edit) for the update in c.
func IncMessages(c tele.Context, hasKB bool) {
	if c == nil {
		return
	}
	n, _ := c.Get(messagesKey).(int)
	c.Set(messagesKey, n+1)
	if hasKB {
		c.Set(keyboardKey, true)
	}
}

// GetCounters reads the outbound message count and keyboard flag of c.
func GetCounters(c tele.Context) (int, bool) {
	msgs, _ := c.Get(messagesKey).(int)
	kb, _ := c.Get(keyboardKey).(bool)
	return msgs, kb
}
