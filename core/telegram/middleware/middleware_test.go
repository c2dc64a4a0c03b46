package middleware

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tele "gopkg.in/telebot.v4"
)

func newContext(t *testing.T, updateID int) tele.Context {
	t.Helper()
	bot, err := tele.NewBot(tele.Settings{Offline: true})
	require.NoError(t, err)
	return bot.NewContext(tele.Update{ID: updateID, Message: &tele.Message{
		Text:   "Москва",
		Chat:   &tele.Chat{ID: 9, Type: tele.ChatPrivate},
		Sender: &tele.User{ID: 3},
	}})
}

func TestRecoverTurnsPanicIntoError(t *testing.T) {
	h := RecoverMiddleware(func(tele.Context) error { panic("boom") })

	var err error
	require.NotPanics(t, func() { err = h(newContext(t, 1)) })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "handler panic: boom")
}

func TestRecoverPassesHandlerResult(t *testing.T) {
	want := errors.New("send failed")
	assert.ErrorIs(t, RecoverMiddleware(func(tele.Context) error { return want })(newContext(t, 2)), want)
	assert.NoError(t, RecoverMiddleware(func(tele.Context) error { return nil })(newContext(t, 3)))
}

func TestSeenUpdatesDedup(t *testing.T) {
	s := &seenUpdates{seen: make(map[int]time.Time)}
	now := time.Now()

	assert.True(t, s.first(10, now))
	assert.False(t, s.first(10, now.Add(time.Second)))
	assert.True(t, s.first(11, now.Add(time.Second)))
	assert.True(t, s.first(10, now.Add(dedupWindow+time.Second)))
	assert.Len(t, s.seen, 2)
}

func TestLoggerMiddlewareCallsNext(t *testing.T) {
	called := false
	h := LoggerMiddleware(func(tele.Context) error {
		called = true
		return nil
	})
	require.NoError(t, h(newContext(t, 20)))
	assert.True(t, called)
}

func TestMessageCounters(t *testing.T) {
	c := newContext(t, 30)
	c.Set(messagesKey, 7)
	c.Set(keyboardKey, true)

	h := MessageMetricsMiddleware(func(c tele.Context) error {
		msgs, kb := GetCounters(c)
		assert.Zero(t, msgs)
		assert.False(t, kb)

		IncMessages(c, false)
		IncMessages(c, true)
		IncMessages(c, false)
		return nil
	})
	require.NoError(t, h(c))

	msgs, kb := GetCounters(c)
	assert.Equal(t, 3, msgs)
	assert.True(t, kb)
	assert.NotPanics(t, func() { IncMessages(nil, true) })
}
