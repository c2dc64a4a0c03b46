package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/meteobot/core/chat"
	tg "github.com/m3rciful/meteobot/core/telegram"
	tgsender "github.com/m3rciful/meteobot/core/telegram/sender"
	"github.com/m3rciful/meteobot/core/telegram/state"
	"github.com/m3rciful/meteobot/meteo/config"
	"github.com/m3rciful/meteobot/meteo/dialog"
	"github.com/m3rciful/meteobot/meteo/messages"

	tele "gopkg.in/telebot.v4"
)

// fakeBot satisfies tele.API; only the methods the hooks use are implemented.
type fakeBot struct {
	tele.API
	mu       sync.Mutex
	sent     []string
	commands []tele.Command
}

func (f *fakeBot) Send(_ tele.Recipient, what any, _ ...any) (*tele.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, what.(string))
	return &tele.Message{ID: len(f.sent)}, nil
}

func (f *fakeBot) SetCommands(opts ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range opts {
		if list, ok := o.([]tele.Command); ok {
			f.commands = append(f.commands, list...)
		}
	}
	return nil
}

func (f *fakeBot) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Telegram.Token = "123:abc"
	cfg.Telegram.AdminID = 99
	cfg.Weather.APIKey = "key"
	require.NoError(t, cfg.Normalize())
	return cfg
}

func TestNewRegistry(t *testing.T) {
	list := NewRegistry().ListCommands(true)
	require.Len(t, list, 2)
	assert.Equal(t, "menu", list[0].Text)
	assert.Equal(t, "start", list[1].Text)
}

func TestTelegramRunOptions(t *testing.T) {
	a := New(testConfig(t), nil)
	opts, err := a.TelegramRunOptions()
	require.NoError(t, err)
	assert.Same(t, a.cfg.CoreConfig(), opts.Config)
	assert.NotEmpty(t, opts.Routes)
	assert.Len(t, opts.Middlewares, 3)
	assert.NotNil(t, opts.OnStart)
	assert.NotNil(t, opts.OnStop)
}

func TestStartStopNotifiesAdmin(t *testing.T) {
	cfg := testConfig(t)
	cfg.Ops.Listen = "127.0.0.1:0"
	cfg.Sessions.IdleTTLMinutes = 30
	require.NoError(t, cfg.Normalize())

	a := New(cfg, nil)
	bot := &fakeBot{}
	rt := tg.Runtime{Bot: bot, Registry: a.registry}
	ctx := context.Background()

	require.NoError(t, a.onStart(ctx, rt))
	require.NotNil(t, a.ops)
	resp, err := http.Get("http://" + a.ops.Addr() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, a.onStop(ctx, rt))
	require.NoError(t, a.Close())

	assert.Equal(t, []string{messages.AdminStartup, messages.AdminShutdown}, bot.messages())
	assert.Len(t, bot.commands, 2)
}

func TestMissingAdminIsNotFatal(t *testing.T) {
	cfg := testConfig(t)
	cfg.Telegram.AdminID = 0
	a := New(cfg, nil)
	bot := &fakeBot{}
	rt := tg.Runtime{Bot: bot, Registry: a.registry}

	require.NoError(t, a.onStart(context.Background(), rt))
	require.NoError(t, a.onStop(context.Background(), rt))
	assert.Empty(t, bot.messages())
}

type silentOutbound struct{}

func (silentOutbound) Send(context.Context, int64, string, chat.Keyboard) (int, error) {
	return 1, nil
}
func (silentOutbound) Edit(context.Context, chat.MessageRef, string, chat.Keyboard) error {
	return nil
}
func (silentOutbound) EditKeyboard(context.Context, chat.MessageRef, chat.Keyboard) error {
	return nil
}
func (silentOutbound) Delete(context.Context, chat.MessageRef) error { return nil }
func (silentOutbound) Answer(context.Context, string, string) error  { return nil }

func TestStatsEndpoint(t *testing.T) {
	a := New(testConfig(t), nil)
	ctx := context.Background()
	ev := chat.Event{Kind: chat.KindCallback, ChatID: 1, UserID: 1, MessageID: 3, CallbackID: "cb", Tag: dialog.ActionCityFlow}
	require.NoError(t, a.router.Dispatch(ctx, silentOutbound{}, ev))

	snapshot, err := a.Stats(ctx)
	require.NoError(t, err)
	raw, err := json.Marshal(snapshot)
	require.NoError(t, err)

	var body struct {
		Sessions state.Stats `json:"sessions"`
		Lookups  struct {
			Total int `json:"total"`
		} `json:"lookups"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, 1, body.Sessions.Total)
	assert.Equal(t, 1, body.Sessions.ByState[state.StateAwaitingCity])
	assert.Zero(t, body.Lookups.Total)
}

func TestStatsReportsSenderOutcomes(t *testing.T) {
	a := New(testConfig(t), nil)
	ctx := context.Background()

	snapshot, err := a.Stats(ctx)
	require.NoError(t, err)
	raw, err := json.Marshal(snapshot)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"sender":{"sent":0,"failed":0}`)

	d := tgsender.NewDispatcher(tgsender.Options{Workers: 1})
	require.NoError(t, d.Enqueue(ctx, "notify", func(context.Context) error { return nil }))
	require.NoError(t, d.Enqueue(ctx, "notify", func(context.Context) error {
		return errors.New("Forbidden: bot was blocked by the user")
	}))
	d.Close()

	a.outbox = d
	snapshot, err = a.Stats(ctx)
	require.NoError(t, err)
	raw, err = json.Marshal(snapshot)
	require.NoError(t, err)

	var body struct {
		Sender SenderStats `json:"sender"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, SenderStats{Sent: 1, Failed: 1}, body.Sender)
}
