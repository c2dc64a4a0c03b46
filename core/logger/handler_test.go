package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/meteobot/core/config"
)

func testLogger(buf *bytes.Buffer, asJSON bool) *slog.Logger {
	return slog.New(newLineHandler(handlerOptions{
		level: slog.LevelDebug,
		out:   newSink(buf),
		json:  asJSON,
	}))
}

func TestLineHandlerKVOrder(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithRID(Background(), "42:9:7")
	ctx = WithUpdateMeta(ctx, 42, 7, 9)

	log := testLogger(&buf, false).With("component", "service.weather")
	LogEvent(ctx, log, slog.LevelInfo, "weather.lookup",
		slog.String("mode", "city"),
		slog.String("status", "OK"),
	)

	tokens := strings.Fields(buf.String())
	want := []string{"ts=", "level=INFO", "component=service.weather", "event=weather.lookup", "status=ok", "rid=42:9:7", "update_id=42", "user_id=7", "chat_id=9"}
	require.GreaterOrEqual(t, len(tokens), len(want), buf.String())
	for i, prefix := range want {
		assert.True(t, strings.HasPrefix(tokens[i], prefix), "token %d = %s, want prefix %s", i, tokens[i], prefix)
	}
	assert.Contains(t, buf.String(), "mode=city")
}

func TestLineHandlerJSON(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithHandler(WithRID(Background(), "1:2:3"), "city_input")

	log := testLogger(&buf, true).With("component", "service.dialog")
	LogEvent(ctx, log, slog.LevelError, "dialog.dispatch",
		slog.String("status", "fail"),
		slog.Any("err", errors.New("boom")),
		slog.Group("http", slog.Int("code", 502)),
	)

	line := buf.String()
	assert.True(t, strings.HasPrefix(line, `{"ts":`), line)
	assert.Less(t, strings.Index(line, `"level"`), strings.Index(line, `"component"`))

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &got))
	assert.Equal(t, "ERROR", got["level"])
	assert.Equal(t, "dialog.dispatch", got["event"])
	assert.Equal(t, "boom", got["err"])
	assert.Equal(t, "city_input", got["handler"])
	assert.Equal(t, float64(502), got["http.code"])
}

func TestLineHandlerNormalizesDurationsAndDropsEmpty(t *testing.T) {
	var buf bytes.Buffer
	LogEvent(context.Background(), testLogger(&buf, false), slog.LevelInfo, "handler.handled",
		slog.Duration("duration", 1500*time.Microsecond),
		slog.Duration("wait", 2*time.Second),
		slog.String("query", "   "),
		slog.String("outcome", "bogus"),
	)

	line := buf.String()
	assert.Contains(t, line, "duration_ms=2")
	assert.Contains(t, line, "wait_ms=2000")
	assert.NotContains(t, line, "query=")
	assert.NotContains(t, line, "outcome=")
	assert.Contains(t, line, "component=app")
}

func TestLineHandlerRecordAttrsWinOverContext(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithUpdateMeta(Background(), 1, 2, 3)
	LogEvent(ctx, testLogger(&buf, false), slog.LevelInfo, "x", slog.Int64("chat_id", 99))
	assert.Contains(t, buf.String(), "chat_id=99")
	assert.NotContains(t, buf.String(), "chat_id=3")
}

func TestLineHandlerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(newLineHandler(handlerOptions{level: slog.LevelWarn, out: newSink(&buf)}))
	log.Info("quiet")
	log.Warn("loud")
	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "event=loud")
}

func TestLogEventUsesContextLogger(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(Background(), testLogger(&buf, false).With("component", "tg"))
	LogEvent(ctx, nil, slog.LevelInfo, "update.received")
	assert.Contains(t, buf.String(), "component=tg event=update.received")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestSinkDropsFailingOutput(t *testing.T) {
	var buf bytes.Buffer
	s := newSink(failingWriter{}, &buf)

	require.Error(t, s.writeLine([]byte("a\n")))
	require.NoError(t, s.writeLine([]byte("b\n")))
	assert.Equal(t, "a\nb\n", buf.String())
	assert.ErrorContains(t, s.close(), "disk full")
	assert.NoError(t, s.writeLine([]byte("after close\n")))
}

func TestSinkCloseLeavesStreamsOpen(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = r.Close()
		_ = w.Close()
	})

	path := filepath.Join(t.TempDir(), "bot.log")
	s := newSink(w, newRotator(path, coreconfig.LoggingConfig{}))
	require.NoError(t, s.writeLine([]byte("line\n")))
	require.NoError(t, s.close())

	_, err = w.Write([]byte("still open\n"))
	assert.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "line\n", string(data))
}

func TestHelpersBeforeInitDoNotPanic(t *testing.T) {
	Info(context.Background(), "service.weather", "weather.lookup", slog.String("mode", "city"))
	TG.Warn("noop")
}

func TestBuildRIDAndSanitize(t *testing.T) {
	assert.Equal(t, "10:-100:7", BuildRID(10, -100, 7))
	assert.Equal(t, "ab\tc", SanitizeLimit("a\x00b\u200b\tc", 10))
	assert.Equal(t, "Моск", SanitizeLimit("Москва", 4))
	assert.Empty(t, SanitizeLimit("x", 0))
}

func TestParseDebugSample(t *testing.T) {
	cases := map[string][2]int{
		"":    {1, 50},
		"off": {0, 0},
		"1/4": {1, 4},
		"10":  {1, 10},
		"0/4": {0, 0},
		"x":   {0, 0},
	}
	for raw, want := range cases {
		cfg := &coreconfig.Config{Logging: coreconfig.LoggingConfig{DebugSample: raw}}
		keep, window := parseDebugSample(cfg)
		assert.Equal(t, want, [2]int{keep, window}, "debug_sample %q", raw)
	}
}

func TestRatioAllow(t *testing.T) {
	var r ratio
	r.set(1, 3)
	var got []bool
	for range 6 {
		got = append(got, r.allow())
	}
	assert.Equal(t, []bool{true, false, false, true, false, false}, got)

	r.set(0, 0)
	assert.True(t, r.allow())
}

func TestNewRotatorDefaults(t *testing.T) {
	r := newRotator("bot.log", coreconfig.LoggingConfig{})
	assert.Equal(t, defaultMaxSizeMB, r.MaxSize)
	assert.Equal(t, defaultMaxBackups, r.MaxBackups)
}

func TestUseJSON(t *testing.T) {
	assert.True(t, useJSON(coreconfig.LoggingConfig{}))
	assert.False(t, useJSON(coreconfig.LoggingConfig{Profile: "dev"}))
	assert.True(t, useJSON(coreconfig.LoggingConfig{Profile: "dev", Format: "json"}))
	assert.False(t, useJSON(coreconfig.LoggingConfig{Format: "kv"}))
}
