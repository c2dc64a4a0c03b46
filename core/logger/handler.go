package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

const tsLayout = "2006-01-02T15:04:05.000Z07:00"

type handlerOptions struct {
	level slog.Leveler
	out   *sink
	json  bool
	order []string
}

// lineHandler renders one flat line per record. Groups become dotted keys,
// durations become integer *_ms fields and the update correlation data
// stored in the context is merged in.
type lineHandler struct {
	opts   *handlerOptions
	attrs  []slog.Attr
	prefix string
}

func newLineHandler(opts handlerOptions) *lineHandler {
	if opts.level == nil {
		opts.level = slog.LevelInfo
	}
	if len(opts.order) == 0 {
		opts.order = keyOrder
	}
	return &lineHandler{opts: &opts}
}

func (h *lineHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.level.Level()
}

func (h *lineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = slices.Clip(h.attrs)
	for _, a := range attrs {
		next.attrs = append(next.attrs, scoped(h.prefix, a))
	}
	return &next
}

func (h *lineHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = joinKey(h.prefix, name)
	return &next
}

func (h *lineHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.opts.out == nil {
		return errors.New("logger: output not initialized")
	}
	f := make(fields, 12+r.NumAttrs())
	f["ts"] = r.Time.UTC().Truncate(time.Millisecond).Format(tsLayout)
	f["level"] = levelName(r.Level)
	for _, a := range h.attrs {
		f.add("", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		f.add(h.prefix, a)
		return true
	})
	f.merge(metaFrom(ctx))
	f.finish(r.Message)

	var buf bytes.Buffer
	if h.opts.json {
		if err := f.writeJSON(&buf, h.opts.order); err != nil {
			return err
		}
	} else {
		f.writeKV(&buf, h.opts.order)
	}
	buf.WriteByte('\n')
	return h.opts.out.writeLine(buf.Bytes())
}

func scoped(prefix string, a slog.Attr) slog.Attr {
	if prefix == "" {
		return a
	}
	return slog.Attr{Key: joinKey(prefix, a.Key), Value: a.Value}
}

func joinKey(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	}
	return prefix + "." + key
}

type fields map[string]any

func (f fields) add(prefix string, a slog.Attr) {
	key := joinKey(prefix, a.Key)
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		for _, child := range v.Group() {
			f.add(key, child)
		}
		return
	}
	if key == "" {
		return
	}
	if d, ok := asDuration(v); ok {
		f[msKey(key)] = RoundMS(d).Milliseconds()
		return
	}
	if val, ok := plain(v); ok {
		f[key] = val
	}
}

// merge fills correlation keys the record did not set itself.
func (f fields) merge(m updateMeta) {
	setIf := func(key string, val any, present bool) {
		if _, taken := f[key]; !taken && present {
			f[key] = val
		}
	}
	setIf("rid", m.rid, m.rid != "")
	setIf("update_id", int64(m.updateID), m.updateID != 0)
	setIf("user_id", m.userID, m.userID != 0)
	setIf("chat_id", m.chatID, m.chatID != 0)
	setIf("handler", m.handler, m.handler != "")
}

func (f fields) finish(msg string) {
	if s, _ := f["event"].(string); s == "" {
		f["event"] = orDefault(msg, "unknown")
	}
	if s, _ := f["component"].(string); s == "" {
		f["component"] = "app"
	}
	if s, ok := f["status"].(string); ok {
		f["status"] = strings.ToLower(s)
	}
	if s, ok := f["outcome"].(string); ok {
		if _, known := outcomes[strings.ToLower(s)]; known {
			f["outcome"] = strings.ToLower(s)
		} else {
			delete(f, "outcome")
		}
	}
	for k, v := range f {
		if s, ok := v.(string); ok && s == "" {
			delete(f, k)
		}
	}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func (f fields) keys(order []string) []string {
	out := make([]string, 0, len(f))
	for _, k := range order {
		if _, ok := f[k]; ok {
			out = append(out, k)
		}
	}
	var rest []string
	for k := range f {
		if !slices.Contains(order, k) {
			rest = append(rest, k)
		}
	}
	slices.Sort(rest)
	return append(out, rest...)
}

func (f fields) writeJSON(buf *bytes.Buffer, order []string) error {
	buf.WriteByte('{')
	for i, k := range f.keys(order) {
		v, err := json.Marshal(f[k])
		if err != nil {
			return fmt.Errorf("logger: encode %s: %w", k, err)
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(k))
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return nil
}

func (f fields) writeKV(buf *bytes.Buffer, order []string) {
	for i, k := range f.keys(order) {
		if i > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(k)
		buf.WriteByte('=')
		s := fmt.Sprint(f[k])
		if strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
			s = strconv.Quote(s)
		}
		buf.WriteString(s)
	}
}

func asDuration(v slog.Value) (time.Duration, bool) {
	switch v.Kind() {
	case slog.KindDuration:
		return v.Duration(), true
	case slog.KindAny:
		d, ok := v.Any().(time.Duration)
		return d, ok
	}
	return 0, false
}

// msKey maps duration keys onto their millisecond names:
// duration -> duration_ms, poll_duration -> poll_duration_ms, wait -> wait_ms.
func msKey(key string) string {
	if key == "duration" {
		return "duration_ms"
	}
	if strings.HasSuffix(key, "_ms") {
		return key
	}
	return key + "_ms"
}

func plain(v slog.Value) (any, bool) {
	switch v.Kind() {
	case slog.KindString:
		return strings.TrimSpace(v.String()), true
	case slog.KindInt64:
		return v.Int64(), true
	case slog.KindUint64:
		if u := v.Uint64(); u <= math.MaxInt64 {
			return int64(u), true
		}
		return v.Uint64(), true
	case slog.KindFloat64:
		return v.Float64(), true
	case slog.KindBool:
		return v.Bool(), true
	case slog.KindTime:
		return v.Time().UTC().Format(time.RFC3339Nano), true
	}
	switch x := v.Any().(type) {
	case nil:
		return nil, false
	case error:
		return x.Error(), true
	case fmt.Stringer:
		return strings.TrimSpace(x.String()), true
	case string:
		return strings.TrimSpace(x), true
	default:
		return fmt.Sprint(x), true
	}
}
