package dialog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/m3rciful/meteobot/core/chat"
	"github.com/m3rciful/meteobot/core/logger"
	"github.com/m3rciful/meteobot/core/telegram/state"
)

// Handler runs one transition against a leased session.
type Handler func(ctx context.Context, out chat.Outbound, ev chat.Event, sess *state.Session) error

// Rule matches an event kind, an optional key (command or callback tag) and
// an optional set of states. Empty Key or States match anything.
type Rule struct {
	Name   string
	Kind   chat.Kind
	Key    string
	States []state.State
	Handle Handler
}

func (r Rule) matches(ev chat.Event, current state.State) bool {
	if r.Kind != ev.Kind {
		return false
	}
	if r.Key != "" && r.Key != ev.Key() {
		return false
	}
	if len(r.States) > 0 && !slices.Contains(r.States, current) {
		return false
	}
	return true
}

// Rules returns the transition table in priority order.
func (m *Machine) Rules() []Rule {
	return []Rule{
		{Name: "start", Kind: chat.KindCommand, Key: CommandStart, Handle: m.Start},
		{Name: "menu", Kind: chat.KindCommand, Key: CommandMenu, Handle: m.OpenMenu},
		{Name: "menu", Kind: chat.KindCallback, Key: ActionMenu, Handle: m.OpenMenu},
		{Name: "city_flow", Kind: chat.KindCallback, Key: ActionCityFlow, Handle: m.StartCityFlow},
		{Name: "location_flow", Kind: chat.KindCallback, Key: ActionLocationFlow, Handle: m.StartLocationFlow},
		{Name: "cancel", Kind: chat.KindCallback, Key: ActionCancel, Handle: m.Cancel},
		{Name: "city_input", Kind: chat.KindText, States: []state.State{state.StateAwaitingCity}, Handle: m.CityInput},
		{Name: "location_input", Kind: chat.KindLocation, States: []state.State{state.StateAwaitingLocation}, Handle: m.LocationInput},
	}
}

// Router selects exactly one rule per event and runs it while holding the
// sender's session.
type Router struct {
	store       *state.Store
	rules       []Rule
	unknown     Rule
	unsupported Rule
}

// NewRouter builds the router over m's transition table.
func NewRouter(store *state.Store, m *Machine) *Router {
	return &Router{
		store:       store,
		rules:       m.Rules(),
		unknown:     Rule{Name: "unknown", Handle: m.Unknown},
		unsupported: Rule{Name: "unsupported", Handle: m.Unsupported},
	}
}

// Resolve returns the rule that handles ev in the given state.
func (r *Router) Resolve(ev chat.Event, current state.State) Rule {
	for _, rule := range r.rules {
		if rule.matches(ev, current) {
			return rule
		}
	}
	if ev.Kind == chat.KindCallback {
		return r.unsupported
	}
	return r.unknown
}

// Dispatch handles one inbound event. Events of the same session are
// processed one at a time; callbacks are acknowledged exactly once.
func (r *Router) Dispatch(ctx context.Context, out chat.Outbound, ev chat.Event) error {
	lease, err := r.store.Acquire(ctx, state.Key{ChatID: ev.ChatID, UserID: ev.UserID})
	if err != nil {
		return fmt.Errorf("dialog: %w", err)
	}
	defer lease.Release()

	sess := lease.Session()
	from := sess.State
	rule := r.Resolve(ev, from)

	acked := &ackOutbound{Outbound: out}
	start := time.Now()
	handleErr := rule.Handle(ctx, acked, ev, sess)
	if ev.Kind == chat.KindCallback && !acked.done() {
		if err := out.Answer(ctx, ev.CallbackID, ""); err != nil {
			handleErr = errors.Join(handleErr, fmt.Errorf("answer callback: %w", err))
		}
	}

	attrs := []slog.Attr{
		slog.String("rule", rule.Name),
		slog.String("kind", string(ev.Kind)),
		slog.String("state", string(from)),
		slog.String("next_state", string(sess.State)),
		slog.Duration("duration", logger.Took(start)),
	}
	if ev.Kind == chat.KindCallback {
		attrs = append(attrs, slog.String("cb_key", ev.Tag))
	}
	if handleErr != nil {
		attrs = append(attrs,
			slog.String("status", "fail"),
			slog.String("error_kind", "delivery"),
			slog.Any("err", handleErr),
		)
		logger.LogEvent(ctx, logger.SVCDialog, slog.LevelWarn, "dialog.dispatch", attrs...)
		return fmt.Errorf("dialog %s: %w", rule.Name, handleErr)
	}
	attrs = append(attrs, slog.String("status", "ok"))
	logger.LogEvent(ctx, logger.SVCDialog, slog.LevelDebug, "dialog.dispatch", attrs...)
	return nil
}

// Stats exposes the session table for the ops endpoint.
func (r *Router) Stats() state.Stats {
	return r.store.Stats()
}

// ackOutbound lets at most one callback answer through.
type ackOutbound struct {
	chat.Outbound
	mu       sync.Mutex
	answered bool
}

func (a *ackOutbound) Answer(ctx context.Context, callbackID, toast string) error {
	a.mu.Lock()
	if a.answered {
		a.mu.Unlock()
		return nil
	}
	a.answered = true
	a.mu.Unlock()
	return a.Outbound.Answer(ctx, callbackID, toast)
}

func (a *ackOutbound) done() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.answered
}
