// Package dialog implements the weather conversation: the per-session state
// machine and the rule table that routes inbound events to it.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/m3rciful/meteobot/core/chat"
	"github.com/m3rciful/meteobot/core/logger"
	"github.com/m3rciful/meteobot/core/telegram/state"
	"github.com/m3rciful/meteobot/meteo/journal"
	"github.com/m3rciful/meteobot/meteo/messages"
	"github.com/m3rciful/meteobot/meteo/weather"
)

// Commands understood by the bot.
const (
	CommandStart = "/start"
	CommandMenu  = "/menu"
)

// Callback tags carried by inline buttons.
const (
	ActionMenu         = "menu"
	ActionCityFlow     = "weather_in_city"
	ActionLocationFlow = "weather_from_location"
	ActionCancel       = "cancel"
)

var (
	menuKeyboard = chat.Column(chat.Button{Text: messages.ButtonMenu, Action: ActionMenu})
	flowKeyboard = chat.Column(
		chat.Button{Text: messages.ButtonCityFlow, Action: ActionCityFlow},
		chat.Button{Text: messages.ButtonLocationFlow, Action: ActionLocationFlow},
	)
	cancelKeyboard = chat.Column(chat.Button{Text: messages.ButtonCancel, Action: ActionCancel})
	backKeyboard   = chat.Column(chat.Button{Text: messages.ButtonBackToMenu, Action: ActionMenu})
)

// WeatherService is the lookup surface the machine needs.
type WeatherService interface {
	ByCity(ctx context.Context, city string) (weather.Reading, error)
	ByCoordinates(ctx context.Context, lat, lon float64) (weather.Reading, error)
}

// Machine holds the transition handlers. Handlers mutate the session they
// are given; persisting and serializing sessions is the Router's job.
type Machine struct {
	weather WeatherService
	journal journal.Recorder
	now     func() time.Time
}

// NewMachine wires the machine. rec may be nil.
func NewMachine(svc WeatherService, rec journal.Recorder) *Machine {
	return &Machine{weather: svc, journal: rec, now: time.Now}
}

// Start greets the user.
func (m *Machine) Start(ctx context.Context, out chat.Outbound, ev chat.Event, _ *state.Session) error {
	if _, err := out.Send(ctx, ev.ChatID, messages.Greeting, menuKeyboard); err != nil {
		return fmt.Errorf("send greeting: %w", err)
	}
	return nil
}

// OpenMenu shows the flow buttons. When opened from a button, the button's
// keyboard is stripped first so it cannot be pressed twice.
func (m *Machine) OpenMenu(ctx context.Context, out chat.Outbound, ev chat.Event, _ *state.Session) error {
	var errs []error
	if ev.Kind == chat.KindCallback && ev.Origin().Valid() {
		if err := out.EditKeyboard(ctx, ev.Origin(), nil); err != nil {
			errs = append(errs, fmt.Errorf("strip menu button: %w", err))
		}
	}
	if _, err := out.Send(ctx, ev.ChatID, messages.Menu, flowKeyboard); err != nil {
		errs = append(errs, fmt.Errorf("send menu: %w", err))
	}
	return errors.Join(errs...)
}

// StartCityFlow turns the pressed menu into the city prompt.
func (m *Machine) StartCityFlow(ctx context.Context, out chat.Outbound, ev chat.Event, sess *state.Session) error {
	return m.startFlow(ctx, out, ev, sess, messages.CityPrompt, state.StateAwaitingCity)
}

// StartLocationFlow turns the pressed menu into the location prompt.
func (m *Machine) StartLocationFlow(ctx context.Context, out chat.Outbound, ev chat.Event, sess *state.Session) error {
	return m.startFlow(ctx, out, ev, sess, messages.LocationPrompt, state.StateAwaitingLocation)
}

func (m *Machine) startFlow(ctx context.Context, out chat.Outbound, ev chat.Event, sess *state.Session, prompt string, next state.State) error {
	var errs []error
	if err := out.Answer(ctx, ev.CallbackID, ""); err != nil {
		errs = append(errs, fmt.Errorf("answer callback: %w", err))
	}
	if err := out.Edit(ctx, ev.Origin(), prompt, cancelKeyboard); err != nil {
		// the prompt never reached the user; stay where we are
		errs = append(errs, fmt.Errorf("show prompt: %w", err))
		return errors.Join(errs...)
	}
	sess.PendingCity = ""
	sess.PendingLocation = nil
	sess.LastBotMessageID = ev.MessageID
	sess.State = next
	return errors.Join(errs...)
}

// Cancel abandons an active flow. It does nothing when the session is idle.
func (m *Machine) Cancel(ctx context.Context, out chat.Outbound, ev chat.Event, sess *state.Session) error {
	if !sess.Awaiting() {
		return nil
	}
	sess.Reset()

	var errs []error
	if err := out.Answer(ctx, ev.CallbackID, messages.ToastCancelled); err != nil {
		errs = append(errs, fmt.Errorf("answer cancel: %w", err))
	}
	if err := out.Edit(ctx, ev.Origin(), messages.Cancelled, flowKeyboard); err != nil {
		errs = append(errs, fmt.Errorf("show menu: %w", err))
	}
	return errors.Join(errs...)
}

// CityInput completes the city flow with the user's text.
func (m *Machine) CityInput(ctx context.Context, out chat.Outbound, ev chat.Event, sess *state.Session) error {
	defer sess.Reset()

	city := Capitalize(ev.Text)
	sess.PendingCity = city
	reading, err := m.weather.ByCity(ctx, city)
	return m.complete(ctx, out, ev, sess, lookup{
		mode:    journal.ModeCity,
		query:   city,
		display: city,
	}, reading, err)
}

// LocationInput completes the location flow with the shared coordinates.
func (m *Machine) LocationInput(ctx context.Context, out chat.Outbound, ev chat.Event, sess *state.Session) error {
	defer sess.Reset()

	sess.PendingLocation = &state.Coordinates{Latitude: ev.Latitude, Longitude: ev.Longitude}
	reading, err := m.weather.ByCoordinates(ctx, ev.Latitude, ev.Longitude)
	return m.complete(ctx, out, ev, sess, lookup{
		mode:    journal.ModeLocation,
		query:   fmt.Sprintf("%g,%g", ev.Latitude, ev.Longitude),
		display: reading.Name,
	}, reading, err)
}

// Unknown answers anything no rule accepts.
func (m *Machine) Unknown(ctx context.Context, out chat.Outbound, ev chat.Event, _ *state.Session) error {
	if _, err := out.Send(ctx, ev.ChatID, messages.UnknownCommand, menuKeyboard); err != nil {
		return fmt.Errorf("send unknown reply: %w", err)
	}
	return nil
}

// Unsupported acknowledges a button press nothing handles.
func (m *Machine) Unsupported(ctx context.Context, out chat.Outbound, ev chat.Event, _ *state.Session) error {
	if err := out.Answer(ctx, ev.CallbackID, messages.ToastUnsupported); err != nil {
		return fmt.Errorf("answer unsupported callback: %w", err)
	}
	return nil
}

type lookup struct {
	mode    string
	query   string
	display string
}

func (m *Machine) complete(ctx context.Context, out chat.Outbound, ev chat.Event, sess *state.Session, lk lookup, reading weather.Reading, lookupErr error) error {
	entry := journal.Entry{
		At:     m.now(),
		UserID: ev.UserID,
		ChatID: ev.ChatID,
		Mode:   lk.mode,
		Query:  lk.query,
	}

	var text string
	if lookupErr != nil {
		kind := weather.KindOf(lookupErr)
		logger.Warn(ctx, "service.dialog", "dialog.lookup_failed",
			slog.String("mode", lk.mode),
			slog.String("query", lk.query),
			slog.String("error_kind", kind.String()),
			slog.Any("err", lookupErr),
		)
		text = messages.LookupFailed()
		entry.Outcome = journal.OutcomeFailed
		entry.ErrorKind = kind.String()
	} else {
		text = messages.Report(lk.display, reading)
		entry.Outcome = journal.OutcomeOK
		entry.Place = reading.Name
		entry.TempC = reading.TemperatureC
	}

	var errs []error
	if _, err := out.Send(ctx, ev.ChatID, text, backKeyboard); err != nil {
		errs = append(errs, fmt.Errorf("send result: %w", err))
	}
	if sess.LastBotMessageID != 0 {
		ref := chat.MessageRef{ChatID: ev.ChatID, MessageID: sess.LastBotMessageID}
		if err := out.Delete(ctx, ref); err != nil {
			errs = append(errs, fmt.Errorf("delete prompt: %w", err))
		}
	}
	m.record(ctx, entry)
	return errors.Join(errs...)
}

func (m *Machine) record(ctx context.Context, entry journal.Entry) {
	if m.journal == nil {
		return
	}
	if err := m.journal.Record(ctx, entry); err != nil {
		logger.Warn(ctx, "service.journal", "journal.record",
			slog.String("status", "fail"),
			slog.String("mode", entry.Mode),
			slog.Any("err", err),
		)
	}
}

// Capitalize upper-cases the first letter and lower-cases the rest, after
// trimming surrounding whitespace.
func Capitalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToTitle(r)) + strings.ToLower(s[size:])
}
