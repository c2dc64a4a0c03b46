package telegram

import (
	"strconv"
	"strings"

	"github.com/m3rciful/meteobot/core/chat"
	"github.com/m3rciful/meteobot/core/telegram/callbacks"

	tele "gopkg.in/telebot.v4"
)

// EventFromContext normalizes the update in c. Commands are resolved through
// reg so aliases reach the dialog under their canonical name. It reports
// false for updates without a chat or sender.
func EventFromContext(c tele.Context, reg *Registry) (chat.Event, bool) {
	tgChat, sender := c.Chat(), c.Sender()
	if tgChat == nil || sender == nil {
		return chat.Event{}, false
	}
	ev := chat.Event{ChatID: tgChat.ID, UserID: sender.ID}

	if cb := c.Callback(); cb != nil {
		ev.Kind = chat.KindCallback
		ev.CallbackID = cb.ID
		ev.Tag = callbacks.Tag(c)
		if cb.Message != nil {
			ev.MessageID = cb.Message.ID
		}
		return ev, true
	}

	msg := c.Message()
	if msg == nil {
		return chat.Event{}, false
	}
	ev.MessageID = msg.ID

	switch {
	case msg.Location != nil:
		ev.Kind = chat.KindLocation
		ev.Latitude = widen(msg.Location.Lat)
		ev.Longitude = widen(msg.Location.Lng)
	case strings.HasPrefix(strings.TrimSpace(msg.Text), "/"):
		name, ok := chat.ParseCommand(msg.Text)
		if !ok {
			ev.Kind = chat.KindText
			ev.Text = msg.Text
			break
		}
		if key, _, found := reg.LookupCommand(name); found {
			name = key
		}
		ev.Kind = chat.KindCommand
		ev.Command = name
		ev.Text = msg.Text
	case msg.Text != "":
		ev.Kind = chat.KindText
		ev.Text = msg.Text
	default:
		ev.Kind = chat.KindOther
	}
	return ev, true
}

// widen converts a float32 coordinate to float64 without picking up binary
// noise, so 55.75 stays 55.75 rather than 55.75000000000001.
func widen(v float32) float64 {
	f, err := strconv.ParseFloat(strconv.FormatFloat(float64(v), 'f', -1, 32), 64)
	if err != nil {
		return float64(v)
	}
	return f
}
