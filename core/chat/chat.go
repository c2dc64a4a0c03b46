// Package chat describes inbound chat events and the outbound reply surface
// without depending on a concrete messenger SDK.
package chat

import (
	"context"
	"strings"
)

// Kind identifies the shape of an inbound event.
type Kind string

const (
	// KindCommand is a text message starting with a slash.
	KindCommand Kind = "command"
	// KindCallback is an inline button press.
	KindCallback Kind = "callback"
	// KindText is a plain text message.
	KindText Kind = "text"
	// KindLocation is a shared geolocation.
	KindLocation Kind = "location"
	// KindOther covers any other message content (photos, stickers, files).
	KindOther Kind = "other"
)

// MessageRef addresses a single message in a chat.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// Valid reports whether the reference points at an actual message.
func (r MessageRef) Valid() bool {
	return r.ChatID != 0 && r.MessageID != 0
}

// Event is a normalized inbound update.
type Event struct {
	Kind   Kind
	ChatID int64
	UserID int64
	// MessageID is the user's message for message events and the bot message
	// carrying the pressed button for callbacks.
	MessageID int

	// Command is the lowercased command name with the leading slash, e.g. "/start".
	Command string
	// CallbackID identifies the callback query to acknowledge.
	CallbackID string
	// Tag is the opaque action carried by the pressed button.
	Tag  string
	Text string

	Latitude  float64
	Longitude float64
}

// Key returns the routing key of the event: the command name for commands
// and the tag for callbacks.
func (e Event) Key() string {
	switch e.Kind {
	case KindCommand:
		return e.Command
	case KindCallback:
		return e.Tag
	}
	return ""
}

// Origin returns a reference to the message the event refers to.
func (e Event) Origin() MessageRef {
	return MessageRef{ChatID: e.ChatID, MessageID: e.MessageID}
}

// ParseCommand extracts a normalized command from message text. It strips the
// optional @botname suffix and any arguments.
func ParseCommand(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if len(text) < 2 || text[0] != '/' {
		return "", false
	}
	name := text
	if i := strings.IndexAny(name, " \t\n"); i >= 0 {
		name = name[:i]
	}
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	if len(name) < 2 {
		return "", false
	}
	return strings.ToLower(name), true
}

// Button is a single inline button.
type Button struct {
	Text   string
	Action string
}

// Keyboard is an inline keyboard laid out in rows. A nil Keyboard removes
// the markup when editing.
type Keyboard [][]Button

// Column builds a keyboard with one button per row.
func Column(buttons ...Button) Keyboard {
	kb := make(Keyboard, 0, len(buttons))
	for _, b := range buttons {
		kb = append(kb, []Button{b})
	}
	return kb
}

// Outbound is everything the bot can do in reply to an event.
type Outbound interface {
	// Send posts a new message and returns its id.
	Send(ctx context.Context, chatID int64, text string, kb Keyboard) (int, error)
	// Edit replaces text and keyboard of an existing message.
	Edit(ctx context.Context, ref MessageRef, text string, kb Keyboard) error
	// EditKeyboard replaces only the keyboard; nil strips it.
	EditKeyboard(ctx context.Context, ref MessageRef, kb Keyboard) error
	// Delete removes a message.
	Delete(ctx context.Context, ref MessageRef) error
	// Answer acknowledges a callback query with an optional toast.
	Answer(ctx context.Context, callbackID, toast string) error
}
