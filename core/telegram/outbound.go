package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/m3rciful/meteobot/core/chat"
	"github.com/m3rciful/meteobot/core/telegram/keyboard"
	"github.com/m3rciful/meteobot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// BotAPI is the subset of tele.API the outbound adapter needs.
type BotAPI interface {
	Send(to tele.Recipient, what any, opts ...any) (*tele.Message, error)
	Edit(msg tele.Editable, what any, opts ...any) (*tele.Message, error)
	EditReplyMarkup(msg tele.Editable, markup *tele.ReplyMarkup) (*tele.Message, error)
	Delete(msg tele.Editable) error
	Respond(c *tele.Callback, resp ...*tele.CallbackResponse) error
}

// Outbound implements chat.Outbound over the Bot API. When bound to an
// update context it feeds the per-update message counters.
type Outbound struct {
	api BotAPI
	upd tele.Context
}

var _ chat.Outbound = (*Outbound)(nil)

// NewOutbound binds api to the update c; c may be nil.
func NewOutbound(api BotAPI, c tele.Context) *Outbound {
	return &Outbound{api: api, upd: c}
}

func stored(ref chat.MessageRef) tele.StoredMessage {
	return tele.StoredMessage{MessageID: strconv.Itoa(ref.MessageID), ChatID: ref.ChatID}
}

// Send posts text with an optional inline keyboard.
func (o *Outbound) Send(ctx context.Context, chatID int64, text string, kb chat.Keyboard) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	opts := []any{}
	if markup := keyboard.Inline(kb); markup != nil {
		opts = append(opts, markup)
	}
	msg, err := o.api.Send(tele.ChatID(chatID), text, opts...)
	if err != nil {
		return 0, fmt.Errorf("telegram: send: %w", err)
	}
	o.count(len(opts) > 0)
	if msg == nil {
		return 0, nil
	}
	return msg.ID, nil
}

// Edit replaces text and keyboard. Unchanged content is not an error.
func (o *Outbound) Edit(ctx context.Context, ref chat.MessageRef, text string, kb chat.Keyboard) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !ref.Valid() {
		return fmt.Errorf("telegram: edit: invalid message ref %d/%d", ref.ChatID, ref.MessageID)
	}
	opts := []any{}
	if markup := keyboard.Inline(kb); markup != nil {
		opts = append(opts, markup)
	}
	if _, err := o.api.Edit(stored(ref), text, opts...); err != nil && !errors.Is(err, tele.ErrSameMessageContent) {
		return fmt.Errorf("telegram: edit: %w", err)
	}
	o.count(len(opts) > 0)
	return nil
}

// EditKeyboard replaces the inline keyboard; a nil kb strips it.
func (o *Outbound) EditKeyboard(ctx context.Context, ref chat.MessageRef, kb chat.Keyboard) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !ref.Valid() {
		return fmt.Errorf("telegram: edit markup: invalid message ref %d/%d", ref.ChatID, ref.MessageID)
	}
	markup := keyboard.Inline(kb)
	if markup == nil {
		markup = keyboard.Strip()
	}
	if _, err := o.api.EditReplyMarkup(stored(ref), markup); err != nil && !errors.Is(err, tele.ErrSameMessageContent) {
		return fmt.Errorf("telegram: edit markup: %w", err)
	}
	return nil
}

// Delete removes a message.
func (o *Outbound) Delete(ctx context.Context, ref chat.MessageRef) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !ref.Valid() {
		return nil
	}
	if err := o.api.Delete(stored(ref)); err != nil {
		return fmt.Errorf("telegram: delete: %w", err)
	}
	return nil
}

// Answer acknowledges a callback query, optionally with a toast.
func (o *Outbound) Answer(ctx context.Context, callbackID, toast string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cb := &tele.Callback{ID: callbackID}
	var err error
	if toast == "" {
		err = o.api.Respond(cb)
	} else {
		err = o.api.Respond(cb, &tele.CallbackResponse{Text: toast})
	}
	if err != nil {
		return fmt.Errorf("telegram: answer callback: %w", err)
	}
	return nil
}

func (o *Outbound) count(hasKB bool) {
	if o.upd != nil {
		middleware.IncMessages(o.upd, hasKB)
	}
}
