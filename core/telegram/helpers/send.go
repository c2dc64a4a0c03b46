package helpers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/m3rciful/meteobot/core/logger"
	"github.com/m3rciful/meteobot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

// TextSender is the part of tele.API used for plain notifications.
type TextSender interface {
	Send(to tele.Recipient, what any, opts ...any) (*tele.Message, error)
}

// Notify delivers a plain text message to chatID through the dispatcher.
// A full or closed queue falls back to a synchronous send; a nil dispatcher
// always sends synchronously.
func Notify(ctx context.Context, d *sender.Dispatcher, api TextSender, chatID int64, text string) error {
	run := func(context.Context) error {
		_, err := api.Send(tele.ChatID(chatID), text)
		return err
	}
	if d == nil {
		return run(ctx)
	}
	err := d.Enqueue(ctx, "notify", run)
	if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("action", "notify"),
			slog.Int64("chat_id", chatID),
			slog.String("err", err.Error()),
		)
		if err := run(ctx); err != nil {
			return fmt.Errorf("notify: %w", err)
		}
		return nil
	}
	return err
}
