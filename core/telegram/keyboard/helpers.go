package keyboard

import (
	"github.com/m3rciful/meteobot/core/chat"

	tele "gopkg.in/telebot.v4"
)

// Inline converts a transport-neutral keyboard into inline markup. Buttons
// carry their action as raw callback data so every press reaches OnCallback.
// An empty keyboard yields nil.
func Inline(kb chat.Keyboard) *tele.ReplyMarkup {
	if len(kb) == 0 {
		return nil
	}
	rows := make([][]tele.InlineButton, 0, len(kb))
	for _, row := range kb {
		if len(row) == 0 {
			continue
		}
		r := make([]tele.InlineButton, 0, len(row))
		for _, b := range row {
			r = append(r, tele.InlineButton{Text: b.Text, Data: b.Action})
		}
		rows = append(rows, r)
	}
	if len(rows) == 0 {
		return nil
	}
	return &tele.ReplyMarkup{InlineKeyboard: rows}
}

// Strip returns markup that removes an inline keyboard when editing.
func Strip() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{}
}
