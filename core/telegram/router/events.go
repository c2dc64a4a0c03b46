package router

import (
	"context"
	"time"

	"github.com/m3rciful/meteobot/core/chat"
	tg "github.com/m3rciful/meteobot/core/telegram"
	tghelpers "github.com/m3rciful/meteobot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// EventSink consumes normalized chat events.
type EventSink interface {
	Dispatch(ctx context.Context, out chat.Outbound, ev chat.Event) error
}

// EventRoutes binds every update kind the bot reacts to onto sink. The
// global middleware chain (see telegram.DefaultMiddlewares) runs first. Commands
// arrive through OnText; anything without a dedicated endpoint lands on
// OnMedia, OnSticker or OnContact and becomes a chat.KindOther event.
func EventRoutes(sink EventSink, reg *tg.Registry) []tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		ev, ok := tg.EventFromContext(c, reg)
		if !ok {
			summarize(c, "unroutable", start, "skip", nil)
			return nil
		}
		name := handlerName(ev)
		err := sink.Dispatch(tghelpers.WithHandler(c, name), tg.NewOutbound(c.Bot(), c), ev)
		summarize(c, name, start, "", err)
		return err
	}

	endpoints := []string{
		tele.OnText,
		tele.OnLocation,
		tele.OnCallback,
		tele.OnMedia,
		tele.OnSticker,
		tele.OnContact,
	}
	routes := make([]tg.Route, 0, len(endpoints))
	for _, ep := range endpoints {
		routes = append(routes, tg.Route{Endpoint: ep, Handler: handler})
	}
	return routes
}

func handlerName(ev chat.Event) string {
	switch ev.Kind {
	case chat.KindCommand:
		return slug(ev.Command)
	case chat.KindCallback:
		return "cb_" + slug(ev.Tag)
	}
	return string(ev.Kind)
}
