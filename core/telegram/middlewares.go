package telegram

import "github.com/m3rciful/meteobot/core/telegram/middleware"

// DefaultMiddlewares builds the global chain: panic recovery, request
// context and receipt logging, outbound counters.
func DefaultMiddlewares() []Middleware {
	return []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
		{Name: "logger", Use: middleware.LoggerMiddleware},
		{Name: "metrics", Use: middleware.MessageMetricsMiddleware},
	}
}
