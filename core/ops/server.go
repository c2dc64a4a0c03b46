// Package ops serves the operational HTTP endpoint: liveness and a JSON
// snapshot of runtime statistics.
package ops

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/m3rciful/meteobot/core/logger"
)

// StatsProvider returns a JSON-serializable snapshot.
type StatsProvider func(ctx context.Context) (any, error)

// NewRouter wires the ops routes.
func NewRouter(stats StatsProvider) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(accessLog)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/stats", func(w http.ResponseWriter, req *http.Request) {
		if stats == nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "stats unavailable"})
			return
		}
		snapshot, err := stats(req.Context())
		if err != nil {
			logger.LogEvent(req.Context(), logger.OPS, slog.LevelWarn, "ops.stats",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
			respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "stats failed"})
			return
		}
		respondJSON(w, http.StatusOK, snapshot)
	})
	return r
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		if !logger.ShouldSampleDebug() {
			return
		}
		logger.LogEvent(r.Context(), logger.OPS, slog.LevelDebug, "ops.request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("http_code", ww.Status()),
			slog.String("req_id", middleware.GetReqID(r.Context())),
			slog.Duration("duration", logger.Took(start)),
		)
	})
}

// Server runs the ops router on its own listener.
type Server struct {
	srv *http.Server
	ln  net.Listener
}

// Start listens on addr and serves in the background.
func Start(addr string, stats StatsProvider) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("ops: listen %s: %w", addr, err)
	}
	s := &Server{
		srv: &http.Server{Handler: NewRouter(stats), ReadHeaderTimeout: 5 * time.Second},
		ln:  ln,
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.OPS.Error("ops server stopped",
				slog.String("event", "ops.serve"),
				slog.String("err", err.Error()),
			)
		}
	}()
	logger.OPS.Info("ops server listening",
		slog.String("event", "ops.start"),
		slog.String("listen", ln.Addr().String()),
	)
	return s, nil
}

// Addr returns the bound address.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("ops: shutdown: %w", err)
	}
	return nil
}
