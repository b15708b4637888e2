// Package rest exposes listening party state over HTTP.
package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/humbleledger/internal/app/lp"
	"github.com/osa030/humbleledger/internal/app/notification"
)

// Sessions reads listening party state.
type Sessions interface {
	State(channelID string, offset time.Duration) (lp.Session, lp.PlayState, bool)
	Snapshot() map[string]lp.Session
	Now() time.Time
}

// Broadcaster publishes ready events.
type Broadcaster interface {
	Broadcast(ctx context.Context, ev notification.ReadyEvent) notification.ReadyEvent
}

// Config holds server settings.
type Config struct {
	Addr       string
	AdminToken string
}

// Server is the HTTP status server.
type Server struct {
	router   chi.Router
	server   *http.Server
	sessions Sessions
	notifier Broadcaster
}

// NewServer creates a new status server.
func NewServer(cfg Config, sessions Sessions, notifier Broadcaster) *Server {
	router := chi.NewRouter()
	s := &Server{
		router:   router,
		sessions: sessions,
		notifier: notifier,
	}

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)

	router.Get("/healthz", s.healthz)
	router.Route("/api/v1/sessions", func(r chi.Router) {
		r.Get("/", s.listSessions)
		r.Get("/{channelID}", s.getSession)
		r.With(AdminAuth(cfg.AdminToken)).Post("/{channelID}/start", s.startSession)
	})

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the server's router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	zlog.Info().Msgf("Status API listening: addr=%s", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "status api server failed")
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zlog.Debug().Msgf("HTTP %s %s: status=%d duration=%s request_id=%s",
			r.Method, r.URL.Path, ww.Status(), time.Since(start), middleware.GetReqID(r.Context()))
	})
}
