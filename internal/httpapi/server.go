// Package httpapi exposes the core to the UI surfaces (browser popup,
// settings page, qsctl) over a loopback HTTP API, plus an SSE event stream
// so surfaces know when to re-read state.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Server wraps the HTTP server and its routes.
type Server struct {
	http   *http.Server
	logger *zap.Logger
}

// New builds the HTTP server for the given handlers.
func New(listen string, h *Handlers, logger *zap.Logger) *Server {
	s := &http.Server{
		Addr:              listen,
		Handler:           Router(h, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
	return &Server{http: s, logger: logger}
}

// Router builds the chi router. Split out so tests can drive the routes
// without binding a port.
func Router(h *Handlers, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(accessLog(logger))

	r.Get("/healthz", h.Healthz)

	r.Route("/api", func(api chi.Router) {
		api.Group(func(g chi.Router) {
			g.Use(middleware.Timeout(10 * time.Second))

			g.Get("/contacts", h.ListContacts)
			g.Post("/contacts", h.AddContact)
			g.Delete("/contacts/{id}", h.DeleteContact)
			g.Post("/contacts/{id}/resend", h.ResendConfirmation)
			g.Post("/contacts/{id}/confirm", h.MarkConfirmed)

			g.Get("/links", h.ListLinks)
			g.Post("/links", h.SaveLink)

			g.Get("/preferences", h.GetPreferences)
			g.Put("/preferences", h.PutPreferences)

			g.Post("/digest/run", h.RunDigest)
			g.Get("/status", h.Status)
		})

		// Long-lived stream, outside the request timeout.
		api.Get("/events", h.Events)
	})

	return r
}

// Start runs the HTTP server. Blocks until shutdown or error.
func (s *Server) Start() error {
	s.logger.Info("http api listening", zap.String("addr", s.http.Addr))
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("http api shutting down")
	return s.http.Shutdown(ctx)
}
