// Package server exposes the dbchat service over HTTP.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/koustreak/dbchat/internal/logger"
	"github.com/koustreak/dbchat/internal/observability"
	"github.com/koustreak/dbchat/internal/service"
)

// Config holds the listener settings.
type Config struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server is the HTTP surface over a service.Service.
type Server struct {
	cfg Config
	svc *service.Service
	log *logger.Logger
}

// New returns a Server for svc.
func New(cfg Config, svc *service.Service, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{cfg: cfg, svc: svc, log: log}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.LoggingMiddleware(s.log))
	r.Use(observability.MetricsMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Method(http.MethodGet, "/metrics", observability.MetricsHandler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/connections", func(r chi.Router) {
			r.Get("/", s.handleListConnections)
			r.Post("/", s.handleAddConnection)
			r.Route("/{name}", func(r chi.Router) {
				r.Delete("/", s.handleDeleteConnection)
				r.Get("/schema", s.handleSchema)
				r.Post("/query", s.handleQuery)
				r.Post("/ask", s.handleAsk)
				r.Get("/tables/{table}/preview", s.handlePreview)
			})
		})
		r.Post("/chat", s.handleChat)
		r.Get("/history", s.handleListHistory)
		r.Post("/history", s.handleSaveHistory)
		r.Delete("/history/{id}", s.handleDeleteHistory)
	})

	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Address,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return s.log.WithContext(context.Background()) },
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("starting http server on %s", s.cfg.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.log.Info("shutting down http server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		_ = srv.Close()
		return err
	}
	return nil
}
