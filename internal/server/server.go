// Package server exposes the evaluated boards over HTTP and websocket.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/prop-edge/internal/config"
	"github.com/yourusername/prop-edge/internal/database"
	"github.com/yourusername/prop-edge/internal/metrics"
	"github.com/yourusername/prop-edge/internal/service"
	"github.com/yourusername/prop-edge/internal/stream"
)

// Server wraps the HTTP server and its routes.
type Server struct {
	cfg       *config.Config
	evaluator *service.Evaluator
	hub       *stream.Hub
	db        *database.DB
	logger    *logrus.Logger
	http      *http.Server
}

// New creates a server with all routes mounted. The hub and db may be nil.
func New(cfg *config.Config, evaluator *service.Evaluator, hub *stream.Hub, db *database.DB, logger *logrus.Logger) *Server {
	s := &Server{
		cfg:       cfg,
		evaluator: evaluator,
		hub:       hub,
		db:        db,
		logger:    logger,
	}

	timeout := time.Duration(cfg.Server.TimeoutSeconds) * time.Second

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	allowedOrigins := cfg.Server.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	if cfg.Metrics.Enabled {
		path := cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Board requests run a full evaluation on a cache miss, so they get
		// a longer leash than the default.
		r.Use(middleware.Timeout(timeout))
		r.Get("/props/{sport}", s.handleBoard)
		r.Get("/props/{sport}/markets/{marketID}", s.handleMarket)
	})

	if hub != nil {
		r.Get("/ws", s.handleStream)
	}

	s.http = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: timeout + 5*time.Second,
	}

	return s
}

// Start begins serving and blocks until the listener fails or is shut down.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.http.Addr).Info("HTTP server listening")
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
