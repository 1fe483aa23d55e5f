// Package server provides the HTTP server and routing for the booth
// sampling service.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/boothmap/internal/config"
	"github.com/aristath/boothmap/internal/events"
	runshandlers "github.com/aristath/boothmap/internal/modules/runs/handlers"
)

// Config holds the server's collaborators
type Config struct {
	Log          zerolog.Logger
	Config       *config.Config
	Bus          *events.Bus
	RunsHandler  *runshandlers.Handler
	SystemStatus *SystemHandlers
}

// Server is the HTTP front of the service
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
}

// New creates the HTTP server and mounts all routes
func New(cfg Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		log:    cfg.Log.With().Str("component", "server").Logger(),
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(120 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	eventsStream := NewEventsStreamHandler(cfg.Bus, s.log)

	s.router.Route("/api", func(r chi.Router) {
		cfg.RunsHandler.RegisterRoutes(r)
		r.Get("/events", eventsStream.ServeHTTP)
		r.Get("/system/status", cfg.SystemStatus.HandleSystemStatus)
		r.Get("/health", handleHealth)
	})

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Config.Port),
		Handler: s.router,
	}
	return s
}

// Router exposes the mux for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// Start blocks serving HTTP until Shutdown is called
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"status":"ok"}`)
}
