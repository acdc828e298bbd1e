package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	core_ports "github.com/maincoong/cleophee-centrist-api/internal/core/port"
)

type Server struct {
	httpServer *http.Server
	logger     core_ports.LoggerPort
}

// NewRouter wires middleware and routes. Split from NewServer so tests can
// drive the router through httptest without binding a port.
func NewRouter(handlers *ListingHandlers, allowedOrigins []string, baseLogger core_ports.LoggerPort) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP, LoggerMiddleware(baseLogger), middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Trace-ID"},
		MaxAge:         300,
	}))

	r.Get("/healthz", handlers.HandleHealthz)
	r.Route("/api", func(r chi.Router) {
		r.Get("/listing", handlers.HandleGetListing)
	})

	return r
}

func NewServer(port string, handlers *ListingHandlers, allowedOrigins []string, baseLogger core_ports.LoggerPort) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:    ":" + port,
			Handler: NewRouter(handlers, allowedOrigins, baseLogger),
		},
		logger: baseLogger,
	}
}

// Start blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Info("Starting REST API server", core_ports.Fields{"address": s.httpServer.Addr})
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("Could not start server", err, nil)
		return fmt.Errorf("could not start server: %w", err)
	}
	return nil
}

// Stop drains in-flight requests until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping REST API server...", nil)
	return s.httpServer.Shutdown(ctx)
}
