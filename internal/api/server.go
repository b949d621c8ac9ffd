package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	appconfig "github.com/bravola/insights/internal/config"
)

// Server wraps the HTTP server around the configured router.
type Server struct {
	config  appconfig.ServerConfig
	handler http.Handler
	server  *http.Server
}

// NewServer creates the API server listening on the configured host and port.
func NewServer(cfg appconfig.ServerConfig, h *Handlers) *Server {
	handler := SetupRoutes(h, cfg.AllowedOrigins)
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	return &Server{
		config:  cfg,
		handler: handler,
		server: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:           handler,
			ReadTimeout:       timeout,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      2 * timeout,
			IdleTimeout:       120 * time.Second,
		},
	}
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// ListenAndServe starts the HTTP server. It blocks until the server stops.
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.handler
}
