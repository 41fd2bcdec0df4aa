// Package server runs an HTTP handler with request logging and graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bobmcallan/wordspark-verify/internal/common"
)

// Server wraps http.Server with the middleware chain.
type Server struct {
	server *http.Server
	logger *common.Logger
}

// New creates a server for handler on addr. A nil logger discards output.
func New(addr string, handler http.Handler, logger *common.Logger) *Server {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	s := &Server{logger: logger}
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.withMiddleware(handler),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// verify_flow can hold a request for a whole browser run.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info().
		Str("address", s.server.Addr).
		Str("url", fmt.Sprintf("http://%s", s.server.Addr)).
		Msg("HTTP server starting")

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info().Msg("HTTP server stopped")
	return nil
}

// Handler returns the wrapped handler for testing.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}
