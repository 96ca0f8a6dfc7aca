// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// DefaultShutdownTimeout bounds graceful shutdown of in-flight requests.
const DefaultShutdownTimeout = 10 * time.Second

// ServerConfig configures a Server.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// ShutdownTimeout bounds graceful shutdown once the serve context is
	// canceled. Zero means DefaultShutdownTimeout.
	ShutdownTimeout time.Duration

	// Middleware, when set, wraps the assembled routes. Used for bearer
	// auth on the public surface.
	Middleware func(http.Handler) http.Handler
}

// Server assembles all HTTP routes and owns the listener lifecycle: it
// serves until the context given to Serve is canceled, then shuts down
// gracefully.
type Server struct {
	cfg    ServerConfig
	mux    *http.ServeMux
	logger *slog.Logger

	addr chan net.Addr
}

// NewServer builds a Server with the standard route set from NewMux.
// Additional routes may be added with Handle before Serve is called.
func NewServer(cfg ServerConfig, mux *http.ServeMux, logger *slog.Logger) *Server {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:    cfg,
		mux:    mux,
		logger: logger,
		addr:   make(chan net.Addr, 1),
	}
}

// Handle registers an extra route on the underlying mux. Must be called
// before Serve.
func (s *Server) Handle(pattern string, h http.Handler) {
	s.mux.Handle(pattern, h)
}

// Serve listens on the configured address and serves until ctx is
// canceled, then drains in-flight requests within the shutdown timeout.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.addr <- ln.Addr()

	var handler http.Handler = s.mux
	if s.cfg.Middleware != nil {
		handler = s.cfg.Middleware(handler)
	}
	srv := &http.Server{Handler: handler}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()
	s.logger.Info("serving", slog.String("addr", ln.Addr().String()))

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("http shutdown error", slog.Any("error", err))
	}
	if err := <-serveErr; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr reports the bound listen address once Serve has started listening.
func (s *Server) Addr(ctx context.Context) (net.Addr, error) {
	select {
	case a := <-s.addr:
		s.addr <- a
		return a, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
