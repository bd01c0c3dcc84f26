// Netpulse - Personal Internet Connection Quality Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netpulse

package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/tomtom215/netpulse/internal/config"
	"github.com/tomtom215/netpulse/internal/logging"
)

// Server runs the HTTP API under supervision. Implements
// suture.Service.
type Server struct {
	handler *Handler
	cfg     *config.ServerConfig
}

// NewServer builds the supervised HTTP server.
func NewServer(handler *Handler, cfg *config.ServerConfig) *Server {
	return &Server{handler: handler, cfg: cfg}
}

// Serve listens until the context is canceled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context) error {
	timeout := s.cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler.Routes(),
		ReadTimeout:       timeout,
		WriteTimeout:      timeout,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * timeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", addr).Msg("HTTP API listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	logging.Info().Msg("HTTP API stopped")
	return ctx.Err()
}
