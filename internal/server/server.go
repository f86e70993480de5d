// Package server serves the demo graph over HTTP so the per-browser
// settings cookie and the interactive skin can be tried out.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/conduit-lang/vardump/pkg/vardump"
	"go.uber.org/zap"
)

// Config holds server configuration
type Config struct {
	// Address is the listen address (e.g., ":8080")
	Address string

	// Inspector renders the dumps. Its settings are the base every request
	// cookie is layered on.
	Inspector *vardump.Inspector

	// Value returns the value dumped on the index page. It is called once
	// per request.
	Value func() any

	Logger *zap.Logger

	// Timeouts
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ReadHeaderTimeout time.Duration
}

// DefaultConfig returns a server configuration with sane timeouts.
func DefaultConfig(vd *vardump.Inspector, value func() any) *Config {
	return &Config{
		Address:           ":8080",
		Inspector:         vd,
		Value:             value,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Server is the demo HTTP server.
type Server struct {
	httpServer *http.Server
	config     *Config
	listener   net.Listener
	logger     *zap.Logger
}

// New creates a server instance
func New(config *Config) (*Server, error) {
	if config == nil {
		return nil, fmt.Errorf("server config cannot be nil")
	}
	if config.Inspector == nil {
		return nil, fmt.Errorf("inspector cannot be nil")
	}
	if config.Value == nil {
		return nil, fmt.Errorf("value func cannot be nil")
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{config: config, logger: logger}
	s.httpServer = &http.Server{
		Addr:              config.Address,
		Handler:           s.Routes(),
		ReadTimeout:       config.ReadTimeout,
		WriteTimeout:      config.WriteTimeout,
		IdleTimeout:       config.IdleTimeout,
		ReadHeaderTimeout: config.ReadHeaderTimeout,
	}
	return s, nil
}

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	s.listener = listener

	s.logger.Info("serving demo", zap.String("addr", listener.Addr().String()))
	if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the server's network address
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.Address
}
