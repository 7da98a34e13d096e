// Copyright (c) 2025 CertNode
//
// This file is part of certnode-go.
//
// Licensed under the Apache License, Version 2.0.
// See the LICENSE file for details.

// Package rest exposes receipt signing and verification over HTTP:
// POST /api/v1/receipts, POST /api/v1/verify, the JWKS well-known
// endpoint, health, and Prometheus metrics.
package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/certnode/certnode-go/pkg/jwk"
	"github.com/certnode/certnode-go/pkg/jwks"
	"github.com/certnode/certnode-go/pkg/logging"
)

// Config holds the REST server configuration.
type Config struct {
	// Host is the listen address (default 0.0.0.0)
	Host string

	// Port is the HTTP port (default 8080)
	Port int

	// Version is the API version string reported by /health
	Version string

	// SigningKey is the private JWK used by the signing endpoint (required)
	SigningKey *jwk.Key

	// JWKSURL enables verification against a remote key set (optional)
	JWKSURL string

	// JWKSTTL is the remote key set cache lifetime (optional)
	JWKSTTL time.Duration

	// Logger is the structured logger (optional)
	Logger *logging.Logger

	// MetricsEnabled mounts /metrics when true
	MetricsEnabled bool

	// ReadTimeout, WriteTimeout, IdleTimeout bound connection lifecycles
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Server is the receipt REST API server.
type Server struct {
	server   *http.Server
	handlers *HandlerContext
	logger   *logging.Logger
}

// NewServer creates the server and its router.
func NewServer(cfg *Config) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("rest: config is required")
	}
	if cfg.SigningKey == nil || !cfg.SigningKey.IsPrivate() {
		return nil, fmt.Errorf("rest: a private signing key is required")
	}

	if cfg.Host == "" {
		cfg.Host = "0.0.0.0"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 15 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 15 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 60 * time.Second
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	var manager *jwks.Manager
	if cfg.JWKSURL != "" {
		manager = jwks.NewManager(&jwks.ManagerOptions{TTL: cfg.JWKSTTL})
	}

	handlers := NewHandlerContext(cfg.Version, cfg.SigningKey, manager, cfg.JWKSURL, logger)

	srv := &Server{
		handlers: handlers,
		logger:   logger,
	}
	srv.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      srv.router(cfg.MetricsEnabled),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return srv, nil
}

func (s *Server) router(metricsEnabled bool) http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(requestLogger(s.logger))

	r.Get("/health", s.handlers.HealthHandler)
	r.Get("/.well-known/jwks.json", s.handlers.JWKSHandler)
	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/receipts", s.handlers.SignHandler)
		r.Post("/verify", s.handlers.VerifyHandler)
	})
	return r
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start begins serving. It blocks until the listener fails or Stop is
// called.
func (s *Server) Start() error {
	s.logger.Info("receipt server listening", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("rest: server failed: %w", err)
	}
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("receipt server stopping")
	return s.server.Shutdown(ctx)
}
