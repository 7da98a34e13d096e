// Copyright (c) 2025 CertNode
//
// This file is part of certnode-go.
//
// Licensed under the Apache License, Version 2.0.
// See the LICENSE file for details.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/certnode/certnode-go/internal/config"
	"github.com/certnode/certnode-go/internal/rest"
	"github.com/certnode/certnode-go/pkg/jwk"
	"github.com/certnode/certnode-go/pkg/logging"
)

var (
	// Version information (set during build)
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	// Show version if requested
	if *showVersion {
		fmt.Printf("certnode receipt server\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Git Commit: %s\n", commit)
		fmt.Printf("  Built:      %s\n", date)
		os.Exit(0)
	}

	// Check for config file override via environment
	if envConfig := os.Getenv("CERTNODE_CONFIG"); envConfig != "" {
		*configPath = envConfig
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(&logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	logger.Info("starting receipt server",
		"version", version,
		"config", *configPath)

	// Load or generate the signing key
	signingKey, err := loadSigningKey(cfg.Signing)
	if err != nil {
		logger.Error("failed to load signing key", "error", err)
		os.Exit(1)
	}
	logger.Info("signing key ready",
		"kid", signingKey.Kid,
		"kty", signingKey.Kty)

	srv, err := rest.NewServer(&rest.Config{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        version,
		SigningKey:     signingKey,
		JWKSURL:        cfg.JWKS.URL,
		JWKSTTL:        cfg.JWKS.TTL,
		Logger:         logger,
		MetricsEnabled: cfg.Metrics.Enabled,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
	})
	if err != nil {
		logger.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	// Setup signal handler for graceful shutdown
	shutdownCtx := setupSignalHandler(logger)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-shutdownCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		logger.Error("server error", "error", err)
	}

	shutdownTimeout, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Stop(shutdownTimeout); err != nil {
		logger.Error("error during shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("receipt server stopped")
}

// loadSigningKey reads the private JWK from disk, or generates an
// ephemeral key when no key file is configured.
func loadSigningKey(cfg config.SigningConfig) (*jwk.Key, error) {
	if cfg.KeyFile != "" {
		data, err := os.ReadFile(cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read key file %s: %w", cfg.KeyFile, err)
		}
		key, err := jwk.Unmarshal(data)
		if err != nil {
			return nil, err
		}
		if !key.IsPrivate() {
			return nil, fmt.Errorf("key file %s does not contain a private key", cfg.KeyFile)
		}
		return key, nil
	}

	switch strings.ToUpper(cfg.Algorithm) {
	case "EDDSA":
		return jwk.GenerateEd25519()
	default:
		return jwk.GenerateES256()
	}
}

// setupSignalHandler sets up signal handling for graceful shutdown
func setupSignalHandler(logger *logging.Logger) context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-signalCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	return ctx
}
