// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-trustvault.
//
// go-trustvault is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jeremyhahn/go-trustvault/pkg/approval"
	"github.com/jeremyhahn/go-trustvault/pkg/audit"
	"github.com/jeremyhahn/go-trustvault/pkg/broker"
	"github.com/jeremyhahn/go-trustvault/pkg/health"
	"github.com/jeremyhahn/go-trustvault/pkg/logging"
	"github.com/jeremyhahn/go-trustvault/pkg/metrics"
	"github.com/jeremyhahn/go-trustvault/pkg/vault"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server represents the broker REST API server.
type Server struct {
	server    *http.Server
	handlers  *HandlerContext
	host      string
	port      int
	jwtSecret []byte
	logger    *logging.Logger
	metricsOn bool
}

// Config holds the REST server configuration.
type Config struct {
	// Host is the interface to bind (default: 127.0.0.1)
	Host string

	// Port is the HTTP port to listen on (default: 8460)
	Port int

	// Version is the API version string
	Version string

	// Vault is the secret vault instance
	Vault *vault.Vault

	// Trail is the audit trail instance
	Trail *audit.Trail

	// Workflow is the approval workflow instance
	Workflow *approval.Workflow

	// Broker is the gated-retrieval orchestrator
	Broker *broker.Broker

	// Checker manages health probes (optional; one is created if nil)
	Checker *health.Checker

	// JWTSecret enables bearer-token authentication when non-empty
	JWTSecret []byte

	// Logger is the logging instance (optional)
	Logger *logging.Logger

	// Metrics exposes /metrics when true
	Metrics bool

	// ReadTimeout is the maximum duration for reading the entire request
	ReadTimeout time.Duration

	// WriteTimeout is the maximum duration before timing out writes
	WriteTimeout time.Duration

	// IdleTimeout is the maximum amount of time to wait for the next request
	IdleTimeout time.Duration
}

// NewServer creates a new REST API server.
func NewServer(cfg *Config) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.Vault == nil || cfg.Trail == nil || cfg.Workflow == nil || cfg.Broker == nil {
		return nil, fmt.Errorf("vault, trail, workflow and broker are required")
	}

	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8460
	}
	if cfg.Version == "" {
		cfg.Version = "1.0.0"
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

	log := cfg.Logger
	if log == nil {
		log = logging.DefaultLogger()
	}

	checker := cfg.Checker
	if checker == nil {
		checker = health.NewChecker()
		checker.MarkStarted()
	}

	handlers := NewHandlerContext(cfg.Vault, cfg.Trail, cfg.Workflow, cfg.Broker, checker, cfg.Version)

	server := &Server{
		handlers:  handlers,
		host:      cfg.Host,
		port:      cfg.Port,
		jwtSecret: cfg.JWTSecret,
		logger:    log,
		metricsOn: cfg.Metrics,
	}

	router := server.setupRouter()

	server.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return server, nil
}

// Router returns the configured router; used by tests to drive the
// handlers without a listening socket.
func (s *Server) Router() http.Handler {
	return s.server.Handler
}

// setupRouter configures the chi router with all routes and middleware.
func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(s.RecoveryMiddleware())
	r.Use(s.CorrelationMiddleware())
	r.Use(s.LoggingMiddleware())
	r.Use(metrics.HTTPMiddleware)

	// Health probes (no auth required)
	r.Get("/health", s.handlers.HealthHandler)
	r.Get("/health/live", s.handlers.LivenessHandler)
	r.Get("/health/ready", s.handlers.ReadinessHandler)

	if s.metricsOn {
		r.Handle("/metrics", promhttp.Handler())
	}

	// API v1 routes with authentication
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.AuthenticationMiddleware())

		// Vault endpoints
		r.Post("/vault/init", s.handlers.InitVaultHandler)
		r.Post("/vault/secrets", s.handlers.StoreSecretHandler)
		r.Get("/vault/secrets/{key}", s.handlers.RetrieveSecretHandler)

		// Audit endpoints
		r.Post("/audit/entries", s.handlers.AppendAuditHandler)
		r.Get("/audit/entries", s.handlers.QueryAuditHandler)

		// Approval workflow endpoints
		r.Post("/approvals", s.handlers.CreateApprovalHandler)
		r.Get("/approvals", s.handlers.ListApprovalsHandler)
		r.Post("/approvals/{id}/votes", s.handlers.ApplyApprovalHandler)
		r.Get("/approvals/{id}", s.handlers.CheckApprovalHandler)

		// Broker gated-retrieval endpoints
		r.Post("/secrets/request", s.handlers.RequestSecretHandler)
		r.Post("/secrets/collect", s.handlers.CollectSecretHandler)
	})

	return r
}

// Start starts the REST API server.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server",
		"host", s.host,
		"port", s.port,
		"auth", len(s.jwtSecret) > 0)

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully stops the REST API server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("shutting down server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}
