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

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-trustvault/internal/config"
	"github.com/jeremyhahn/go-trustvault/internal/rest"
	"github.com/jeremyhahn/go-trustvault/pkg/approval"
	"github.com/jeremyhahn/go-trustvault/pkg/audit"
	"github.com/jeremyhahn/go-trustvault/pkg/broker"
	"github.com/jeremyhahn/go-trustvault/pkg/health"
	"github.com/jeremyhahn/go-trustvault/pkg/logging"
	"github.com/jeremyhahn/go-trustvault/pkg/metrics"
	"github.com/jeremyhahn/go-trustvault/pkg/storage/memory"
	"github.com/jeremyhahn/go-trustvault/pkg/vault"
)

// EnvConfigPath overrides the --config flag when set.
const EnvConfigPath = "TRUSTVAULT_CONFIG"

// shutdownGrace is how long in-flight requests get to finish.
const shutdownGrace = 10 * time.Second

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the trustvault broker server",
	Long: `Start the HTTP server that exposes the vault, audit trail,
approval workflow and gated secret-recovery operations to the desktop
shell. Configuration problems, including a missing approval signing
secret, are fatal.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
	path := configFile
	if envPath := os.Getenv(EnvConfigPath); envPath != "" {
		path = envPath
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	debug := verbose || cfg.Logging.Level == "debug"
	logger := logging.NewLogger(debug)
	logger.Info("configuration loaded", "path", path)

	if !cfg.Metrics.Enabled {
		metrics.Disable()
	}

	sink, err := audit.NewFileSink(cfg.Audit.LogPath)
	if err != nil {
		return err
	}
	trail := audit.New(sink)

	store := memory.New()
	kdf := vault.KDFParams{
		Time:      uint32(cfg.Vault.KDFTime),
		MemoryKiB: uint32(cfg.Vault.KDFMemoryKiB),
		Threads:   uint8(cfg.Vault.KDFThreads),
	}
	v := vault.New(store, &kdf)

	workflow, err := approval.New(&approval.Config{
		SigningSecret: []byte(cfg.Approval.SigningSecret),
		TokenTTL:      time.Duration(cfg.Approval.TokenTTLMinutes) * time.Minute,
		Recorder:      trail,
	})
	if err != nil {
		return err
	}

	b := broker.New(v, trail, workflow, logger)

	checker := health.NewChecker()
	checker.RegisterCheck("audit", func(ctx context.Context) health.CheckResult {
		if _, err := trail.Query(audit.Filter{"outcome": "__none__"}); err != nil {
			return health.CheckResult{Status: health.StatusUnhealthy, Error: err.Error()}
		}
		return health.CheckResult{Status: health.StatusHealthy}
	})

	var jwtSecret []byte
	if cfg.Auth.Enabled && cfg.Auth.Type == "jwt" && cfg.Auth.JWT != nil {
		jwtSecret = []byte(cfg.Auth.JWT.Secret)
	}

	server, err := rest.NewServer(&rest.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		Version:      Version,
		Vault:        v,
		Trail:        trail,
		Workflow:     workflow,
		Broker:       b,
		Checker:      checker,
		JWTSecret:    jwtSecret,
		Logger:       logger,
		Metrics:      cfg.Metrics.Enabled,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()
	checker.MarkStarted()

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-shutdownCtx.Done():
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		return err
	}

	if err := v.Close(); err != nil {
		logger.MaybeError(err)
	}
	if err := trail.Close(); err != nil {
		logger.MaybeError(err)
	}

	fmt.Fprintln(os.Stderr, "trustvault stopped")
	return nil
}
