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

// Package config loads and validates the server configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EnvSigningSecret overrides approval.signing_secret when set. Secrets
// injected through the environment stay out of config files on disk.
const EnvSigningSecret = "TRUSTVAULT_SIGNING_SECRET"

// placeholderSecrets are values that look configured but are not. Any of
// these in approval.signing_secret is a fatal configuration error.
var placeholderSecrets = map[string]bool{
	"changeme":        true,
	"change-me":       true,
	"default":         true,
	"secret":          true,
	"signing-secret":  true,
	"your-secret":     true,
	"REPLACE_ME":      true,
	"insecure-secret": true,
}

// Config represents the complete server configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
	Auth     AuthConfig     `yaml:"auth"`
	Vault    VaultConfig    `yaml:"vault"`
	Audit    AuditConfig    `yaml:"audit"`
	Approval ApprovalConfig `yaml:"approval"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig contains server-level settings
type ServerConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	ReadTimeout  int    `yaml:"read_timeout"`  // seconds
	WriteTimeout int    `yaml:"write_timeout"` // seconds
	IdleTimeout  int    `yaml:"idle_timeout"`  // seconds
}

// LoggingConfig controls logging behavior
type LoggingConfig struct {
	Level string `yaml:"level"` // info, debug
}

// AuthConfig controls authentication of broker API callers
type AuthConfig struct {
	Enabled bool       `yaml:"enabled"`
	Type    string     `yaml:"type"` // none, jwt
	JWT     *JWTConfig `yaml:"jwt,omitempty"`
}

// JWTConfig controls JWT bearer authentication
type JWTConfig struct {
	Secret   string   `yaml:"secret"`
	Issuer   string   `yaml:"issuer"`
	Audience []string `yaml:"audience"`
}

// VaultConfig controls the secret vault key derivation
type VaultConfig struct {
	KDFTime      int `yaml:"kdf_time"`       // Argon2 passes
	KDFMemoryKiB int `yaml:"kdf_memory_kib"` // Argon2 memory cost
	KDFThreads   int `yaml:"kdf_threads"`    // Argon2 parallelism
}

// AuditConfig controls the audit trail
type AuditConfig struct {
	LogPath string `yaml:"log_path"`
}

// ApprovalConfig controls the approval workflow
type ApprovalConfig struct {
	SigningSecret   string `yaml:"signing_secret"`
	TokenTTLMinutes int    `yaml:"token_ttl_minutes"`
}

// MetricsConfig controls Prometheus metrics exposure
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns a configuration with sensible defaults. The approval
// signing secret deliberately has no default.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "127.0.0.1",
			Port:         8460,
			ReadTimeout:  15,
			WriteTimeout: 15,
			IdleTimeout:  60,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Auth: AuthConfig{
			Enabled: false,
			Type:    "none",
		},
		Vault: VaultConfig{
			KDFTime:      3,
			KDFMemoryKiB: 64 * 1024,
			KDFThreads:   4,
		},
		Audit: AuditConfig{
			LogPath: "trustvault-audit.log",
		},
		Approval: ApprovalConfig{
			TokenTTLMinutes: 5,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Load reads the configuration file at path, applies defaults and the
// environment override for the signing secret, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	if secret := os.Getenv(EnvSigningSecret); secret != "" {
		cfg.Approval.SigningSecret = secret
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for fatal problems. A missing or
// placeholder signing secret fails here so the process refuses to start
// rather than falling back to an insecure default.
func (cfg *Config) Validate() error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("config: invalid server port %d", cfg.Server.Port)
	}

	switch cfg.Logging.Level {
	case "", "info", "debug":
	default:
		return fmt.Errorf("config: unknown logging level %q", cfg.Logging.Level)
	}

	if cfg.Auth.Enabled {
		switch cfg.Auth.Type {
		case "jwt":
			if cfg.Auth.JWT == nil || cfg.Auth.JWT.Secret == "" {
				return fmt.Errorf("config: auth type jwt requires a jwt secret")
			}
		case "none", "":
		default:
			return fmt.Errorf("config: unknown auth type %q", cfg.Auth.Type)
		}
	}

	if cfg.Vault.KDFTime < 1 || cfg.Vault.KDFMemoryKiB < 8*1024 || cfg.Vault.KDFThreads < 1 {
		return fmt.Errorf("config: vault KDF parameters below safe minimums")
	}

	if cfg.Audit.LogPath == "" {
		return fmt.Errorf("config: audit log_path is required")
	}

	secret := cfg.Approval.SigningSecret
	if secret == "" {
		return fmt.Errorf("config: approval signing_secret is required (set it in the config file or %s)", EnvSigningSecret)
	}
	if placeholderSecrets[secret] || len(secret) < 16 {
		return fmt.Errorf("config: approval signing_secret is a placeholder or too short; provide at least 16 characters of real secret material")
	}

	if cfg.Approval.TokenTTLMinutes < 1 {
		return fmt.Errorf("config: approval token_ttl_minutes must be at least 1")
	}

	return nil
}
