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

// Package cli implements the trustvault command line interface.
package cli

import (
	"github.com/spf13/cobra"
)

var (
	// configFile is the path to the server configuration file
	configFile string

	// verbose enables debug logging
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "trustvault",
	Short: "go-trustvault - Trust-gated secret recovery backend",
	Long: `go-trustvault is the trust-gated secret recovery backend behind a
desktop shell. It stores sensitive values encrypted at rest in memory,
records every security-relevant action in a tamper-evident hash-chained
audit log, and gates access to secrets behind a multi-party (M-of-N)
approval workflow that issues short-lived, signed authorization tokens.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "/etc/trustvault/config.yaml",
		"path to the server configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"verbose output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
}
