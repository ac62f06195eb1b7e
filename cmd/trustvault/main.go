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

package main

import (
	"log/slog"
	"os"

	"github.com/jeremyhahn/go-trustvault/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		slog.Error("fatal", slog.Any("error", err))
		os.Exit(1)
	}
}
