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

package correlation

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

// TestWithCorrelationID verifies round-trip through a context.
func TestWithCorrelationID(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "req-12345")
	if got := GetCorrelationID(ctx); got != "req-12345" {
		t.Errorf("GetCorrelationID() = %q, want %q", got, "req-12345")
	}
}

// TestGetCorrelationIDMissing verifies absent ids yield empty strings.
func TestGetCorrelationIDMissing(t *testing.T) {
	if got := GetCorrelationID(context.Background()); got != "" {
		t.Errorf("GetCorrelationID() = %q, want empty", got)
	}
	if got := GetCorrelationID(nil); got != "" {
		t.Errorf("GetCorrelationID(nil) = %q, want empty", got)
	}
}

// TestNewID verifies generated ids are valid UUIDs and unique.
func TestNewID(t *testing.T) {
	first := NewID()
	second := NewID()

	if _, err := uuid.Parse(first); err != nil {
		t.Errorf("NewID() = %q, not a valid UUID: %v", first, err)
	}
	if first == second {
		t.Error("NewID() returned duplicate ids")
	}
}

// TestGetOrGenerate verifies an existing id is preserved and a missing
// one is generated.
func TestGetOrGenerate(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "req-12345")
	if got := GetOrGenerate(ctx); got != "req-12345" {
		t.Errorf("GetOrGenerate() = %q, want existing id", got)
	}

	generated := GetOrGenerate(context.Background())
	if generated == "" {
		t.Error("GetOrGenerate() returned empty id")
	}
	if _, err := uuid.Parse(generated); err != nil {
		t.Errorf("GetOrGenerate() = %q, not a valid UUID: %v", generated, err)
	}
}
