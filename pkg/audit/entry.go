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

package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Outcome is the result classification of an audited action.
type Outcome string

const (
	// OutcomeSuccess records an action that completed successfully.
	OutcomeSuccess Outcome = "SUCCESS"

	// OutcomeFailure records an action that was attempted and failed.
	OutcomeFailure Outcome = "FAILURE"

	// OutcomePending records an action awaiting further authorization.
	OutcomePending Outcome = "PENDING"
)

// GenesisChecksum is the previousChecksum of the first entry in a log:
// an all-zero value of digest length, hex encoded.
var GenesisChecksum = hex.EncodeToString(make([]byte, sha256.Size))

// Event is the caller-supplied portion of an audit entry.
type Event struct {
	// UserID identifies who performed the action. Required.
	UserID string

	// Action names the security-relevant operation. Required.
	Action string

	// Target identifies what the action was performed on. Required.
	Target string

	// Reason optionally records why the action was taken.
	Reason string

	// Outcome classifies the result. Required.
	Outcome Outcome
}

// Validate checks that all required event fields are present.
func (ev Event) Validate() error {
	if ev.UserID == "" || ev.Action == "" || ev.Target == "" || ev.Outcome == "" {
		return ErrMissingField
	}
	switch ev.Outcome {
	case OutcomeSuccess, OutcomeFailure, OutcomePending:
		return nil
	default:
		return ErrInvalidOutcome
	}
}

// Entry is an immutable, chained audit record. Entries are never mutated
// after being written.
type Entry struct {
	Timestamp        string  `json:"timestamp"`
	UserID           string  `json:"userId"`
	Action           string  `json:"action"`
	Target           string  `json:"target"`
	Reason           string  `json:"reason,omitempty"`
	Outcome          Outcome `json:"outcome"`
	PreviousChecksum string  `json:"previousChecksum"`
	Checksum         string  `json:"checksum"`
}

// entryDigest mirrors Entry without the checksum field. The canonical
// serialization hashed into the checksum is the JSON encoding of this
// struct; its field order is fixed and must never change, or historical
// chains can no longer be reverified.
type entryDigest struct {
	Timestamp        string  `json:"timestamp"`
	UserID           string  `json:"userId"`
	Action           string  `json:"action"`
	Target           string  `json:"target"`
	Reason           string  `json:"reason,omitempty"`
	Outcome          Outcome `json:"outcome"`
	PreviousChecksum string  `json:"previousChecksum"`
}

// computeChecksum hashes the canonical serialization of the entry,
// excluding its own checksum field.
func computeChecksum(e Entry) (string, error) {
	canonical, err := json.Marshal(entryDigest{
		Timestamp:        e.Timestamp,
		UserID:           e.UserID,
		Action:           e.Action,
		Target:           e.Target,
		Reason:           e.Reason,
		Outcome:          e.Outcome,
		PreviousChecksum: e.PreviousChecksum,
	})
	if err != nil {
		return "", fmt.Errorf("audit: failed to serialize entry: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
