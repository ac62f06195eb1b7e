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
	"encoding/json"
	"sync"
	"time"
)

// Filter is an exact-match conjunction over entry fields. Supported field
// names are the JSON names: userId, action, target, reason, outcome.
// A nil or empty filter matches every entry.
type Filter map[string]string

// QueryResult is the outcome of a verified log read. When IsValid is
// false, Entries is always empty: a broken chain yields no usable data.
type QueryResult struct {
	Entries []Entry
	IsValid bool
}

// Trail is an append-only, hash-chained audit log.
//
// The append mutex is held across the entire read-last-checksum, hash and
// persist sequence. That serialization is mandatory for correctness, not
// an optimization: if two appenders could observe the same predecessor,
// the chain would silently fork.
type Trail struct {
	mu           sync.Mutex
	sink         Sink
	lastChecksum string
	loaded       bool
}

// New creates a trail on top of the given sink. An existing log on the
// sink is picked up lazily: the first append links to its final entry.
func New(sink Sink) *Trail {
	return &Trail{sink: sink}
}

// Append validates the event, links it to the tail of the chain, computes
// its checksum and durably persists it. The returned Entry is the record
// as written.
func (t *Trail) Append(ev Event) (Entry, error) {
	if err := ev.Validate(); err != nil {
		return Entry{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.loaded {
		if err := t.loadTail(); err != nil {
			return Entry{}, err
		}
	}

	entry := Entry{
		Timestamp:        time.Now().UTC().Format(time.RFC3339Nano),
		UserID:           ev.UserID,
		Action:           ev.Action,
		Target:           ev.Target,
		Reason:           ev.Reason,
		Outcome:          ev.Outcome,
		PreviousChecksum: t.lastChecksum,
	}

	checksum, err := computeChecksum(entry)
	if err != nil {
		return Entry{}, err
	}
	entry.Checksum = checksum

	line, err := json.Marshal(entry)
	if err != nil {
		return Entry{}, err
	}
	if err := t.sink.Append(line); err != nil {
		return Entry{}, err
	}

	t.lastChecksum = entry.Checksum
	return entry, nil
}

// Query reads the entire log, verifies the full chain from genesis and,
// only if every entry passes, applies the filter and returns the matches.
//
// Any checksum mismatch, broken link or malformed record aborts
// verification: the result carries zero entries, IsValid=false and the
// generic ErrChainInvalid. An absent or empty log is a valid, zero-entry
// state.
func (t *Trail) Query(filter Filter) (QueryResult, error) {
	lines, err := t.sink.ReadAll()
	if err != nil {
		return QueryResult{}, err
	}

	entries := make([]Entry, 0, len(lines))
	previous := GenesisChecksum
	for _, line := range lines {
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			return QueryResult{}, ErrChainInvalid
		}

		expected, err := computeChecksum(entry)
		if err != nil {
			return QueryResult{}, ErrChainInvalid
		}
		if entry.Checksum != expected || entry.PreviousChecksum != previous {
			return QueryResult{}, ErrChainInvalid
		}

		previous = entry.Checksum
		entries = append(entries, entry)
	}

	matched := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		if matches(entry, filter) {
			matched = append(matched, entry)
		}
	}
	return QueryResult{Entries: matched, IsValid: true}, nil
}

// Close closes the underlying sink.
func (t *Trail) Close() error {
	return t.sink.Close()
}

// loadTail reads the checksum of the most recently persisted entry, or
// the genesis checksum for an empty log. Caller must hold t.mu.
func (t *Trail) loadTail() error {
	lines, err := t.sink.ReadAll()
	if err != nil {
		return err
	}

	t.lastChecksum = GenesisChecksum
	if len(lines) > 0 {
		var last Entry
		if err := json.Unmarshal(lines[len(lines)-1], &last); err != nil {
			return ErrChainInvalid
		}
		t.lastChecksum = last.Checksum
	}
	t.loaded = true
	return nil
}

// matches applies the exact-match conjunction to a single entry.
func matches(e Entry, filter Filter) bool {
	for field, want := range filter {
		var got string
		switch field {
		case "userId":
			got = e.UserID
		case "action":
			got = e.Action
		case "target":
			got = e.Target
		case "reason":
			got = e.Reason
		case "outcome":
			got = string(e.Outcome)
		default:
			return false
		}
		if got != want {
			return false
		}
	}
	return true
}
