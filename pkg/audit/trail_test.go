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
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
)

func testEvent(userID string) Event {
	return Event{
		UserID:  userID,
		Action:  "vault.store",
		Target:  "db/password",
		Reason:  "rotation",
		Outcome: OutcomeSuccess,
	}
}

// TestAppendValidation verifies required field and outcome validation.
func TestAppendValidation(t *testing.T) {
	tests := []struct {
		name    string
		event   Event
		wantErr error
	}{
		{
			name:  "valid event",
			event: testEvent("alice"),
		},
		{
			name: "valid event without reason",
			event: Event{
				UserID:  "alice",
				Action:  "vault.store",
				Target:  "db/password",
				Outcome: OutcomeFailure,
			},
		},
		{
			name: "missing user",
			event: Event{
				Action:  "vault.store",
				Target:  "db/password",
				Outcome: OutcomeSuccess,
			},
			wantErr: ErrMissingField,
		},
		{
			name: "missing action",
			event: Event{
				UserID:  "alice",
				Target:  "db/password",
				Outcome: OutcomeSuccess,
			},
			wantErr: ErrMissingField,
		},
		{
			name: "missing target",
			event: Event{
				UserID:  "alice",
				Action:  "vault.store",
				Outcome: OutcomeSuccess,
			},
			wantErr: ErrMissingField,
		},
		{
			name: "missing outcome",
			event: Event{
				UserID: "alice",
				Action: "vault.store",
				Target: "db/password",
			},
			wantErr: ErrMissingField,
		},
		{
			name: "unknown outcome",
			event: Event{
				UserID:  "alice",
				Action:  "vault.store",
				Target:  "db/password",
				Outcome: Outcome("MAYBE"),
			},
			wantErr: ErrInvalidOutcome,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trail := New(NewMemorySink())
			_, err := trail.Append(tt.event)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Append() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestChainLinks verifies the genesis link and that each entry chains to
// its predecessor.
func TestChainLinks(t *testing.T) {
	trail := New(NewMemorySink())

	var entries []Entry
	for i := 0; i < 5; i++ {
		entry, err := trail.Append(testEvent(fmt.Sprintf("user-%d", i)))
		if err != nil {
			t.Fatalf("Append() error = %v", err)
		}
		entries = append(entries, entry)
	}

	if entries[0].PreviousChecksum != GenesisChecksum {
		t.Errorf("first entry previousChecksum = %q, want genesis", entries[0].PreviousChecksum)
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].PreviousChecksum != entries[i-1].Checksum {
			t.Errorf("entry %d previousChecksum = %q, want %q",
				i, entries[i].PreviousChecksum, entries[i-1].Checksum)
		}
	}
}

// TestQueryVerifiesChain verifies an untampered log validates and returns
// all entries in order.
func TestQueryVerifiesChain(t *testing.T) {
	trail := New(NewMemorySink())

	const n = 10
	for i := 0; i < n; i++ {
		if _, err := trail.Append(testEvent(fmt.Sprintf("user-%d", i))); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	result, err := trail.Query(nil)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if !result.IsValid {
		t.Fatal("Query() IsValid = false for untampered log")
	}
	if len(result.Entries) != n {
		t.Fatalf("Query() returned %d entries, want %d", len(result.Entries), n)
	}
	for i, entry := range result.Entries {
		if entry.UserID != fmt.Sprintf("user-%d", i) {
			t.Errorf("entry %d userId = %q, out of append order", i, entry.UserID)
		}
	}
}

// TestQueryEmptyLog verifies an empty log is valid with zero entries.
func TestQueryEmptyLog(t *testing.T) {
	trail := New(NewMemorySink())

	result, err := trail.Query(nil)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if !result.IsValid {
		t.Error("Query() IsValid = false for empty log")
	}
	if len(result.Entries) != 0 {
		t.Errorf("Query() returned %d entries, want 0", len(result.Entries))
	}
}

// TestTamperDetection verifies that modifying any persisted entry breaks
// verification, fails closed and releases no entries.
func TestTamperDetection(t *testing.T) {
	tamper := func(t *testing.T, sink *MemorySink, index int, mutate func(*Entry)) {
		t.Helper()
		lines, err := sink.ReadAll()
		if err != nil {
			t.Fatalf("ReadAll() error = %v", err)
		}
		var entry Entry
		if err := json.Unmarshal(lines[index], &entry); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		mutate(&entry)
		line, err := json.Marshal(entry)
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		sink.Tamper(index, line)
	}

	tests := []struct {
		name   string
		index  int
		mutate func(*Entry)
	}{
		{
			name:   "field edited in middle entry",
			index:  2,
			mutate: func(e *Entry) { e.UserID = "mallory" },
		},
		{
			name:   "outcome flipped in first entry",
			index:  0,
			mutate: func(e *Entry) { e.Outcome = OutcomeFailure },
		},
		{
			name:   "checksum zeroed in last entry",
			index:  4,
			mutate: func(e *Entry) { e.Checksum = GenesisChecksum },
		},
		{
			name:   "link rewritten",
			index:  3,
			mutate: func(e *Entry) { e.PreviousChecksum = GenesisChecksum },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := NewMemorySink()
			trail := New(sink)
			for i := 0; i < 5; i++ {
				if _, err := trail.Append(testEvent(fmt.Sprintf("user-%d", i))); err != nil {
					t.Fatalf("Append() error = %v", err)
				}
			}

			tamper(t, sink, tt.index, tt.mutate)

			result, err := trail.Query(nil)
			if !errors.Is(err, ErrChainInvalid) {
				t.Fatalf("Query() error = %v, want %v", err, ErrChainInvalid)
			}
			if result.IsValid {
				t.Error("Query() IsValid = true for tampered log")
			}
			if len(result.Entries) != 0 {
				t.Errorf("Query() released %d entries from a tampered log", len(result.Entries))
			}
		})
	}
}

// TestTamperDeletedEntry verifies removing an interior entry breaks the
// chain for every successor.
func TestTamperDeletedEntry(t *testing.T) {
	sink := NewMemorySink()
	trail := New(sink)
	for i := 0; i < 4; i++ {
		if _, err := trail.Append(testEvent(fmt.Sprintf("user-%d", i))); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	sink.mu.Lock()
	sink.lines = append(sink.lines[:1], sink.lines[2:]...)
	sink.mu.Unlock()

	if _, err := trail.Query(nil); !errors.Is(err, ErrChainInvalid) {
		t.Fatalf("Query() error = %v, want %v", err, ErrChainInvalid)
	}
}

// TestTamperMalformedLine verifies a non-JSON record aborts verification.
func TestTamperMalformedLine(t *testing.T) {
	sink := NewMemorySink()
	trail := New(sink)
	if _, err := trail.Append(testEvent("alice")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	sink.Tamper(0, []byte("not-json"))

	if _, err := trail.Query(nil); !errors.Is(err, ErrChainInvalid) {
		t.Fatalf("Query() error = %v, want %v", err, ErrChainInvalid)
	}
}

// TestQueryFilters verifies exact-match conjunction filtering.
func TestQueryFilters(t *testing.T) {
	trail := New(NewMemorySink())

	events := []Event{
		{UserID: "alice", Action: "vault.store", Target: "db/password", Outcome: OutcomeSuccess},
		{UserID: "bob", Action: "vault.retrieve", Target: "db/password", Outcome: OutcomeFailure},
		{UserID: "alice", Action: "vault.retrieve", Target: "api/token", Reason: "incident", Outcome: OutcomeSuccess},
	}
	for _, ev := range events {
		if _, err := trail.Append(ev); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{name: "nil filter matches all", filter: nil, want: 3},
		{name: "empty filter matches all", filter: Filter{}, want: 3},
		{name: "by user", filter: Filter{"userId": "alice"}, want: 2},
		{name: "by action", filter: Filter{"action": "vault.retrieve"}, want: 2},
		{name: "by outcome", filter: Filter{"outcome": "FAILURE"}, want: 1},
		{name: "by reason", filter: Filter{"reason": "incident"}, want: 1},
		{name: "conjunction", filter: Filter{"userId": "alice", "action": "vault.retrieve"}, want: 1},
		{name: "no match", filter: Filter{"userId": "mallory"}, want: 0},
		{name: "unknown field matches nothing", filter: Filter{"severity": "high"}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := trail.Query(tt.filter)
			if err != nil {
				t.Fatalf("Query() error = %v", err)
			}
			if !result.IsValid {
				t.Fatal("Query() IsValid = false")
			}
			if len(result.Entries) != tt.want {
				t.Errorf("Query() returned %d entries, want %d", len(result.Entries), tt.want)
			}
		})
	}
}

// TestConcurrentAppends verifies racing appenders produce one unbroken
// chain with no forks or lost entries.
func TestConcurrentAppends(t *testing.T) {
	trail := New(NewMemorySink())

	const goroutines = 10
	const perGoroutine = 20

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				if _, err := trail.Append(testEvent(fmt.Sprintf("user-%d", g))); err != nil {
					t.Errorf("Append() error = %v", err)
					return
				}
			}
		}(g)
	}
	wg.Wait()

	result, err := trail.Query(nil)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if !result.IsValid {
		t.Fatal("Query() IsValid = false after concurrent appends")
	}
	if len(result.Entries) != goroutines*perGoroutine {
		t.Errorf("Query() returned %d entries, want %d", len(result.Entries), goroutines*perGoroutine)
	}
}

// TestFileSinkPersistence verifies a trail reopened on an existing file
// continues the chain rather than restarting from genesis.
func TestFileSinkPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")

	sink, err := NewFileSink(path)
	if err != nil {
		t.Fatalf("NewFileSink() error = %v", err)
	}
	trail := New(sink)

	first, err := trail.Append(testEvent("alice"))
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := trail.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	sink2, err := NewFileSink(path)
	if err != nil {
		t.Fatalf("NewFileSink() reopen error = %v", err)
	}
	trail2 := New(sink2)
	defer trail2.Close()

	second, err := trail2.Append(testEvent("bob"))
	if err != nil {
		t.Fatalf("Append() after reopen error = %v", err)
	}
	if second.PreviousChecksum != first.Checksum {
		t.Errorf("reopened trail previousChecksum = %q, want %q", second.PreviousChecksum, first.Checksum)
	}

	result, err := trail2.Query(nil)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if !result.IsValid || len(result.Entries) != 2 {
		t.Errorf("Query() = %d entries, IsValid=%v; want 2 entries, valid", len(result.Entries), result.IsValid)
	}
}

// TestFileSinkMissingFileIsEmpty verifies ReadAll treats a missing file
// as a valid empty log.
func TestFileSinkMissingFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")

	sink, err := NewFileSink(path)
	if err != nil {
		t.Fatalf("NewFileSink() error = %v", err)
	}
	defer sink.Close()

	lines, err := sink.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("ReadAll() returned %d lines, want 0", len(lines))
	}
}

// TestEntrySerialization verifies reason is omitted when empty and the
// JSON field names are stable.
func TestEntrySerialization(t *testing.T) {
	trail := New(NewMemorySink())

	entry, err := trail.Append(Event{
		UserID:  "alice",
		Action:  "vault.store",
		Target:  "db/password",
		Outcome: OutcomeSuccess,
	})
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	line, err := json.Marshal(entry)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if bytes.Contains(line, []byte(`"reason"`)) {
		t.Error("empty reason should be omitted from serialization")
	}
	for _, field := range []string{"timestamp", "userId", "action", "target", "outcome", "previousChecksum", "checksum"} {
		if !bytes.Contains(line, []byte(`"`+field+`"`)) {
			t.Errorf("serialized entry missing field %q", field)
		}
	}
}
