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

package memory

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/jeremyhahn/go-trustvault/pkg/storage"
)

// TestNew verifies that New() creates a valid storage backend.
func TestNew(t *testing.T) {
	store := New()
	if store == nil {
		t.Fatal("New() returned nil")
	}

	keys, err := store.List("")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("New store should be empty, got %d keys", len(keys))
	}
}

// TestPutGet verifies basic Put and Get operations.
func TestPutGet(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   []byte
		wantErr error
	}{
		{
			name:  "simple key-value",
			key:   "record-key",
			value: []byte("record-value"),
		},
		{
			name:  "empty value",
			key:   "empty",
			value: []byte{},
		},
		{
			name:  "binary value",
			key:   "binary",
			value: []byte{0x00, 0xff, 0x10, 0x80},
		},
		{
			name:    "empty key rejected",
			key:     "",
			value:   []byte("value"),
			wantErr: storage.ErrInvalidKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := New()

			err := store.Put(tt.key, tt.value)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Put() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}

			got, err := store.Get(tt.key)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if !bytes.Equal(got, tt.value) {
				t.Errorf("Get() = %v, want %v", got, tt.value)
			}
		})
	}
}

// TestGetNotFound verifies Get returns ErrNotFound for missing keys.
func TestGetNotFound(t *testing.T) {
	store := New()
	if _, err := store.Get("missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Get() error = %v, want %v", err, storage.ErrNotFound)
	}
}

// TestPutOverwrite verifies that Put overwrites existing values.
func TestPutOverwrite(t *testing.T) {
	store := New()

	if err := store.Put("key", []byte("first")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := store.Put("key", []byte("second")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := store.Get("key")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != "second" {
		t.Errorf("Get() = %q, want %q", got, "second")
	}
}

// TestDefensiveCopies verifies stored and returned slices are isolated
// from caller mutation.
func TestDefensiveCopies(t *testing.T) {
	store := New()

	original := []byte("original")
	if err := store.Put("key", original); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	original[0] = 'X'

	got, err := store.Get("key")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != "original" {
		t.Errorf("stored value mutated externally: %q", got)
	}

	got[0] = 'Y'
	again, err := store.Get("key")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(again) != "original" {
		t.Errorf("returned value mutated internal state: %q", again)
	}
}

// TestDelete verifies Delete removes keys and errors on missing keys.
func TestDelete(t *testing.T) {
	store := New()

	if err := store.Put("key", []byte("value")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := store.Delete("key"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Get("key"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Get() after Delete() error = %v, want %v", err, storage.ErrNotFound)
	}
	if err := store.Delete("key"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Delete() missing key error = %v, want %v", err, storage.ErrNotFound)
	}
}

// TestListPrefix verifies prefix filtering and sorted ordering.
func TestListPrefix(t *testing.T) {
	store := New()

	for _, key := range []string{"secrets/b", "secrets/a", "other/c"} {
		if err := store.Put(key, []byte("v")); err != nil {
			t.Fatalf("Put(%q) error = %v", key, err)
		}
	}

	keys, err := store.List("secrets/")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(keys) != 2 || keys[0] != "secrets/a" || keys[1] != "secrets/b" {
		t.Errorf("List(secrets/) = %v, want [secrets/a secrets/b]", keys)
	}
}

// TestExists verifies Exists reflects key presence.
func TestExists(t *testing.T) {
	store := New()

	exists, err := store.Exists("key")
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if exists {
		t.Error("Exists() = true for missing key")
	}

	if err := store.Put("key", []byte("v")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	exists, err = store.Exists("key")
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if !exists {
		t.Error("Exists() = false for present key")
	}
}

// TestClose verifies operations fail with ErrClosed after Close.
func TestClose(t *testing.T) {
	store := New()
	if err := store.Put("key", []byte("v")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}

	if _, err := store.Get("key"); !errors.Is(err, storage.ErrClosed) {
		t.Errorf("Get() after Close() error = %v, want %v", err, storage.ErrClosed)
	}
	if err := store.Put("key", []byte("v")); !errors.Is(err, storage.ErrClosed) {
		t.Errorf("Put() after Close() error = %v, want %v", err, storage.ErrClosed)
	}
}

// TestConcurrentAccess verifies the backend is safe under concurrent
// readers and writers.
func TestConcurrentAccess(t *testing.T) {
	store := New()
	const goroutines = 16
	const iterations = 50

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				key := fmt.Sprintf("key-%d-%d", g, i)
				if err := store.Put(key, []byte(key)); err != nil {
					t.Errorf("Put(%q) error = %v", key, err)
					return
				}
				got, err := store.Get(key)
				if err != nil {
					t.Errorf("Get(%q) error = %v", key, err)
					return
				}
				if string(got) != key {
					t.Errorf("Get(%q) = %q", key, got)
					return
				}
			}
		}(g)
	}
	wg.Wait()

	keys, err := store.List("")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(keys) != goroutines*iterations {
		t.Errorf("List() returned %d keys, want %d", len(keys), goroutines*iterations)
	}
}
