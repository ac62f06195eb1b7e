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

package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"sync"

	"github.com/jeremyhahn/go-trustvault/pkg/storage"
	"golang.org/x/crypto/argon2"
)

const (
	// MinPasswordLength is the minimum master password length.
	MinPasswordLength = 12

	// saltLength is the length of the random KDF salt in bytes.
	saltLength = 16

	// nonceLength is the AES-GCM nonce length in bytes.
	nonceLength = 12

	// tagLength is the AES-GCM authentication tag length in bytes.
	tagLength = 16

	// keyLength is the derived AES-256 key length in bytes.
	keyLength = 32
)

// KDFParams holds the Argon2id cost parameters used during Initialize.
type KDFParams struct {
	// Time is the number of Argon2 passes.
	Time uint32

	// MemoryKiB is the Argon2 memory cost in KiB.
	MemoryKiB uint32

	// Threads is the Argon2 parallelism degree.
	Threads uint8
}

// DefaultKDFParams returns cost parameters tuned for roughly 100ms or more
// of derivation time on commodity hardware.
func DefaultKDFParams() KDFParams {
	return KDFParams{
		Time:      3,
		MemoryKiB: 64 * 1024, // 64 MiB
		Threads:   4,
	}
}

// Vault is a password-protected secret store. Secrets are encrypted with
// AES-256-GCM under a key derived from the master password via Argon2id
// and persisted as opaque blobs on a storage.Backend.
//
// Thread-safe: the derived key is immutable once initialized and safe for
// concurrent reads; Initialize is guarded against a double-init race.
type Vault struct {
	mu     sync.RWMutex
	store  storage.Backend
	params KDFParams
	salt   []byte
	key    []byte
	closed bool
}

// New creates a vault backed by the given storage backend. The vault is
// unusable until Initialize has been called with a master password.
func New(store storage.Backend, params *KDFParams) *Vault {
	p := DefaultKDFParams()
	if params != nil {
		p = *params
	}
	return &Vault{
		store:  store,
		params: p,
	}
}

// Initialize derives the vault master key from the given password.
//
// It may be called successfully exactly once per vault lifetime; every
// subsequent call fails with ErrAlreadyInitialized, including a second
// near-simultaneous first call. Passwords shorter than MinPasswordLength
// are rejected before any key material is generated.
func (v *Vault) Initialize(password string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return ErrClosed
	}
	if v.key != nil {
		return ErrAlreadyInitialized
	}
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("vault: failed to generate salt: %w", err)
	}

	v.salt = salt
	v.key = argon2.IDKey([]byte(password), salt, v.params.Time, v.params.MemoryKiB, v.params.Threads, keyLength)
	return nil
}

// Initialized reports whether the vault master key has been derived.
func (v *Vault) Initialized() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.key != nil
}

// Store encrypts value and persists it under key, overwriting any prior
// value (last-write-wins). A fresh random nonce is drawn for every call,
// so concurrent stores never share a nonce under the vault key.
func (v *Vault) Store(key, value string) error {
	if key == "" {
		return ErrInvalidKey
	}

	aead, salt, err := v.sealer()
	if err != nil {
		return err
	}

	nonce := make([]byte, nonceLength)
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("vault: failed to generate nonce: %w", err)
	}

	// The salt is bound as additional authenticated data so every byte
	// of the persisted record is covered by the GCM tag.
	sealed := aead.Seal(nil, nonce, []byte(value), salt)

	// Seal returns ciphertext||tag; the record layout stores the tag
	// ahead of the ciphertext.
	ciphertext := sealed[:len(sealed)-tagLength]
	tag := sealed[len(sealed)-tagLength:]

	blob := make([]byte, 0, saltLength+nonceLength+tagLength+len(ciphertext))
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = append(blob, tag...)
	blob = append(blob, ciphertext...)

	if err := v.store.Put(key, blob); err != nil {
		return fmt.Errorf("vault: failed to persist secret: %w", err)
	}
	return nil
}

// Retrieve decrypts and returns the secret stored under key.
//
// Any decryption or tag verification failure yields the generic
// ErrIntegrity; the caller cannot distinguish a wrong key from tampered
// data.
func (v *Vault) Retrieve(key string) (string, error) {
	if key == "" {
		return "", ErrInvalidKey
	}

	aead, _, err := v.sealer()
	if err != nil {
		return "", err
	}

	blob, err := v.store.Get(key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", ErrSecretNotFound
		}
		return "", fmt.Errorf("vault: failed to read secret: %w", err)
	}

	if len(blob) < saltLength+nonceLength+tagLength {
		return "", ErrIntegrity
	}

	salt := blob[:saltLength]
	nonce := blob[saltLength : saltLength+nonceLength]
	tag := blob[saltLength+nonceLength : saltLength+nonceLength+tagLength]
	ciphertext := blob[saltLength+nonceLength+tagLength:]

	sealed := make([]byte, 0, len(ciphertext)+tagLength)
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	// The record's salt region is verified as AAD; a modified salt fails
	// tag verification like any other tampered byte.
	plaintext, err := aead.Open(nil, nonce, sealed, salt)
	if err != nil {
		return "", ErrIntegrity
	}
	return string(plaintext), nil
}

// Close zeroes the derived key material and closes the vault.
// Multiple calls to Close are safe and will return nil.
func (v *Vault) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return nil
	}

	for i := range v.key {
		v.key[i] = 0
	}
	v.key = nil
	v.salt = nil
	v.closed = true
	return nil
}

// sealer returns the AEAD cipher and record salt for the initialized vault.
func (v *Vault) sealer() (cipher.AEAD, []byte, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if v.closed {
		return nil, nil, ErrClosed
	}
	if v.key == nil {
		return nil, nil, ErrNotInitialized
	}

	block, err := aes.NewCipher(v.key)
	if err != nil {
		return nil, nil, fmt.Errorf("vault: failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, fmt.Errorf("vault: failed to create AEAD: %w", err)
	}
	return aead, v.salt, nil
}
