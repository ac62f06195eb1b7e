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

import "errors"

var (
	// ErrAlreadyInitialized indicates the vault has already been initialized.
	ErrAlreadyInitialized = errors.New("vault: already initialized")

	// ErrNotInitialized indicates a vault operation was attempted before Initialize.
	ErrNotInitialized = errors.New("vault: not initialized")

	// ErrPasswordTooShort indicates the master password does not meet the
	// minimum length requirement.
	ErrPasswordTooShort = errors.New("vault: password must be at least 12 characters")

	// ErrInvalidKey indicates an empty or invalid secret identifier.
	ErrInvalidKey = errors.New("vault: invalid secret key")

	// ErrSecretNotFound indicates no secret exists under the given key.
	ErrSecretNotFound = errors.New("vault: secret not found")

	// ErrIntegrity indicates decryption failed. The message is deliberately
	// generic: it must not reveal whether the key was wrong or the stored
	// data was tampered with.
	ErrIntegrity = errors.New("vault: unable to decrypt secret")

	// ErrClosed indicates the vault has been closed.
	ErrClosed = errors.New("vault: closed")
)
