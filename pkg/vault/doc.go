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

// Package vault implements a password-protected, in-memory secret store.
//
// The vault derives a 256-bit master key from a caller-supplied password
// using Argon2id, a memory-hard KDF tuned to resist offline brute force
// against a stolen salt. Secrets are sealed with AES-256-GCM; each stored
// record carries its own random nonce so two encryptions of the same
// plaintext never produce the same blob.
//
// Record layout on the storage backend:
//
//	[salt(16)][nonce(12)][tag(16)][ciphertext]
//
// The salt is bound to the ciphertext as GCM additional authenticated
// data, so modifying any byte of a persisted record fails tag
// verification on retrieval.
//
// The vault is initialized exactly once per process lifetime. The derived
// key is held only in memory and is never serialized; closing the vault
// zeroes it.
package vault
