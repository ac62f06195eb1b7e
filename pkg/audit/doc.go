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

// Package audit implements a tamper-evident, append-only event log.
//
// Entries form a hash chain: each entry's checksum is the SHA-256 digest
// of its canonical serialization (all fields except the checksum itself),
// and each entry records the checksum of its predecessor. The first entry
// links to a fixed all-zero genesis checksum. Altering any historical
// entry invalidates every checksum from that point forward.
//
// Appends are strictly serialized: the read of the previous checksum, the
// digest computation and the durable write execute as a single critical
// section so two concurrent appenders can never link to the same
// predecessor and fork the chain.
//
// Query verifies the entire chain from genesis before returning anything.
// Verification is fail-closed: any mismatch anywhere yields zero entries
// and an invalid flag, never partially trusted data.
package audit
