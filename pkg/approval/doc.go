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

// Package approval implements a multi-party (M-of-N) authorization
// workflow that mints short-lived, HMAC-signed, one-shot tokens.
//
// Request lifecycle:
//
//	PENDING --(vote count reaches M)--> APPROVED
//	PENDING --(deadline passes)-------> EXPIRED
//
// APPROVED and EXPIRED are terminal. An approved request is consumed
// (deleted) the instant a token is issued for it and cannot be queried
// again. Expiry is evaluated lazily: there is no background sweeper, so
// every read path re-derives the effective status from the stored status,
// the wall clock and the deadline rather than trusting a cached field.
//
// The signing secret must come from deployment configuration. A missing
// secret is a fatal construction error, never a silent default.
package approval
