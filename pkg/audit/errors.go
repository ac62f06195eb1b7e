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

import "errors"

var (
	// ErrMissingField indicates a required event field was empty.
	ErrMissingField = errors.New("audit: userId, action, target and outcome are required")

	// ErrInvalidOutcome indicates an unknown outcome value.
	ErrInvalidOutcome = errors.New("audit: invalid outcome")

	// ErrChainInvalid indicates log verification failed. The message is
	// deliberately generic and does not reveal which entry or which
	// sub-check (checksum or link) broke.
	ErrChainInvalid = errors.New("audit: log verification failed")

	// ErrClosed indicates the trail's sink has been closed.
	ErrClosed = errors.New("audit: closed")
)
