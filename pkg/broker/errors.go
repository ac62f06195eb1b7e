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

package broker

import "errors"

var (
	// ErrNotApproved indicates the approval request has not reached its
	// threshold, so no secret can be released yet.
	ErrNotApproved = errors.New("broker: request is not approved")

	// ErrSubjectMismatch indicates the collector is not the requester
	// the authorization token was minted for.
	ErrSubjectMismatch = errors.New("broker: token subject does not match requester")

	// ErrUnexpectedAction indicates the token authorizes something other
	// than a secret retrieval.
	ErrUnexpectedAction = errors.New("broker: token action is not a secret retrieval")
)
