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

package approval

import "errors"

var (
	// ErrSigningSecretRequired indicates the workflow was constructed
	// without a usable signing secret. This is fatal configuration, not
	// something to paper over with a default.
	ErrSigningSecretRequired = errors.New("approval: signing secret is required")

	// ErrMissingRequestFields indicates requester or action was empty.
	ErrMissingRequestFields = errors.New("approval: requester and action are required")

	// ErrInvalidThreshold indicates requiredApprovals was less than 1.
	ErrInvalidThreshold = errors.New("approval: required approvals must be at least 1")

	// ErrInsufficientApprovers indicates the eligible approver set is
	// smaller than the approval threshold.
	ErrInsufficientApprovers = errors.New("approval: not enough eligible approvers for threshold")

	// ErrRequestNotFound indicates the request id is unknown or the
	// request has already been consumed.
	ErrRequestNotFound = errors.New("approval: request not found")

	// ErrRequestExpired indicates the request deadline has passed.
	ErrRequestExpired = errors.New("approval: request has expired")

	// ErrNotPending indicates an approval action on a request that is no
	// longer pending.
	ErrNotPending = errors.New("approval: request is not pending")

	// ErrNotEligible indicates the approver is not in the eligible set.
	ErrNotEligible = errors.New("approval: approver is not eligible")

	// ErrDuplicateVote indicates the approver has already voted on this
	// request. The prior vote is untouched.
	ErrDuplicateVote = errors.New("approval: approver has already voted")

	// ErrTokenInvalid indicates a malformed token or a signature mismatch.
	ErrTokenInvalid = errors.New("approval: invalid token")

	// ErrTokenExpired indicates the token expiry has passed.
	ErrTokenExpired = errors.New("approval: token has expired")
)
