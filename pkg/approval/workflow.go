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

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jeremyhahn/go-trustvault/pkg/audit"
)

const (
	// DefaultTokenTTL is how long a minted authorization token remains
	// valid.
	DefaultTokenTTL = 5 * time.Minute

	// requestIDLength is the entropy of a request id in bytes.
	requestIDLength = 16

	// minSecretLength is the minimum usable signing secret length.
	minSecretLength = 16
)

// Recorder receives audit events emitted by the workflow. *audit.Trail
// satisfies this interface. A nil recorder disables emission; the
// workflow never shares state with the trail, only calls it.
type Recorder interface {
	Append(ev audit.Event) (audit.Entry, error)
}

// Config configures a Workflow.
type Config struct {
	// SigningSecret is the long-lived secret for token MACs. Required;
	// must come from deployment configuration, never a hardcoded
	// default.
	SigningSecret []byte

	// TokenTTL overrides DefaultTokenTTL when positive.
	TokenTTL time.Duration

	// Recorder optionally receives lifecycle audit events.
	Recorder Recorder
}

// Decision is the result of a status check. Token is only set when the
// request was approved and consumed by this call.
type Decision struct {
	Status Status `json:"status"`
	Token  string `json:"token,omitempty"`
}

// Workflow is a concurrent-safe M-of-N approval request store and token
// minter. All mutations of a request (vote recording, threshold check,
// status transition, consumption) run under one mutex, so two approvers
// voting concurrently are both durably recorded and the threshold check
// never runs against a stale read.
type Workflow struct {
	mu       sync.Mutex
	secret   []byte
	tokenTTL time.Duration
	recorder Recorder
	requests map[string]*Request
}

// New creates a workflow. Construction fails with
// ErrSigningSecretRequired when the secret is absent or too short to be
// anything but a placeholder.
func New(cfg *Config) (*Workflow, error) {
	if cfg == nil || len(cfg.SigningSecret) < minSecretLength {
		return nil, ErrSigningSecretRequired
	}

	tokenTTL := cfg.TokenTTL
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}

	secret := make([]byte, len(cfg.SigningSecret))
	copy(secret, cfg.SigningSecret)

	return &Workflow{
		secret:   secret,
		tokenTTL: tokenTTL,
		recorder: cfg.Recorder,
		requests: make(map[string]*Request),
	}, nil
}

// CreateRequest registers a new pending M-of-N request and returns a
// snapshot of it. The eligible approver set is deduplicated and must be
// at least as large as the threshold.
func (w *Workflow) CreateRequest(requesterID, action, details string, requiredApprovals int, potentialApprovers []string, ttl time.Duration) (*Request, error) {
	if requesterID == "" || action == "" {
		return nil, ErrMissingRequestFields
	}
	if requiredApprovals < 1 {
		return nil, ErrInvalidThreshold
	}

	approvers := dedupe(potentialApprovers)
	if len(approvers) < requiredApprovals {
		return nil, ErrInsufficientApprovers
	}

	id, err := newRequestID()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	request := &Request{
		ID:                 id,
		RequesterID:        requesterID,
		Action:             action,
		Details:            details,
		Status:             StatusPending,
		RequiredApprovals:  requiredApprovals,
		PotentialApprovers: approvers,
		Approvals:          []Vote{},
		CreatedAt:          now,
		ExpiresAt:          now.Add(ttl),
	}

	w.mu.Lock()
	w.requests[id] = request
	snapshot := request.snapshot()
	w.mu.Unlock()

	w.record(requesterID, "approval.create", id, details, audit.OutcomePending)
	return snapshot, nil
}

// ListPending returns snapshots of requests that are PENDING and whose
// deadline has not passed, evaluated against the clock at call time.
func (w *Workflow) ListPending() []*Request {
	now := time.Now()

	w.mu.Lock()
	defer w.mu.Unlock()

	var pending []*Request
	for _, request := range w.requests {
		if request.Status == StatusPending && !request.expired(now) {
			pending = append(pending, request.snapshot())
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	return pending
}

// ApplyApproval records one approver's vote and returns the resulting
// status. A request past its deadline transitions to EXPIRED and the
// call fails. Duplicate votes fail without changing state.
func (w *Workflow) ApplyApproval(requestID, approverID string) (Status, error) {
	if approverID == "" {
		return "", ErrNotEligible
	}

	now := time.Now()

	w.mu.Lock()
	request, exists := w.requests[requestID]
	if !exists {
		w.mu.Unlock()
		return "", ErrRequestNotFound
	}

	if request.Status == StatusPending && request.expired(now) {
		request.Status = StatusExpired
		w.mu.Unlock()
		w.record(approverID, "approval.expire", requestID, "", audit.OutcomeFailure)
		return StatusExpired, ErrRequestExpired
	}
	if request.Status != StatusPending {
		status := request.Status
		w.mu.Unlock()
		return status, ErrNotPending
	}
	if !request.eligible(approverID) {
		w.mu.Unlock()
		return StatusPending, ErrNotEligible
	}
	if request.voted(approverID) {
		w.mu.Unlock()
		return StatusPending, ErrDuplicateVote
	}

	request.Approvals = append(request.Approvals, Vote{
		ApproverID: approverID,
		Timestamp:  now,
	})
	if len(request.Approvals) >= request.RequiredApprovals {
		request.Status = StatusApproved
	}
	status := request.Status
	w.mu.Unlock()

	if status == StatusApproved {
		w.record(approverID, "approval.grant", requestID, "", audit.OutcomeSuccess)
	} else {
		w.record(approverID, "approval.vote", requestID, "", audit.OutcomeSuccess)
	}
	return status, nil
}

// CheckStatus reports the effective status of a request. If the request
// is APPROVED it mints a one-shot token, deletes the request and returns
// both; a later call with the same id fails with ErrRequestNotFound.
func (w *Workflow) CheckStatus(requestID string) (*Decision, error) {
	now := time.Now()

	w.mu.Lock()
	request, exists := w.requests[requestID]
	if !exists {
		w.mu.Unlock()
		return nil, ErrRequestNotFound
	}

	if request.Status == StatusPending && request.expired(now) {
		request.Status = StatusExpired
		w.mu.Unlock()
		return &Decision{Status: StatusExpired}, nil
	}

	if request.Status != StatusApproved {
		status := request.Status
		w.mu.Unlock()
		return &Decision{Status: status}, nil
	}

	token, err := SignToken(w.secret, TokenPayload{
		Subject:   request.RequesterID,
		RequestID: request.ID,
		Action:    request.Action,
		Expiry:    now.Add(w.tokenTTL).UnixMilli(),
	})
	if err != nil {
		w.mu.Unlock()
		return nil, fmt.Errorf("approval: failed to sign token: %w", err)
	}

	// One-shot consumption: the request is gone before the token leaves
	// this method.
	delete(w.requests, requestID)
	requesterID := request.RequesterID
	w.mu.Unlock()

	w.record(requesterID, "approval.consume", requestID, "", audit.OutcomeSuccess)
	return &Decision{Status: StatusApproved, Token: token}, nil
}

// VerifyToken validates a token minted by this workflow.
func (w *Workflow) VerifyToken(token string) (*TokenPayload, error) {
	return VerifyToken(w.secret, token)
}

// record emits a lifecycle event to the configured recorder, if any.
// Emission is best-effort; a failing recorder never blocks the workflow.
func (w *Workflow) record(userID, action, target, reason string, outcome audit.Outcome) {
	if w.recorder == nil {
		return
	}
	_, _ = w.recorder.Append(audit.Event{
		UserID:  userID,
		Action:  action,
		Target:  target,
		Reason:  reason,
		Outcome: outcome,
	})
}

// newRequestID returns a 128-bit random identifier, hex encoded.
func newRequestID() (string, error) {
	id := make([]byte, requestIDLength)
	if _, err := rand.Read(id); err != nil {
		return "", fmt.Errorf("approval: failed to generate request id: %w", err)
	}
	return hex.EncodeToString(id), nil
}

// dedupe returns the input with duplicates removed, preserving order.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	var result []string
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, exists := seen[id]; exists {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
