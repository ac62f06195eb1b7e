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

// Package broker orchestrates trust-gated secret recovery. It is the
// in-process seam the desktop shell calls: every vault read is gated
// behind the M-of-N approval workflow, authorization tokens are verified
// before release, and every attempt is written to the audit trail.
//
// The broker owns none of the component state; cross-component effects
// happen only through explicit calls into the vault, workflow and trail.
package broker

import (
	"strings"
	"time"

	"github.com/jeremyhahn/go-trustvault/pkg/approval"
	"github.com/jeremyhahn/go-trustvault/pkg/audit"
	"github.com/jeremyhahn/go-trustvault/pkg/logging"
	"github.com/jeremyhahn/go-trustvault/pkg/metrics"
	"github.com/jeremyhahn/go-trustvault/pkg/vault"
)

// retrieveActionPrefix binds an approval request (and the token minted
// from it) to the specific secret it authorizes.
const retrieveActionPrefix = "vault.retrieve:"

// Broker gates secret recovery behind multi-party approval.
type Broker struct {
	vault    *vault.Vault
	trail    *audit.Trail
	workflow *approval.Workflow
	logger   *logging.Logger
}

// New creates a broker over explicitly owned component instances.
func New(v *vault.Vault, trail *audit.Trail, workflow *approval.Workflow, logger *logging.Logger) *Broker {
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	return &Broker{
		vault:    v,
		trail:    trail,
		workflow: workflow,
		logger:   logger,
	}
}

// RetrieveAction returns the approval action string that authorizes
// retrieval of the given secret key.
func RetrieveAction(secretKey string) string {
	return retrieveActionPrefix + secretKey
}

// RequestSecret opens an M-of-N approval request for the given secret
// and records the attempt as PENDING in the audit trail.
func (b *Broker) RequestSecret(requesterID, secretKey, reason string, requiredApprovals int, approvers []string, ttl time.Duration) (*approval.Request, error) {
	start := time.Now()

	request, err := b.workflow.CreateRequest(requesterID, RetrieveAction(secretKey), reason, requiredApprovals, approvers, ttl)
	metrics.RecordOperation(metrics.OpRequest, metrics.ComponentBroker, err, time.Since(start))
	if err != nil {
		b.audit(requesterID, "secret.request", secretKey, reason, audit.OutcomeFailure)
		return nil, err
	}

	b.audit(requesterID, "secret.request", secretKey, reason, audit.OutcomePending)
	b.logger.Info("secret recovery requested",
		"requester", requesterID,
		"secret", secretKey,
		"request_id", request.ID,
		"required_approvals", requiredApprovals)
	return request, nil
}

// Approve records one approver's vote and audits the outcome.
func (b *Broker) Approve(requestID, approverID string) (approval.Status, error) {
	start := time.Now()

	status, err := b.workflow.ApplyApproval(requestID, approverID)
	metrics.RecordOperation(metrics.OpApprove, metrics.ComponentBroker, err, time.Since(start))
	if err != nil {
		b.audit(approverID, "secret.approve", requestID, "", audit.OutcomeFailure)
		return status, err
	}

	b.audit(approverID, "secret.approve", requestID, "", audit.OutcomeSuccess)
	return status, nil
}

// CollectSecret releases the secret for an approved request.
//
// The workflow mints a one-shot token when the request is approved; the
// broker verifies the token (signature, expiry, subject and action
// binding) before touching the vault. Any gate failure is audited as
// FAILURE, a release as SUCCESS.
func (b *Broker) CollectSecret(requestID, requesterID string) (string, error) {
	start := time.Now()
	value, secretKey, err := b.collect(requestID, requesterID)
	metrics.RecordOperation(metrics.OpCollect, metrics.ComponentBroker, err, time.Since(start))

	target := secretKey
	if target == "" {
		target = requestID
	}
	if err != nil {
		b.audit(requesterID, "secret.retrieve", target, "", audit.OutcomeFailure)
		return "", err
	}

	b.audit(requesterID, "secret.retrieve", target, "", audit.OutcomeSuccess)
	b.logger.Info("secret released",
		"requester", requesterID,
		"secret", secretKey,
		"request_id", requestID)
	return value, nil
}

// collect runs the gated retrieval and reports the secret key involved,
// when known, so the caller can audit against it.
func (b *Broker) collect(requestID, requesterID string) (value, secretKey string, err error) {
	decision, err := b.workflow.CheckStatus(requestID)
	if err != nil {
		return "", "", err
	}
	if decision.Status != approval.StatusApproved {
		if decision.Status == approval.StatusExpired {
			return "", "", approval.ErrRequestExpired
		}
		return "", "", ErrNotApproved
	}

	payload, err := b.workflow.VerifyToken(decision.Token)
	if err != nil {
		return "", "", err
	}
	if payload.Subject != requesterID {
		return "", "", ErrSubjectMismatch
	}

	secretKey, found := strings.CutPrefix(payload.Action, retrieveActionPrefix)
	if !found {
		return "", "", ErrUnexpectedAction
	}

	value, err = b.vault.Retrieve(secretKey)
	if err != nil {
		return "", secretKey, err
	}
	return value, secretKey, nil
}

// audit writes one trail entry; failures are logged, never fatal to the
// caller's operation.
func (b *Broker) audit(userID, action, target, reason string, outcome audit.Outcome) {
	if b.trail == nil {
		return
	}
	if _, err := b.trail.Append(audit.Event{
		UserID:  userID,
		Action:  action,
		Target:  target,
		Reason:  reason,
		Outcome: outcome,
	}); err != nil {
		b.logger.Errorf("failed to audit %s on %s: %v", action, target, err)
	}
}
