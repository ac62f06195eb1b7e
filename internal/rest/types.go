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

package rest

import (
	"github.com/jeremyhahn/go-trustvault/pkg/approval"
	"github.com/jeremyhahn/go-trustvault/pkg/audit"
)

// ErrorResponse is the JSON body for error responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}

// HealthResponse is the response for health endpoints.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// StatusResponse acknowledges a state-changing operation.
type StatusResponse struct {
	Status string `json:"status"`
}

// InitVaultRequest is the request body for POST /api/v1/vault/init.
type InitVaultRequest struct {
	Password string `json:"password"`
}

// StoreSecretRequest is the request body for POST /api/v1/vault/secrets.
type StoreSecretRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// SecretResponse carries a decrypted secret back to the caller.
type SecretResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// AppendAuditRequest is the request body for POST /api/v1/audit/entries.
type AppendAuditRequest struct {
	UserID  string `json:"userId"`
	Action  string `json:"action"`
	Target  string `json:"target"`
	Reason  string `json:"reason,omitempty"`
	Outcome string `json:"outcome"`
}

// QueryAuditResponse is the response for GET /api/v1/audit/entries.
type QueryAuditResponse struct {
	Entries []audit.Entry `json:"entries"`
	IsValid bool          `json:"isValid"`
}

// CreateApprovalRequest is the request body for POST /api/v1/approvals.
type CreateApprovalRequest struct {
	RequesterID        string   `json:"requesterId"`
	Action             string   `json:"action"`
	Details            string   `json:"details,omitempty"`
	RequiredApprovals  int      `json:"requiredApprovals"`
	PotentialApprovers []string `json:"potentialApprovers"`
	TTLSeconds         int      `json:"ttlSeconds"`
}

// CreateApprovalResponse returns the new request id.
type CreateApprovalResponse struct {
	RequestID string `json:"requestId"`
}

// ListApprovalsResponse lists currently pending approval requests.
type ListApprovalsResponse struct {
	Requests []*approval.Request `json:"requests"`
}

// ApplyApprovalRequest is the request body for POST /api/v1/approvals/{id}/votes.
type ApplyApprovalRequest struct {
	ApproverID string `json:"approverId"`
}

// ApprovalStatusResponse reports a request's effective status and, when
// the request was approved and consumed, the one-shot token.
type ApprovalStatusResponse struct {
	Status string `json:"status"`
	Token  string `json:"token,omitempty"`
}

// RequestSecretRequest is the request body for POST /api/v1/secrets/request.
type RequestSecretRequest struct {
	RequesterID        string   `json:"requesterId"`
	Key                string   `json:"key"`
	Reason             string   `json:"reason,omitempty"`
	RequiredApprovals  int      `json:"requiredApprovals"`
	PotentialApprovers []string `json:"potentialApprovers"`
	TTLSeconds         int      `json:"ttlSeconds"`
}

// CollectSecretRequest is the request body for POST /api/v1/secrets/collect.
type CollectSecretRequest struct {
	RequestID   string `json:"requestId"`
	RequesterID string `json:"requesterId"`
}
