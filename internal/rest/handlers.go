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
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jeremyhahn/go-trustvault/pkg/approval"
	"github.com/jeremyhahn/go-trustvault/pkg/audit"
	"github.com/jeremyhahn/go-trustvault/pkg/broker"
	"github.com/jeremyhahn/go-trustvault/pkg/health"
	"github.com/jeremyhahn/go-trustvault/pkg/metrics"
	"github.com/jeremyhahn/go-trustvault/pkg/vault"
)

// HandlerContext holds dependencies for REST handlers.
type HandlerContext struct {
	// Version is the API version
	Version string

	vault    *vault.Vault
	trail    *audit.Trail
	workflow *approval.Workflow
	broker   *broker.Broker
	checker  *health.Checker
}

// NewHandlerContext creates a new handler context over the component
// instances constructed at startup.
func NewHandlerContext(v *vault.Vault, trail *audit.Trail, workflow *approval.Workflow, b *broker.Broker, checker *health.Checker, version string) *HandlerContext {
	return &HandlerContext{
		Version:  version,
		vault:    v,
		trail:    trail,
		workflow: workflow,
		broker:   b,
		checker:  checker,
	}
}

// HealthHandler handles GET /health requests.
func (h *HandlerContext) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, HealthResponse{
		Status:  "healthy",
		Version: h.Version,
	}, http.StatusOK)
}

// LivenessHandler handles GET /health/live requests.
func (h *HandlerContext) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	result := h.checker.Live(r.Context())
	writeJSON(w, result, http.StatusOK)
}

// ReadinessHandler handles GET /health/ready requests.
func (h *HandlerContext) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	results := h.checker.Ready(r.Context())
	status := http.StatusOK
	if !health.Healthy(results) {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, results, status)
}

// InitVaultHandler handles POST /api/v1/vault/init requests.
func (h *HandlerContext) InitVaultHandler(w http.ResponseWriter, r *http.Request) {
	var req InitVaultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, ErrInvalidRequest, http.StatusBadRequest)
		return
	}

	start := time.Now()
	err := h.vault.Initialize(req.Password)
	metrics.RecordOperation(metrics.OpInit, metrics.ComponentVault, err, time.Since(start))
	if err != nil {
		writeError(w, err, mapErrorToStatusCode(err))
		return
	}

	writeJSON(w, StatusResponse{Status: "initialized"}, http.StatusOK)
}

// StoreSecretHandler handles POST /api/v1/vault/secrets requests.
func (h *HandlerContext) StoreSecretHandler(w http.ResponseWriter, r *http.Request) {
	var req StoreSecretRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, ErrInvalidRequest, http.StatusBadRequest)
		return
	}

	start := time.Now()
	err := h.vault.Store(req.Key, req.Value)
	metrics.RecordOperation(metrics.OpStore, metrics.ComponentVault, err, time.Since(start))
	if err != nil {
		writeError(w, err, mapErrorToStatusCode(err))
		return
	}

	writeJSON(w, StatusResponse{Status: "stored"}, http.StatusCreated)
}

// RetrieveSecretHandler handles GET /api/v1/vault/secrets/{key} requests.
//
// This is the raw, ungated read used by the vault owner; callers acting
// on behalf of others go through the broker's request/collect flow.
func (h *HandlerContext) RetrieveSecretHandler(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	start := time.Now()
	value, err := h.vault.Retrieve(key)
	metrics.RecordOperation(metrics.OpRetrieve, metrics.ComponentVault, err, time.Since(start))
	if err != nil {
		writeError(w, err, mapErrorToStatusCode(err))
		return
	}

	writeJSON(w, SecretResponse{Key: key, Value: value}, http.StatusOK)
}

// AppendAuditHandler handles POST /api/v1/audit/entries requests.
func (h *HandlerContext) AppendAuditHandler(w http.ResponseWriter, r *http.Request) {
	var req AppendAuditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, ErrInvalidRequest, http.StatusBadRequest)
		return
	}

	start := time.Now()
	entry, err := h.trail.Append(audit.Event{
		UserID:  req.UserID,
		Action:  req.Action,
		Target:  req.Target,
		Reason:  req.Reason,
		Outcome: audit.Outcome(req.Outcome),
	})
	metrics.RecordOperation(metrics.OpAppend, metrics.ComponentAudit, err, time.Since(start))
	if err != nil {
		if errors.Is(err, audit.ErrMissingField) || errors.Is(err, audit.ErrInvalidOutcome) {
			writeError(w, err, http.StatusBadRequest)
			return
		}
		writeError(w, err, mapErrorToStatusCode(err))
		return
	}

	writeJSON(w, entry, http.StatusCreated)
}

// QueryAuditHandler handles GET /api/v1/audit/entries requests. Query
// string parameters (userId, action, target, reason, outcome) form an
// exact-match conjunction.
func (h *HandlerContext) QueryAuditHandler(w http.ResponseWriter, r *http.Request) {
	filter := audit.Filter{}
	for _, field := range []string{"userId", "action", "target", "reason", "outcome"} {
		if value := r.URL.Query().Get(field); value != "" {
			filter[field] = value
		}
	}

	start := time.Now()
	result, err := h.trail.Query(filter)
	metrics.RecordOperation(metrics.OpQuery, metrics.ComponentAudit, err, time.Since(start))
	if err != nil {
		if errors.Is(err, audit.ErrChainInvalid) {
			// Fail closed but report the invalid state explicitly.
			writeJSON(w, QueryAuditResponse{Entries: []audit.Entry{}, IsValid: false}, http.StatusOK)
			return
		}
		writeError(w, err, mapErrorToStatusCode(err))
		return
	}

	if result.Entries == nil {
		result.Entries = []audit.Entry{}
	}
	writeJSON(w, QueryAuditResponse{Entries: result.Entries, IsValid: result.IsValid}, http.StatusOK)
}

// CreateApprovalHandler handles POST /api/v1/approvals requests.
func (h *HandlerContext) CreateApprovalHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateApprovalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, ErrInvalidRequest, http.StatusBadRequest)
		return
	}

	start := time.Now()
	request, err := h.workflow.CreateRequest(
		req.RequesterID,
		req.Action,
		req.Details,
		req.RequiredApprovals,
		req.PotentialApprovers,
		time.Duration(req.TTLSeconds)*time.Second,
	)
	metrics.RecordOperation(metrics.OpCreate, metrics.ComponentApproval, err, time.Since(start))
	if err != nil {
		writeError(w, err, mapErrorToStatusCode(err))
		return
	}

	writeJSON(w, CreateApprovalResponse{RequestID: request.ID}, http.StatusCreated)
}

// ListApprovalsHandler handles GET /api/v1/approvals requests.
func (h *HandlerContext) ListApprovalsHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	pending := h.workflow.ListPending()
	metrics.RecordOperation(metrics.OpList, metrics.ComponentApproval, nil, time.Since(start))

	if pending == nil {
		pending = []*approval.Request{}
	}
	writeJSON(w, ListApprovalsResponse{Requests: pending}, http.StatusOK)
}

// ApplyApprovalHandler handles POST /api/v1/approvals/{id}/votes requests.
func (h *HandlerContext) ApplyApprovalHandler(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "id")

	var req ApplyApprovalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, ErrInvalidRequest, http.StatusBadRequest)
		return
	}

	start := time.Now()
	status, err := h.workflow.ApplyApproval(requestID, req.ApproverID)
	metrics.RecordOperation(metrics.OpApply, metrics.ComponentApproval, err, time.Since(start))
	if err != nil {
		writeError(w, err, mapErrorToStatusCode(err))
		return
	}

	writeJSON(w, ApprovalStatusResponse{Status: string(status)}, http.StatusOK)
}

// CheckApprovalHandler handles GET /api/v1/approvals/{id} requests.
// A response carrying a token consumes the request.
func (h *HandlerContext) CheckApprovalHandler(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "id")

	start := time.Now()
	decision, err := h.workflow.CheckStatus(requestID)
	metrics.RecordOperation(metrics.OpCheck, metrics.ComponentApproval, err, time.Since(start))
	if err != nil {
		writeError(w, err, mapErrorToStatusCode(err))
		return
	}

	writeJSON(w, ApprovalStatusResponse{
		Status: string(decision.Status),
		Token:  decision.Token,
	}, http.StatusOK)
}

// RequestSecretHandler handles POST /api/v1/secrets/request requests.
func (h *HandlerContext) RequestSecretHandler(w http.ResponseWriter, r *http.Request) {
	var req RequestSecretRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, ErrInvalidRequest, http.StatusBadRequest)
		return
	}
	if req.Key == "" {
		writeError(w, vault.ErrInvalidKey, http.StatusBadRequest)
		return
	}

	request, err := h.broker.RequestSecret(
		req.RequesterID,
		req.Key,
		req.Reason,
		req.RequiredApprovals,
		req.PotentialApprovers,
		time.Duration(req.TTLSeconds)*time.Second,
	)
	if err != nil {
		writeError(w, err, mapErrorToStatusCode(err))
		return
	}

	writeJSON(w, CreateApprovalResponse{RequestID: request.ID}, http.StatusCreated)
}

// CollectSecretHandler handles POST /api/v1/secrets/collect requests.
func (h *HandlerContext) CollectSecretHandler(w http.ResponseWriter, r *http.Request) {
	var req CollectSecretRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, ErrInvalidRequest, http.StatusBadRequest)
		return
	}

	value, err := h.broker.CollectSecret(req.RequestID, req.RequesterID)
	if err != nil {
		writeError(w, err, mapErrorToStatusCode(err))
		return
	}

	writeJSON(w, SecretResponse{Value: value}, http.StatusOK)
}
