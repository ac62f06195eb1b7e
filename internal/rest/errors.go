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
	"log"
	"net/http"

	"github.com/jeremyhahn/go-trustvault/pkg/approval"
	"github.com/jeremyhahn/go-trustvault/pkg/broker"
	"github.com/jeremyhahn/go-trustvault/pkg/storage"
	"github.com/jeremyhahn/go-trustvault/pkg/vault"
)

// Common errors
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrInternalError  = errors.New("internal server error")
	ErrUnauthorized   = errors.New("unauthorized")
)

// writeError writes an error response to the client.
func writeError(w http.ResponseWriter, err error, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	resp := ErrorResponse{
		Error: err.Error(),
		Code:  statusCode,
	}

	if encErr := json.NewEncoder(w).Encode(resp); encErr != nil {
		log.Printf("Failed to encode error response: %v", encErr)
	}
}

// writeErrorWithMessage writes an error response with a custom message.
func writeErrorWithMessage(w http.ResponseWriter, err error, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	resp := ErrorResponse{
		Error:   err.Error(),
		Message: message,
		Code:    statusCode,
	}

	if encErr := json.NewEncoder(w).Encode(resp); encErr != nil {
		log.Printf("Failed to encode error response: %v", encErr)
	}
}

// writeJSON writes a JSON response to the client.
func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode JSON response: %v", err)
	}
}

// mapErrorToStatusCode maps component errors to HTTP status codes.
func mapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, vault.ErrSecretNotFound),
		errors.Is(err, approval.ErrRequestNotFound),
		errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, vault.ErrAlreadyInitialized),
		errors.Is(err, vault.ErrNotInitialized),
		errors.Is(err, approval.ErrNotPending):
		return http.StatusConflict
	case errors.Is(err, vault.ErrPasswordTooShort),
		errors.Is(err, vault.ErrInvalidKey),
		errors.Is(err, approval.ErrMissingRequestFields),
		errors.Is(err, approval.ErrInvalidThreshold),
		errors.Is(err, approval.ErrInsufficientApprovers),
		errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, approval.ErrNotEligible),
		errors.Is(err, approval.ErrDuplicateVote),
		errors.Is(err, approval.ErrTokenInvalid),
		errors.Is(err, approval.ErrTokenExpired),
		errors.Is(err, broker.ErrSubjectMismatch),
		errors.Is(err, broker.ErrUnexpectedAction),
		errors.Is(err, broker.ErrNotApproved):
		return http.StatusForbidden
	case errors.Is(err, approval.ErrRequestExpired):
		return http.StatusGone
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
