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
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"
)

// TokenPayload is the signed content of an authorization token.
type TokenPayload struct {
	// Subject is the requester the token authorizes.
	Subject string `json:"subject"`

	// RequestID is the approval request the token was minted for.
	RequestID string `json:"requestId"`

	// Action is the approved action.
	Action string `json:"action"`

	// Expiry is the token deadline in epoch milliseconds.
	Expiry int64 `json:"expiry"`
}

// ExpiresAt returns the token deadline as a time.Time.
func (p TokenPayload) ExpiresAt() time.Time {
	return time.UnixMilli(p.Expiry)
}

// SignToken serializes the payload and signs the raw payload bytes with
// HMAC-SHA256 under the given secret.
//
// Wire format: base64url(payload JSON) + "." + hex(HMAC).
func SignToken(secret []byte, payload TokenPayload) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(raw)
	signature := mac.Sum(nil)

	return base64.RawURLEncoding.EncodeToString(raw) + "." + hex.EncodeToString(signature), nil
}

// VerifyToken checks the token signature in constant time and enforces
// the embedded expiry. Any structural or signature problem yields the
// generic ErrTokenInvalid.
func VerifyToken(secret []byte, token string) (*TokenPayload, error) {
	encoded, signatureHex, found := strings.Cut(token, ".")
	if !found {
		return nil, ErrTokenInvalid
	}

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	signature, err := hex.DecodeString(signatureHex)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(raw)
	if !hmac.Equal(signature, mac.Sum(nil)) {
		return nil, ErrTokenInvalid
	}

	var payload TokenPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, ErrTokenInvalid
	}

	if !time.Now().Before(payload.ExpiresAt()) {
		return nil, ErrTokenExpired
	}
	return &payload, nil
}
