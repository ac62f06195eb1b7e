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

import "time"

// Status is the lifecycle state of an approval request.
type Status string

const (
	// StatusPending indicates the request is awaiting votes.
	StatusPending Status = "PENDING"

	// StatusApproved indicates the vote count reached the threshold.
	// Terminal; the request is consumed when a token is issued.
	StatusApproved Status = "APPROVED"

	// StatusExpired indicates the deadline passed before approval.
	// Terminal.
	StatusExpired Status = "EXPIRED"
)

// Vote records a single approver's approval and when it landed.
type Vote struct {
	ApproverID string    `json:"approverId"`
	Timestamp  time.Time `json:"timestamp"`
}

// Request is an M-of-N approval request. Instances returned by the
// workflow are snapshots; mutating them has no effect on workflow state.
type Request struct {
	ID                 string    `json:"id"`
	RequesterID        string    `json:"requesterId"`
	Action             string    `json:"action"`
	Details            string    `json:"details,omitempty"`
	Status             Status    `json:"status"`
	RequiredApprovals  int       `json:"requiredApprovals"`
	PotentialApprovers []string  `json:"potentialApprovers"`
	Approvals          []Vote    `json:"approvals"`
	CreatedAt          time.Time `json:"createdAt"`
	ExpiresAt          time.Time `json:"expiresAt"`
}

// expired reports whether the request deadline has passed at the given
// instant. A deadline equal to now counts as past, so a zero TTL expires
// on first access.
func (r *Request) expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// eligible reports whether the approver is in the eligible set.
func (r *Request) eligible(approverID string) bool {
	for _, id := range r.PotentialApprovers {
		if id == approverID {
			return true
		}
	}
	return false
}

// voted reports whether the approver has already voted.
func (r *Request) voted(approverID string) bool {
	for _, v := range r.Approvals {
		if v.ApproverID == approverID {
			return true
		}
	}
	return false
}

// snapshot returns a defensive copy safe to hand to callers.
func (r *Request) snapshot() *Request {
	copied := *r
	copied.PotentialApprovers = append([]string(nil), r.PotentialApprovers...)
	copied.Approvals = append([]Vote(nil), r.Approvals...)
	return &copied
}
