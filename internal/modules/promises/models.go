// Package promises tracks company commitments and their outcomes. A promise
// moves from pending to a resolved status; the community votes a verdict on
// each promise, and the kept ratio feeds the delivery dimension blend.
package promises

import (
	"strings"

	"github.com/aristath/credence/internal/domain"
)

// Promise is one tracked company commitment.
type Promise struct {
	ID               string                 `json:"id"`
	CompanyID        string                 `json:"company_id"`
	Title            string                 `json:"title"`
	Description      string                 `json:"description,omitempty"`
	PromisedDate     int64                  `json:"promised_date"`
	Deadline         *int64                 `json:"deadline,omitempty"`
	Status           domain.PromiseStatus   `json:"status"`
	CommunityVerdict *domain.PromiseVerdict `json:"community_verdict,omitempty"`
	CreatedAt        int64                  `json:"created_at"`
	UpdatedAt        int64                  `json:"updated_at"`
}

// Resolved reports whether the promise has left the pending state.
func (p *Promise) Resolved() bool {
	return p.Status != domain.PromisePending
}

// PromiseVote is one contributor's verdict on a promise.
type PromiseVote struct {
	ID            string                `json:"id"`
	PromiseID     string                `json:"promise_id"`
	ContributorID string                `json:"contributor_id"`
	Verdict       domain.PromiseVerdict `json:"verdict"`
	CreatedAt     int64                 `json:"created_at"`
}

// CreateRequest is the payload for recording a new promise.
type CreateRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	PromisedDate int64  `json:"promised_date"`
	Deadline     *int64 `json:"deadline,omitempty"`
}

// Validate checks the request fields.
func (req *CreateRequest) Validate() error {
	if strings.TrimSpace(req.Title) == "" {
		return domain.NewValidationError("title", "title is required")
	}
	if req.PromisedDate <= 0 {
		return domain.NewValidationError("promised_date", "promised_date must be a unix timestamp")
	}
	if req.Deadline != nil && *req.Deadline < req.PromisedDate {
		return domain.NewValidationError("deadline", "deadline must not precede promised_date")
	}
	return nil
}

// ResolveRequest is the payload for resolving a promise.
type ResolveRequest struct {
	Status string `json:"status"`
}

// Validate parses the target status, rejecting a resolve back to pending.
func (req *ResolveRequest) Validate() (domain.PromiseStatus, error) {
	status, err := domain.ParsePromiseStatus(req.Status)
	if err != nil {
		return "", err
	}
	if status == domain.PromisePending {
		return "", domain.NewValidationError("status", "cannot resolve a promise back to pending")
	}
	return status, nil
}

// VoteRequest is the payload for a contributor's verdict on a promise.
type VoteRequest struct {
	Verdict string `json:"verdict"`
}
