// Package votes manages community votes on company credibility dimensions.
// A vote is one contributor's 1-10 rating of one company on one dimension;
// each (contributor, company, dimension) triple holds at most one vote, and
// re-voting replaces the previous value.
package votes

import (
	"strings"

	"github.com/aristath/credence/internal/domain"
)

// Vote represents a single contributor's rating of a company on one dimension.
// Weight is captured at write time from the contributor's profile so that
// score recomputation never needs the profile service.
type Vote struct {
	ID            string           `json:"id"`
	ContributorID string           `json:"contributor_id"`
	CompanyID     string           `json:"company_id"`
	Dimension     domain.Dimension `json:"dimension"`
	Score         int              `json:"score"`
	Weight        float64          `json:"weight"`
	Comment       string           `json:"comment,omitempty"`
	EvidenceURLs  []string         `json:"evidence_urls,omitempty"`
	CreatedAt     int64            `json:"created_at"`
	UpdatedAt     int64            `json:"updated_at"`
}

// SubmitRequest is the payload for casting or replacing a vote.
type SubmitRequest struct {
	Dimension    string   `json:"dimension"`
	Score        int      `json:"score"`
	Comment      string   `json:"comment,omitempty"`
	EvidenceURLs []string `json:"evidence_urls,omitempty"`
}

// Validate checks the request fields, returning the parsed dimension.
func (req *SubmitRequest) Validate() (domain.Dimension, error) {
	dim, err := domain.ParseDimension(req.Dimension)
	if err != nil {
		return "", domain.NewValidationError("dimension", err.Error())
	}
	if req.Score < 1 || req.Score > 10 {
		return "", domain.NewValidationError("score", "score must be between 1 and 10")
	}
	for _, u := range req.EvidenceURLs {
		if strings.TrimSpace(u) == "" {
			return "", domain.NewValidationError("evidence_urls", "evidence URLs must not be empty")
		}
	}
	return dim, nil
}
