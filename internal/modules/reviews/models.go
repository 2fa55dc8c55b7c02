// Package reviews manages expert assessments of companies. A review carries
// up to five dimension scores in one record at a fixed elevated weight, and
// participates in aggregation only after an external moderation workflow
// marks it verified.
package reviews

import (
	"fmt"

	"github.com/aristath/credence/internal/domain"
)

// DefaultWeight is the fixed weight an expert review's dimension values
// carry in aggregation. Matches the expert vote weight bracket.
const DefaultWeight = 2.0

// ExpertReview is one expert's assessment of a company. Dimension scores are
// optional - nil means the expert did not assess that dimension.
type ExpertReview struct {
	ID            string   `json:"id"`
	ContributorID string   `json:"contributor_id"`
	CompanyID     string   `json:"company_id"`
	Ethics        *float64 `json:"ethics,omitempty"`
	Credibility   *float64 `json:"credibility,omitempty"`
	Delivery      *float64 `json:"delivery,omitempty"`
	Security      *float64 `json:"security,omitempty"`
	Innovation    *float64 `json:"innovation,omitempty"`
	Weight        float64  `json:"weight"`
	Verified      bool     `json:"verified"`
	Summary       string   `json:"summary,omitempty"`
	CreatedAt     int64    `json:"created_at"`
	UpdatedAt     int64    `json:"updated_at"`
}

// DimensionValue returns the review's score for a dimension, nil if unset.
func (rev *ExpertReview) DimensionValue(dim domain.Dimension) *float64 {
	switch dim {
	case domain.DimensionEthics:
		return rev.Ethics
	case domain.DimensionCredibility:
		return rev.Credibility
	case domain.DimensionDelivery:
		return rev.Delivery
	case domain.DimensionSecurity:
		return rev.Security
	case domain.DimensionInnovation:
		return rev.Innovation
	}
	return nil
}

// SubmitRequest is the payload for submitting an expert review.
type SubmitRequest struct {
	Ethics      *float64 `json:"ethics,omitempty"`
	Credibility *float64 `json:"credibility,omitempty"`
	Delivery    *float64 `json:"delivery,omitempty"`
	Security    *float64 `json:"security,omitempty"`
	Innovation  *float64 `json:"innovation,omitempty"`
	Summary     string   `json:"summary,omitempty"`
}

// Validate checks that at least one dimension is scored and all scores are
// within the 0-10 range.
func (req *SubmitRequest) Validate() error {
	scored := 0
	for name, v := range map[string]*float64{
		"ethics":      req.Ethics,
		"credibility": req.Credibility,
		"delivery":    req.Delivery,
		"security":    req.Security,
		"innovation":  req.Innovation,
	} {
		if v == nil {
			continue
		}
		scored++
		if *v < 0 || *v > 10 {
			return domain.NewValidationError(name, fmt.Sprintf("score must be between 0 and 10, got %v", *v))
		}
	}
	if scored == 0 {
		return domain.NewValidationError("scores", "at least one dimension score is required")
	}
	return nil
}
