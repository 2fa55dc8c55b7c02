package scoring

import "github.com/aristath/credence/internal/domain"

// CompanyScore is the current aggregate state for one company: a derived,
// fully-overwritable cache holding nothing that cannot be recomputed from
// votes, reviews, and promises.
type CompanyScore struct {
	CompanyID        string                 `json:"company_id"`
	Ethics           float64                `json:"ethics"`
	Credibility      float64                `json:"credibility"`
	Delivery         float64                `json:"delivery"`
	Security         float64                `json:"security"`
	Innovation       float64                `json:"innovation"`
	Overall          float64                `json:"overall"`
	Confidence       domain.ConfidenceLevel `json:"confidence"`
	TotalVotes       int                    `json:"total_votes"`
	ExpertReviews    int                    `json:"expert_reviews"`
	PromiseKeptRatio float64                `json:"promise_kept_ratio"`
	LastCalculated   int64                  `json:"last_calculated"`
}

// Dimension returns the score for a single dimension.
func (cs *CompanyScore) Dimension(dim domain.Dimension) float64 {
	switch dim {
	case domain.DimensionEthics:
		return cs.Ethics
	case domain.DimensionCredibility:
		return cs.Credibility
	case domain.DimensionDelivery:
		return cs.Delivery
	case domain.DimensionSecurity:
		return cs.Security
	case domain.DimensionInnovation:
		return cs.Innovation
	}
	return 0
}

// setDimension assigns a dimension score on the struct.
func (cs *CompanyScore) setDimension(dim domain.Dimension, value float64) {
	switch dim {
	case domain.DimensionEthics:
		cs.Ethics = value
	case domain.DimensionCredibility:
		cs.Credibility = value
	case domain.DimensionDelivery:
		cs.Delivery = value
	case domain.DimensionSecurity:
		cs.Security = value
	case domain.DimensionInnovation:
		cs.Innovation = value
	}
}

// HistoryEntry is one append-only record of an overall-score change.
type HistoryEntry struct {
	ID           int64                  `json:"id"`
	CompanyID    string                 `json:"company_id"`
	ScoreType    string                 `json:"score_type"`
	Score        float64                `json:"score"`
	ChangeAmount float64                `json:"change_amount"`
	Confidence   domain.ConfidenceLevel `json:"confidence"`
	TotalVotes   int                    `json:"total_votes"`
	RecordedAt   int64                  `json:"recorded_at"`
}
