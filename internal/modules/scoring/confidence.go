package scoring

import "github.com/aristath/credence/internal/domain"

// Confidence thresholds. Both conditions of a tier must hold except for
// medium, where a single expert review OR a modest vote count suffices.
const (
	veryHighMinExperts = 3
	veryHighMinVotes   = 50
	highMinExperts     = 2
	highMinVotes       = 30
	mediumMinExperts   = 1
	mediumMinVotes     = 15
)

// ClassifyConfidence maps evidence volume to a confidence level.
// expertReviews counts verified reviews only (unverified reviews are not
// evidence); totalVotes counts community votes across all dimensions.
func ClassifyConfidence(expertReviews, totalVotes int) domain.ConfidenceLevel {
	switch {
	case expertReviews >= veryHighMinExperts && totalVotes >= veryHighMinVotes:
		return domain.ConfidenceVeryHigh
	case expertReviews >= highMinExperts && totalVotes >= highMinVotes:
		return domain.ConfidenceHigh
	case expertReviews >= mediumMinExperts || totalVotes >= mediumMinVotes:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}
