// Package scoring computes company credibility scores from community votes,
// expert reviews, and promise-keeping history. All scores live on a 0-10
// scale rounded to one decimal; vote influence is weighted by contributor
// standing at the time the vote was cast.
package scoring

import "github.com/aristath/credence/internal/domain"

// Vote weight brackets. These are a fixed contract: changing them silently
// re-ranks every company, so they are constants rather than configuration.
const (
	WeightExpert        = 2.0
	WeightReputation1k  = 1.5
	WeightReputation500 = 1.3
	WeightReputation100 = 1.1
	WeightDefault       = 1.0
)

// WeightFor returns the vote weight for a contributor profile.
// Expert status dominates: an expert with zero reputation still weighs 2.0.
func WeightFor(profile domain.ContributorProfile) float64 {
	if profile.Expert {
		return WeightExpert
	}
	switch {
	case profile.Reputation >= 1000:
		return WeightReputation1k
	case profile.Reputation >= 500:
		return WeightReputation500
	case profile.Reputation >= 100:
		return WeightReputation100
	default:
		return WeightDefault
	}
}
