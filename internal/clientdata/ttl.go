package clientdata

import "time"

// TTL constants for different data types.
// These are added to time.Now() when storing to calculate expires_at.
const (
	// Contributor profiles change slowly (reputation accrues over days),
	// but expert status flips matter for vote weights, so keep it short.
	TTLContributorProfile = 15 * time.Minute
)
