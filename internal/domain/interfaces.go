package domain

import "context"

// ReputationSource provides reputation and expert status for contributors.
// Backed by the external user-profile service; this engine does not own or
// mutate reputation.
type ReputationSource interface {
	GetProfile(ctx context.Context, contributorID string) (ContributorProfile, error)
}

// RecomputeQueue accepts recompute triggers for a company. Enqueue must be
// non-blocking: submission endpoints call it after their own write commits,
// and a slow or failing recompute must never fail the originating write.
type RecomputeQueue interface {
	Enqueue(companyID string)
}
