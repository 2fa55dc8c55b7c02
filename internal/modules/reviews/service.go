package reviews

import (
	"context"
	"fmt"

	"github.com/aristath/credence/internal/domain"
	"github.com/aristath/credence/internal/events"
	"github.com/rs/zerolog"
)

// Service implements review business logic. Reviews enter unverified and
// only affect scores once verified, so submission does not trigger a
// recompute - verification does.
type Service struct {
	repo  *Repository
	queue domain.RecomputeQueue
	bus   *events.Bus
	log   zerolog.Logger
}

// NewService creates a new review service
func NewService(repo *Repository, queue domain.RecomputeQueue, bus *events.Bus, log zerolog.Logger) *Service {
	return &Service{
		repo:  repo,
		queue: queue,
		bus:   bus,
		log:   log.With().Str("service", "reviews").Logger(),
	}
}

// Submit stores a new expert review in the unverified state. Verification
// happens through an external moderation workflow via Verify.
func (s *Service) Submit(ctx context.Context, contributorID, companyID string, req SubmitRequest) (*ExpertReview, error) {
	if contributorID == "" {
		return nil, domain.ErrUnauthorized
	}
	if companyID == "" {
		return nil, domain.NewValidationError("company_id", "company ID is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	review := &ExpertReview{
		ContributorID: contributorID,
		CompanyID:     companyID,
		Ethics:        req.Ethics,
		Credibility:   req.Credibility,
		Delivery:      req.Delivery,
		Security:      req.Security,
		Innovation:    req.Innovation,
		Weight:        DefaultWeight,
		Summary:       req.Summary,
	}

	if err := s.repo.Insert(review); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("review_id", review.ID).
		Str("company_id", companyID).
		Msg("Expert review submitted (unverified)")

	if s.bus != nil {
		s.bus.EmitTyped(events.ReviewSubmitted, "reviews", &events.ReviewSubmittedData{
			ReviewID:      review.ID,
			CompanyID:     companyID,
			ContributorID: contributorID,
		})
	}

	return review, nil
}

// Verify marks a review as verified and triggers recomputation - this is
// the moment the review starts counting toward the company's score.
// Verifying an already-verified review is a no-op that still returns the
// review.
func (s *Service) Verify(ctx context.Context, reviewID string) (*ExpertReview, error) {
	review, err := s.repo.MarkVerified(reviewID)
	if err != nil {
		return nil, err
	}
	if review == nil {
		return nil, fmt.Errorf("review %s: %w", reviewID, domain.ErrNotFound)
	}

	s.log.Info().
		Str("review_id", reviewID).
		Str("company_id", review.CompanyID).
		Msg("Expert review verified")

	if s.bus != nil {
		s.bus.EmitTyped(events.ReviewVerified, "reviews", &events.ReviewVerifiedData{
			ReviewID:  reviewID,
			CompanyID: review.CompanyID,
		})
	}

	s.queue.Enqueue(review.CompanyID)

	return review, nil
}

// ListByCompany returns reviews for a company, optionally verified only.
func (s *Service) ListByCompany(companyID string, verifiedOnly bool) ([]ExpertReview, error) {
	return s.repo.GetByCompany(companyID, verifiedOnly)
}
