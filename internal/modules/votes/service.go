package votes

import (
	"context"
	"fmt"

	"github.com/aristath/credence/internal/domain"
	"github.com/aristath/credence/internal/events"
	"github.com/aristath/credence/internal/modules/scoring"
	"github.com/rs/zerolog"
)

// Service implements vote business logic: validation, weight capture, upsert
// semantics, and recompute triggering.
type Service struct {
	repo       *Repository
	reputation domain.ReputationSource
	queue      domain.RecomputeQueue
	bus        *events.Bus
	log        zerolog.Logger
}

// NewService creates a new vote service
func NewService(
	repo *Repository,
	reputation domain.ReputationSource,
	queue domain.RecomputeQueue,
	bus *events.Bus,
	log zerolog.Logger,
) *Service {
	return &Service{
		repo:       repo,
		reputation: reputation,
		queue:      queue,
		bus:        bus,
		log:        log.With().Str("service", "votes").Logger(),
	}
}

// Submit casts or replaces a vote. When strict is set, an existing vote for
// the same (company, dimension) is a conflict instead of a replacement.
// The vote's weight is resolved from the contributor's profile at write time;
// if the profile service is unreachable the vote still lands with the default
// weight rather than being rejected.
func (s *Service) Submit(ctx context.Context, contributorID, companyID string, req SubmitRequest, strict bool) (*Vote, error) {
	if contributorID == "" {
		return nil, domain.ErrUnauthorized
	}
	if companyID == "" {
		return nil, domain.NewValidationError("company_id", "company ID is required")
	}

	dim, err := req.Validate()
	if err != nil {
		return nil, err
	}

	if strict {
		existing, err := s.repo.Get(contributorID, companyID, dim)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, fmt.Errorf("vote already exists for %s/%s: %w", companyID, dim, domain.ErrConflict)
		}
	}

	weight := scoring.WeightDefault
	profile, err := s.reputation.GetProfile(ctx, contributorID)
	if err != nil {
		s.log.Warn().
			Err(err).
			Str("contributor_id", contributorID).
			Msg("Profile lookup failed, using default vote weight")
	} else {
		weight = scoring.WeightFor(profile)
	}

	vote := &Vote{
		ContributorID: contributorID,
		CompanyID:     companyID,
		Dimension:     dim,
		Score:         req.Score,
		Weight:        weight,
		Comment:       req.Comment,
		EvidenceURLs:  req.EvidenceURLs,
	}

	updated, err := s.repo.Upsert(vote)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("company_id", companyID).
		Str("dimension", string(dim)).
		Int("score", req.Score).
		Float64("weight", weight).
		Bool("updated", updated).
		Msg("Vote recorded")

	if s.bus != nil {
		s.bus.EmitTyped(events.VoteRecorded, "votes", &events.VoteRecordedData{
			CompanyID:     companyID,
			ContributorID: contributorID,
			Dimension:     string(dim),
			Score:         req.Score,
			Weight:        weight,
			Updated:       updated,
		})
	}

	s.queue.Enqueue(companyID)

	return vote, nil
}

// Retract removes a contributor's vote and triggers recomputation.
// Retracting a vote that does not exist is ErrNotFound.
func (s *Service) Retract(ctx context.Context, contributorID, companyID, dimension string) error {
	if contributorID == "" {
		return domain.ErrUnauthorized
	}

	dim, err := domain.ParseDimension(dimension)
	if err != nil {
		return err
	}

	removed, err := s.repo.Delete(contributorID, companyID, dim)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("no vote for %s/%s: %w", companyID, dim, domain.ErrNotFound)
	}

	s.log.Info().
		Str("company_id", companyID).
		Str("dimension", string(dim)).
		Msg("Vote retracted")

	if s.bus != nil {
		s.bus.EmitTyped(events.VoteRetracted, "votes", &events.VoteRetractedData{
			CompanyID:     companyID,
			ContributorID: contributorID,
			Dimension:     string(dim),
		})
	}

	s.queue.Enqueue(companyID)

	return nil
}

// ListByCompany returns all votes for a company, newest first.
func (s *Service) ListByCompany(companyID string) ([]Vote, error) {
	return s.repo.GetByCompany(companyID)
}
