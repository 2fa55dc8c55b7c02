package promises

import (
	"context"
	"fmt"

	"github.com/aristath/credence/internal/domain"
	"github.com/aristath/credence/internal/events"
	"github.com/rs/zerolog"
)

// Service implements promise lifecycle logic: creation, community verdict
// voting, and resolution. Resolution and verdict changes feed the delivery
// dimension, so both trigger recomputation.
type Service struct {
	repo  *Repository
	queue domain.RecomputeQueue
	bus   *events.Bus
	log   zerolog.Logger
}

// NewService creates a new promise service
func NewService(repo *Repository, queue domain.RecomputeQueue, bus *events.Bus, log zerolog.Logger) *Service {
	return &Service{
		repo:  repo,
		queue: queue,
		bus:   bus,
		log:   log.With().Str("service", "promises").Logger(),
	}
}

// Create records a new pending promise. Pending promises don't affect the
// score, so no recompute is triggered here.
func (s *Service) Create(ctx context.Context, contributorID, companyID string, req CreateRequest) (*Promise, error) {
	if contributorID == "" {
		return nil, domain.ErrUnauthorized
	}
	if companyID == "" {
		return nil, domain.NewValidationError("company_id", "company ID is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	promise := &Promise{
		CompanyID:    companyID,
		Title:        req.Title,
		Description:  req.Description,
		PromisedDate: req.PromisedDate,
		Deadline:     req.Deadline,
	}

	if err := s.repo.Insert(promise); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("promise_id", promise.ID).
		Str("company_id", companyID).
		Str("title", promise.Title).
		Msg("Promise recorded")

	if s.bus != nil {
		s.bus.EmitTyped(events.PromiseCreated, "promises", &events.PromiseCreatedData{
			PromiseID: promise.ID,
			CompanyID: companyID,
			Title:     promise.Title,
		})
	}

	return promise, nil
}

// Resolve moves a promise out of pending, applies the community verdict from
// the current vote tally, and triggers recomputation.
func (s *Service) Resolve(ctx context.Context, contributorID, promiseID string, req ResolveRequest) (*Promise, error) {
	if contributorID == "" {
		return nil, domain.ErrUnauthorized
	}

	status, err := req.Validate()
	if err != nil {
		return nil, err
	}

	promise, err := s.repo.GetByID(promiseID)
	if err != nil {
		return nil, err
	}
	if promise == nil {
		return nil, fmt.Errorf("promise %s: %w", promiseID, domain.ErrNotFound)
	}

	if err := s.repo.SetStatus(promiseID, status); err != nil {
		return nil, err
	}

	verdict, err := s.applyVerdict(promiseID)
	if err != nil {
		return nil, err
	}

	verdictStr := ""
	if verdict != nil {
		verdictStr = string(*verdict)
	}

	s.log.Info().
		Str("promise_id", promiseID).
		Str("company_id", promise.CompanyID).
		Str("status", string(status)).
		Str("verdict", verdictStr).
		Msg("Promise resolved")

	if s.bus != nil {
		s.bus.EmitTyped(events.PromiseResolved, "promises", &events.PromiseResolvedData{
			PromiseID: promiseID,
			CompanyID: promise.CompanyID,
			Status:    string(status),
			Verdict:   verdictStr,
		})
	}

	s.queue.Enqueue(promise.CompanyID)

	return s.repo.GetByID(promiseID)
}

// Vote records a contributor's verdict on a promise, replacing any previous
// verdict from the same contributor. On an already-resolved promise the
// community verdict is re-tallied and the score recomputed, so late evidence
// still counts.
func (s *Service) Vote(ctx context.Context, contributorID, promiseID string, req VoteRequest) (*PromiseVote, error) {
	if contributorID == "" {
		return nil, domain.ErrUnauthorized
	}

	verdict, err := domain.ParsePromiseVerdict(req.Verdict)
	if err != nil {
		return nil, err
	}

	promise, err := s.repo.GetByID(promiseID)
	if err != nil {
		return nil, err
	}
	if promise == nil {
		return nil, fmt.Errorf("promise %s: %w", promiseID, domain.ErrNotFound)
	}

	vote := &PromiseVote{
		PromiseID:     promiseID,
		ContributorID: contributorID,
		Verdict:       verdict,
	}
	if err := s.repo.UpsertVote(vote); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("promise_id", promiseID).
		Str("verdict", string(verdict)).
		Msg("Promise vote recorded")

	if promise.Resolved() {
		if _, err := s.applyVerdict(promiseID); err != nil {
			return nil, err
		}
		s.queue.Enqueue(promise.CompanyID)
	}

	return vote, nil
}

// ListByCompany returns all promises for a company.
func (s *Service) ListByCompany(companyID string) ([]Promise, error) {
	return s.repo.GetByCompany(companyID)
}

// applyVerdict tallies promise votes and stores the majority verdict.
// Ties break by severity order kept > broken > partial; no votes clears
// the verdict.
func (s *Service) applyVerdict(promiseID string) (*domain.PromiseVerdict, error) {
	tally, err := s.repo.TallyVotes(promiseID)
	if err != nil {
		return nil, err
	}

	verdict := majorityVerdict(tally)
	if err := s.repo.SetVerdict(promiseID, verdict); err != nil {
		return nil, err
	}
	return verdict, nil
}

// majorityVerdict picks the verdict with the most votes. The tie-break
// order is fixed so re-tallying the same votes is deterministic.
func majorityVerdict(tally map[domain.PromiseVerdict]int) *domain.PromiseVerdict {
	order := []domain.PromiseVerdict{domain.VerdictKept, domain.VerdictBroken, domain.VerdictPartial}

	var best *domain.PromiseVerdict
	bestCount := 0
	for _, v := range order {
		if tally[v] > bestCount {
			verdict := v
			best = &verdict
			bestCount = tally[v]
		}
	}
	return best
}
