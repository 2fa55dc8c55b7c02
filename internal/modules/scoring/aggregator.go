package scoring

import (
	"fmt"
	"math"
	"time"

	"github.com/aristath/credence/internal/domain"
	"github.com/aristath/credence/internal/events"
	"github.com/aristath/credence/internal/modules/promises"
	"github.com/rs/zerolog"
)

// Overall score weights per dimension. Fixed contract, sums to 1.0.
var overallWeights = map[domain.Dimension]float64{
	domain.DimensionEthics:      0.30,
	domain.DimensionCredibility: 0.25,
	domain.DimensionDelivery:    0.20,
	domain.DimensionSecurity:    0.15,
	domain.DimensionInnovation:  0.10,
}

// Notifier is the aggregator's hook into follower notification. It runs
// after the score commit; failures must never propagate back into the
// recompute pipeline.
type Notifier interface {
	NotifyScoreChange(companyID string, oldScore *float64, newScore float64)
}

// Aggregator recomputes a company's full CompanyScore from source evidence.
// It is the only writer of company_scores and score_history. Callers must
// serialize invocations per company (the work processor does this); reads
// are never blocked by a recompute.
type Aggregator struct {
	reader    *CommunityReader
	scores    *ScoreRepository
	history   *HistoryRepository
	notifier  Notifier
	bus       *events.Bus
	epsilon   float64
	log       zerolog.Logger
}

// NewAggregator creates a new score aggregator. epsilon is the minimum
// overall-score change recorded to history; notifier may be nil.
func NewAggregator(
	reader *CommunityReader,
	scores *ScoreRepository,
	history *HistoryRepository,
	notifier Notifier,
	bus *events.Bus,
	epsilon float64,
	log zerolog.Logger,
) *Aggregator {
	if epsilon <= 0 {
		epsilon = 0.1
	}
	return &Aggregator{
		reader:   reader,
		scores:   scores,
		history:  history,
		notifier: notifier,
		bus:      bus,
		epsilon:  epsilon,
		log:      log.With().Str("service", "aggregator").Logger(),
	}
}

// Recompute rebuilds the company's score from scratch and commits it.
// The pipeline: dimension scores (delivery promise-blended), overall,
// confidence, atomic upsert, then history and notification with the
// (old, new) overall pair. Deterministic: recomputing with unchanged
// evidence yields an identical CompanyScore.
func (a *Aggregator) Recompute(companyID string) error {
	if companyID == "" {
		return domain.NewValidationError("company_id", "company ID is required")
	}

	start := time.Now()

	score := &CompanyScore{CompanyID: companyID}

	for _, dim := range domain.AllDimensions() {
		values, err := a.reader.WeightedValues(companyID, dim)
		if err != nil {
			return &domain.RecomputationError{CompanyID: companyID, Err: err}
		}
		score.setDimension(dim, DimensionScore(values))
	}

	stats, err := a.reader.PromiseStats(companyID)
	if err != nil {
		return &domain.RecomputationError{CompanyID: companyID, Err: err}
	}
	score.Delivery = promises.BlendDelivery(score.Delivery, stats)
	score.PromiseKeptRatio = stats.KeptRatio()

	score.Overall = overallScore(score)

	score.TotalVotes, err = a.reader.CountVotes(companyID)
	if err != nil {
		return &domain.RecomputationError{CompanyID: companyID, Err: err}
	}
	score.ExpertReviews, err = a.reader.CountVerifiedReviews(companyID)
	if err != nil {
		return &domain.RecomputationError{CompanyID: companyID, Err: err}
	}
	score.Confidence = ClassifyConfidence(score.ExpertReviews, score.TotalVotes)
	score.LastCalculated = time.Now().Unix()

	previous, err := a.scores.Get(companyID)
	if err != nil {
		return &domain.RecomputationError{CompanyID: companyID, Err: err}
	}

	if err := a.scores.Upsert(score); err != nil {
		return &domain.RecomputationError{CompanyID: companyID, Err: fmt.Errorf("score commit failed: %w", err)}
	}

	// Past this point the score is committed; history and notification
	// failures are logged but never fail the recompute.
	var oldOverall *float64
	if previous != nil {
		oldOverall = &previous.Overall
	}

	if _, err := a.history.RecordIfSignificant(score, oldOverall, a.epsilon); err != nil {
		a.log.Error().Err(err).Str("company_id", companyID).Msg("Failed to append score history")
	}

	if a.notifier != nil {
		a.notifier.NotifyScoreChange(companyID, oldOverall, score.Overall)
	}

	if a.bus != nil {
		a.bus.EmitTyped(events.ScoreRecalculated, "scoring", &events.ScoreRecalculatedData{
			CompanyID:  companyID,
			Overall:    score.Overall,
			Confidence: string(score.Confidence),
			TotalVotes: score.TotalVotes,
		})
	}

	a.log.Info().
		Str("company_id", companyID).
		Float64("overall", score.Overall).
		Str("confidence", string(score.Confidence)).
		Int("votes", score.TotalVotes).
		Int("expert_reviews", score.ExpertReviews).
		Dur("elapsed", time.Since(start)).
		Msg("Score recomputed")

	return nil
}

// GetScore returns a company's current score, nil if never computed.
func (a *Aggregator) GetScore(companyID string) (*CompanyScore, error) {
	return a.scores.Get(companyID)
}

// GetAllScores returns all current scores, best overall first.
func (a *Aggregator) GetAllScores() ([]CompanyScore, error) {
	return a.scores.GetAll()
}

// GetHistory returns a company's recorded score trend, oldest first.
func (a *Aggregator) GetHistory(companyID string, limit int) ([]HistoryEntry, error) {
	return a.history.GetByCompany(companyID, limit)
}

// Verify recomputes the company's score without committing and compares it
// against the stored row. A mismatch means the cache has drifted from the
// source evidence - a programming-bug signal surfaced by the nightly
// consistency sweep and by tests.
func (a *Aggregator) Verify(companyID string) (bool, error) {
	stored, err := a.scores.Get(companyID)
	if err != nil {
		return false, err
	}
	if stored == nil {
		return true, nil
	}

	fresh := &CompanyScore{CompanyID: companyID}
	for _, dim := range domain.AllDimensions() {
		values, err := a.reader.WeightedValues(companyID, dim)
		if err != nil {
			return false, err
		}
		fresh.setDimension(dim, DimensionScore(values))
	}
	stats, err := a.reader.PromiseStats(companyID)
	if err != nil {
		return false, err
	}
	fresh.Delivery = promises.BlendDelivery(fresh.Delivery, stats)
	fresh.Overall = overallScore(fresh)

	consistent := fresh.Overall == stored.Overall &&
		fresh.Ethics == stored.Ethics &&
		fresh.Credibility == stored.Credibility &&
		fresh.Delivery == stored.Delivery &&
		fresh.Security == stored.Security &&
		fresh.Innovation == stored.Innovation

	if !consistent {
		a.log.Warn().
			Str("company_id", companyID).
			Float64("stored_overall", stored.Overall).
			Float64("recomputed_overall", fresh.Overall).
			Msg("Inconsistent score state detected")
	}
	return consistent, nil
}

// overallScore folds the five dimension scores into the weighted overall.
// Summation follows the canonical dimension order: float addition is not
// associative, and map iteration order would let a total sitting on a
// rounding boundary flip between recomputes.
func overallScore(score *CompanyScore) float64 {
	total := 0.0
	for _, dim := range domain.AllDimensions() {
		total += score.Dimension(dim) * overallWeights[dim]
	}
	return math.Round(total*10) / 10
}
