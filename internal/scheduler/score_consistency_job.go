package scheduler

import (
	"github.com/rs/zerolog"

	"github.com/aristath/credence/internal/domain"
	"github.com/aristath/credence/internal/modules/scoring"
)

// ScoreConsistencyJob sweeps all scored companies and verifies that the
// committed score card still matches what a fresh aggregation over
// community data would produce. Companies that drifted (a crashed
// recompute, a manual database edit) are re-enqueued.
type ScoreConsistencyJob struct {
	aggregator *scoring.Aggregator
	queue      domain.RecomputeQueue
	log        zerolog.Logger
}

// NewScoreConsistencyJob creates a new score consistency job
func NewScoreConsistencyJob(aggregator *scoring.Aggregator, queue domain.RecomputeQueue, log zerolog.Logger) *ScoreConsistencyJob {
	return &ScoreConsistencyJob{
		aggregator: aggregator,
		queue:      queue,
		log:        log.With().Str("job", "score_consistency").Logger(),
	}
}

// Name returns the job name
func (j *ScoreConsistencyJob) Name() string {
	return "score_consistency"
}

// Run verifies every committed score and re-enqueues drifted companies
func (j *ScoreConsistencyJob) Run() error {
	scores, err := j.aggregator.GetAllScores()
	if err != nil {
		return err
	}

	drifted := 0
	for _, score := range scores {
		consistent, err := j.aggregator.Verify(score.CompanyID)
		if err != nil {
			j.log.Warn().
				Err(err).
				Str("company_id", score.CompanyID).
				Msg("Consistency check failed")
			continue
		}

		if !consistent {
			j.log.Warn().
				Str("company_id", score.CompanyID).
				Msg("Committed score drifted from community data, re-enqueueing")
			j.queue.Enqueue(score.CompanyID)
			drifted++
		}
	}

	j.log.Info().
		Int("checked", len(scores)).
		Int("drifted", drifted).
		Msg("Score consistency sweep completed")

	return nil
}
