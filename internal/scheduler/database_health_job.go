package scheduler

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/credence/internal/reliability"
)

// DatabaseHealthJob runs integrity checks with auto-recovery across
// all engine databases, then truncates their WAL files.
type DatabaseHealthJob struct {
	healthServices map[string]*reliability.DatabaseHealthService
	log            zerolog.Logger
}

// NewDatabaseHealthJob creates a new database health job
func NewDatabaseHealthJob(healthServices map[string]*reliability.DatabaseHealthService, log zerolog.Logger) *DatabaseHealthJob {
	return &DatabaseHealthJob{
		healthServices: healthServices,
		log:            log.With().Str("job", "database_health").Logger(),
	}
}

// Name returns the job name
func (j *DatabaseHealthJob) Name() string {
	return "database_health"
}

// Run checks and recovers every database
func (j *DatabaseHealthJob) Run() error {
	for name, svc := range j.healthServices {
		j.log.Debug().Str("database", name).Msg("Running health check")

		if err := svc.CheckAndRecover(); err != nil {
			j.log.Error().
				Str("database", name).
				Err(err).
				Msg("CRITICAL: failed to recover database")
			return fmt.Errorf("failed to recover %s: %w", name, err)
		}

		metrics, err := svc.GetMetrics()
		if err != nil {
			continue
		}

		j.log.Info().
			Str("database", name).
			Float64("size_mb", metrics.SizeMB).
			Float64("wal_size_mb", metrics.WALSizeMB).
			Msg("Database metrics")
	}

	return nil
}
