package scheduler

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/credence/internal/modules/notifications"
)

// DeliveredRetention is how long acknowledged notifications stay in
// the outbox before they are purged.
const DeliveredRetention = 30 * 24 * time.Hour

// OutboxPurgeJob removes acknowledged notifications past their
// retention window. Undelivered notifications are never purged.
type OutboxPurgeJob struct {
	outbox *notifications.OutboxRepository
	log    zerolog.Logger
}

// NewOutboxPurgeJob creates a new outbox purge job
func NewOutboxPurgeJob(outbox *notifications.OutboxRepository, log zerolog.Logger) *OutboxPurgeJob {
	return &OutboxPurgeJob{
		outbox: outbox,
		log:    log.With().Str("job", "outbox_purge").Logger(),
	}
}

// Name returns the job name
func (j *OutboxPurgeJob) Name() string {
	return "outbox_purge"
}

// Run purges delivered notifications older than the retention window
func (j *OutboxPurgeJob) Run() error {
	purged, err := j.outbox.PurgeDelivered(DeliveredRetention)
	if err != nil {
		return err
	}

	j.log.Info().
		Int64("purged", purged).
		Msg("Outbox purge completed")

	return nil
}
