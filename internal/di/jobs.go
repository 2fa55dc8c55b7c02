package di

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/aristath/credence/internal/clientdata"
	"github.com/aristath/credence/internal/config"
	"github.com/aristath/credence/internal/reliability"
	"github.com/aristath/credence/internal/scheduler"
)

// JobInstances holds all scheduled job instances
type JobInstances struct {
	WALCheckpoints   *scheduler.CheckWALCheckpointsJob
	ScoreConsistency *scheduler.ScoreConsistencyJob
	OutboxPurge      *scheduler.OutboxPurgeJob
	CacheCleanup     *clientdata.CleanupJob
	DatabaseHealth   *scheduler.DatabaseHealthJob
	HourlyBackup     *reliability.HourlyBackupJob
	DailyBackup      *reliability.DailyBackupJob
	WeeklyBackup     *reliability.WeeklyBackupJob
	CloudBackup      *reliability.CloudBackupJob // nil when cloud backups are disabled
}

// All returns the jobs keyed by name, for API-triggered runs
func (j *JobInstances) All() map[string]scheduler.Job {
	jobs := map[string]scheduler.Job{
		j.WALCheckpoints.Name():   j.WALCheckpoints,
		j.ScoreConsistency.Name(): j.ScoreConsistency,
		j.OutboxPurge.Name():      j.OutboxPurge,
		j.CacheCleanup.Name():     j.CacheCleanup,
		j.DatabaseHealth.Name():   j.DatabaseHealth,
		j.HourlyBackup.Name():     j.HourlyBackup,
		j.DailyBackup.Name():      j.DailyBackup,
		j.WeeklyBackup.Name():     j.WeeklyBackup,
	}
	if j.CloudBackup != nil {
		jobs[j.CloudBackup.Name()] = j.CloudBackup
	}
	return jobs
}

// InitializeJobs creates the reliability services and all scheduled jobs
func InitializeJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	backupDir := filepath.Join(cfg.DataDir, "backups")
	container.BackupService = reliability.NewBackupService(
		container.Databases,
		cfg.DataDir,
		backupDir,
		log,
	)

	container.HealthServices = make(map[string]*reliability.DatabaseHealthService, len(container.Databases))
	for name, db := range container.Databases {
		container.HealthServices[name] = reliability.NewDatabaseHealthService(db, container.BackupService, log)
	}

	if cfg.Backup != nil {
		s3Client, err := reliability.NewS3Client(cfg.Backup, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 client: %w", err)
		}
		container.CloudBackup = reliability.NewCloudBackupService(
			s3Client,
			container.BackupService,
			cfg.DataDir,
			cfg.Backup.RetentionDays,
			log,
		)
	}

	jobs := &JobInstances{
		WALCheckpoints:   scheduler.NewCheckWALCheckpointsJob(container.Databases, log),
		ScoreConsistency: scheduler.NewScoreConsistencyJob(container.Aggregator, container.Processor, log),
		OutboxPurge:      scheduler.NewOutboxPurgeJob(container.OutboxRepo, log),
		CacheCleanup:     clientdata.NewCleanupJob(container.CacheRepo, log),
		DatabaseHealth:   scheduler.NewDatabaseHealthJob(container.HealthServices, log),
		HourlyBackup:     reliability.NewHourlyBackupJob(container.BackupService),
		DailyBackup:      reliability.NewDailyBackupJob(container.BackupService),
		WeeklyBackup:     reliability.NewWeeklyBackupJob(container.BackupService),
	}

	if container.CloudBackup != nil {
		jobs.CloudBackup = reliability.NewCloudBackupJob(container.CloudBackup)
	}

	return jobs, nil
}
