package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/credence/internal/config"
	"github.com/aristath/credence/internal/di"
	"github.com/aristath/credence/internal/scheduler"
	"github.com/aristath/credence/internal/server"
	"github.com/aristath/credence/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger is not up yet; write directly and bail.
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().
		Str("data_dir", cfg.DataDir).
		Int("port", cfg.Port).
		Bool("cloud_backup", cfg.Backup != nil).
		Msg("Starting Credence scoring engine")

	container, jobs, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire application")
	}
	defer container.Close()

	// Background recompute processor
	go container.Processor.Run()

	// Scheduled jobs
	sched := scheduler.New(log)
	registerJobs(sched, jobs, log)
	sched.Start()

	// HTTP server
	srv := server.New(server.Config{
		Log:       log,
		Config:    cfg,
		Container: container,
	})
	srv.SetJobs(jobs.All())

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for shutdown signal or server failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	case err := <-serverErr:
		log.Error().Err(err).Msg("HTTP server failed")
	}

	// Graceful shutdown: stop accepting requests, then drain the
	// recompute processor and scheduler, then close databases.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	container.Processor.Stop()
	sched.Stop()

	for name, db := range container.Databases {
		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			log.Warn().Err(err).Str("database", name).Msg("Final WAL checkpoint failed")
		}
	}

	log.Info().Msg("Shutdown complete")
}

// registerJobs wires the scheduled jobs onto their cron schedules.
// Expressions use the seconds-resolution format.
func registerJobs(sched *scheduler.Scheduler, jobs *di.JobInstances, log zerolog.Logger) {
	schedules := []struct {
		spec string
		job  scheduler.Job
	}{
		{"0 */5 * * * *", jobs.WALCheckpoints},   // every 5 minutes
		{"0 15 * * * *", jobs.ScoreConsistency},  // hourly at :15
		{"0 0 * * * *", jobs.HourlyBackup},       // hourly on the hour
		{"0 30 2 * * *", jobs.DailyBackup},       // daily at 02:30
		{"0 0 3 * * 0", jobs.WeeklyBackup},       // Sundays at 03:00
		{"0 45 3 * * *", jobs.DatabaseHealth},    // daily at 03:45
		{"0 0 4 * * *", jobs.OutboxPurge},        // daily at 04:00
		{"0 30 * * * *", jobs.CacheCleanup},      // hourly at :30
	}

	if jobs.CloudBackup != nil {
		schedules = append(schedules, struct {
			spec string
			job  scheduler.Job
		}{"0 0 1 * * *", jobs.CloudBackup}) // daily at 01:00
	}

	for _, s := range schedules {
		if err := sched.AddJob(s.spec, s.job); err != nil {
			log.Fatal().Err(err).Str("job", s.job.Name()).Msg("Failed to register job")
		}
	}
}
