package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/credence/internal/config"
)

// Wire initializes the full application: databases, repositories,
// services, and scheduled jobs. The caller owns the returned container
// and must Close it on shutdown.
func Wire(cfg *config.Config, log zerolog.Logger) (*Container, *JobInstances, error) {
	container, err := InitializeDatabases(cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("database initialization failed: %w", err)
	}

	InitializeRepositories(container, log)
	InitializeServices(container, cfg, log)

	jobs, err := InitializeJobs(container, cfg, log)
	if err != nil {
		_ = container.Close()
		return nil, nil, fmt.Errorf("job initialization failed: %w", err)
	}

	log.Info().Msg("Application wiring complete")
	return container, jobs, nil
}
