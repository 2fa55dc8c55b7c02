package di

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/aristath/credence/internal/config"
	"github.com/aristath/credence/internal/database"
)

// InitializeDatabases opens and migrates the four engine databases.
// On any failure, databases opened so far are closed before returning.
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{
		Databases: make(map[string]*database.DB),
	}

	specs := []struct {
		name    string
		profile database.DatabaseProfile
		target  **database.DB
	}{
		{"community", database.ProfileStandard, &container.CommunityDB},
		{"scores", database.ProfileStandard, &container.ScoresDB},
		{"history", database.ProfileLedger, &container.HistoryDB},
		{"cache", database.ProfileCache, &container.CacheDB},
	}

	for _, spec := range specs {
		db, err := database.New(database.Config{
			Path:    filepath.Join(cfg.DataDir, spec.name+".db"),
			Profile: spec.profile,
			Name:    spec.name,
		})
		if err != nil {
			closeDatabases(container, log)
			return nil, fmt.Errorf("failed to open %s database: %w", spec.name, err)
		}

		if err := db.Migrate(); err != nil {
			_ = db.Close()
			closeDatabases(container, log)
			return nil, fmt.Errorf("failed to migrate %s database: %w", spec.name, err)
		}

		*spec.target = db
		container.Databases[spec.name] = db

		log.Info().
			Str("database", spec.name).
			Str("profile", string(spec.profile)).
			Str("path", db.Path()).
			Msg("Database initialized")
	}

	return container, nil
}

func closeDatabases(container *Container, log zerolog.Logger) {
	for name, db := range container.Databases {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Str("database", name).Msg("Failed to close database during cleanup")
		}
	}
}
