package di

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/credence/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DataDir:            t.TempDir(),
		Port:               8010,
		LogLevel:           "error",
		ProfilesServiceURL: "http://localhost:9010",
		Scoring: config.ScoringConfig{
			HistoryEpsilon:  0.1,
			NotifyThreshold: 0.5,
		},
		RateLimit: config.RateLimitConfig{
			WritesPerMinute: 30,
			Burst:           10,
		},
	}
}

func TestWire(t *testing.T) {
	container, jobs, err := Wire(testConfig(t), zerolog.Nop())
	require.NoError(t, err)
	defer container.Close()

	assert.NotNil(t, container.CommunityDB)
	assert.NotNil(t, container.ScoresDB)
	assert.NotNil(t, container.HistoryDB)
	assert.NotNil(t, container.CacheDB)
	assert.Len(t, container.Databases, 4)

	assert.NotNil(t, container.EventBus)
	assert.NotNil(t, container.ProfilesClient)
	assert.NotNil(t, container.VotesService)
	assert.NotNil(t, container.ReviewsService)
	assert.NotNil(t, container.PromisesService)
	assert.NotNil(t, container.Aggregator)
	assert.NotNil(t, container.Notifier)
	assert.NotNil(t, container.Processor)
	assert.NotNil(t, container.RateLimiter)
	assert.NotNil(t, container.BackupService)
	assert.Len(t, container.HealthServices, 4)

	// No S3 credentials configured, so no cloud backup components.
	assert.Nil(t, container.CloudBackup)
	assert.Nil(t, jobs.CloudBackup)

	names := jobs.All()
	assert.Len(t, names, 8)
	for _, key := range []string{
		"check_wal_checkpoints",
		"score_consistency",
		"outbox_purge",
		"cache_cleanup",
		"database_health",
		"hourly_backup",
		"daily_backup",
		"weekly_backup",
	} {
		assert.Contains(t, names, key)
	}
}

func TestWireDatabaseProfiles(t *testing.T) {
	container, _, err := Wire(testConfig(t), zerolog.Nop())
	require.NoError(t, err)
	defer container.Close()

	assert.Equal(t, "standard", string(container.CommunityDB.Profile()))
	assert.Equal(t, "standard", string(container.ScoresDB.Profile()))
	assert.Equal(t, "ledger", string(container.HistoryDB.Profile()))
	assert.Equal(t, "cache", string(container.CacheDB.Profile()))
}

func TestContainerClose(t *testing.T) {
	container, _, err := Wire(testConfig(t), zerolog.Nop())
	require.NoError(t, err)

	assert.NoError(t, container.Close())
}
