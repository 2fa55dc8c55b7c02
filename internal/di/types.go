// Package di wires the application together: databases, repositories,
// services, background jobs. Wiring is explicit constructor calls in
// dependency order, no reflection.
package di

import (
	"github.com/aristath/credence/internal/clientdata"
	profilesclient "github.com/aristath/credence/internal/clients/profiles"
	"github.com/aristath/credence/internal/database"
	"github.com/aristath/credence/internal/events"
	"github.com/aristath/credence/internal/modules/notifications"
	"github.com/aristath/credence/internal/modules/promises"
	"github.com/aristath/credence/internal/modules/reviews"
	"github.com/aristath/credence/internal/modules/scoring"
	"github.com/aristath/credence/internal/modules/votes"
	"github.com/aristath/credence/internal/ratelimit"
	"github.com/aristath/credence/internal/reliability"
	"github.com/aristath/credence/internal/work"
)

// Container holds all initialized application components
type Container struct {
	// Databases
	CommunityDB *database.DB
	ScoresDB    *database.DB
	HistoryDB   *database.DB
	CacheDB     *database.DB
	Databases   map[string]*database.DB

	// Infrastructure
	EventBus    *events.Bus
	RateLimiter *ratelimit.Limiter

	// External profile service client and its cache
	CacheRepo      *clientdata.Repository
	ProfilesClient *profilesclient.Client

	// Repositories
	VotesRepo    *votes.Repository
	ReviewsRepo  *reviews.Repository
	PromisesRepo *promises.Repository
	FollowerRepo *notifications.FollowerRepository
	OutboxRepo   *notifications.OutboxRepository

	// Scoring pipeline
	CommunityReader *scoring.CommunityReader
	ScoreRepo       *scoring.ScoreRepository
	HistoryRepo     *scoring.HistoryRepository
	Aggregator      *scoring.Aggregator
	Notifier        *notifications.Notifier
	Processor       *work.Processor

	// Module services
	VotesService    *votes.Service
	ReviewsService  *reviews.Service
	PromisesService *promises.Service

	// Reliability
	BackupService  *reliability.BackupService
	CloudBackup    *reliability.CloudBackupService // nil when cloud backups are disabled
	HealthServices map[string]*reliability.DatabaseHealthService
}

// Close releases all resources held by the container
func (c *Container) Close() error {
	var firstErr error

	if c.RateLimiter != nil {
		c.RateLimiter.Close()
	}

	for _, db := range []*database.DB{c.CacheDB, c.HistoryDB, c.ScoresDB, c.CommunityDB} {
		if db == nil {
			continue
		}
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
