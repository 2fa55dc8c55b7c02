package di

import (
	"github.com/rs/zerolog"

	profilesclient "github.com/aristath/credence/internal/clients/profiles"
	"github.com/aristath/credence/internal/config"
	"github.com/aristath/credence/internal/events"
	"github.com/aristath/credence/internal/modules/notifications"
	"github.com/aristath/credence/internal/modules/promises"
	"github.com/aristath/credence/internal/modules/reviews"
	"github.com/aristath/credence/internal/modules/scoring"
	"github.com/aristath/credence/internal/modules/votes"
	"github.com/aristath/credence/internal/ratelimit"
	"github.com/aristath/credence/internal/work"
)

// InitializeServices creates all services in dependency order
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) {
	container.EventBus = events.NewBus()

	container.ProfilesClient = profilesclient.NewClient(
		cfg.ProfilesServiceURL,
		container.CacheRepo,
		log,
	)

	container.Notifier = notifications.NewNotifier(
		container.FollowerRepo,
		container.OutboxRepo,
		container.EventBus,
		cfg.Scoring.NotifyThreshold,
		log,
	)

	container.Aggregator = scoring.NewAggregator(
		container.CommunityReader,
		container.ScoreRepo,
		container.HistoryRepo,
		container.Notifier,
		container.EventBus,
		cfg.Scoring.HistoryEpsilon,
		log,
	)

	// The processor is the single RecomputeQueue; all write paths enqueue
	// through it so recomputes stay serialized per company.
	container.Processor = work.NewProcessor(container.Aggregator, container.EventBus, log)

	container.VotesService = votes.NewService(
		container.VotesRepo,
		container.ProfilesClient,
		container.Processor,
		container.EventBus,
		log,
	)

	container.ReviewsService = reviews.NewService(
		container.ReviewsRepo,
		container.Processor,
		container.EventBus,
		log,
	)

	container.PromisesService = promises.NewService(
		container.PromisesRepo,
		container.Processor,
		container.EventBus,
		log,
	)

	container.RateLimiter = ratelimit.New(ratelimit.Config{
		WritesPerMinute: cfg.RateLimit.WritesPerMinute,
		Burst:           cfg.RateLimit.Burst,
	}, log)
}
