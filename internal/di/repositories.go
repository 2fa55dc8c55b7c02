package di

import (
	"github.com/rs/zerolog"

	"github.com/aristath/credence/internal/clientdata"
	"github.com/aristath/credence/internal/modules/notifications"
	"github.com/aristath/credence/internal/modules/promises"
	"github.com/aristath/credence/internal/modules/reviews"
	"github.com/aristath/credence/internal/modules/scoring"
	"github.com/aristath/credence/internal/modules/votes"
)

// InitializeRepositories creates all repositories on the opened databases
func InitializeRepositories(container *Container, log zerolog.Logger) {
	// Community evidence (community.db)
	container.VotesRepo = votes.NewRepository(container.CommunityDB.Conn(), log)
	container.ReviewsRepo = reviews.NewRepository(container.CommunityDB.Conn(), log)
	container.PromisesRepo = promises.NewRepository(container.CommunityDB.Conn(), log)
	container.FollowerRepo = notifications.NewFollowerRepository(container.CommunityDB.Conn(), log)

	// Scoring reads community evidence, writes current scores (scores.db)
	container.CommunityReader = scoring.NewCommunityReader(container.CommunityDB.Conn(), log)
	container.ScoreRepo = scoring.NewScoreRepository(container.ScoresDB.Conn(), log)

	// Append-only records (history.db, ledger profile)
	container.HistoryRepo = scoring.NewHistoryRepository(container.HistoryDB.Conn(), log)
	container.OutboxRepo = notifications.NewOutboxRepository(container.HistoryDB.Conn(), log)

	// Profile cache (cache.db, rebuildable)
	container.CacheRepo = clientdata.NewRepository(container.CacheDB.Conn())
}
