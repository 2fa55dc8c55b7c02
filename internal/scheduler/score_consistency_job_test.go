package scheduler

import (
	"database/sql"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/aristath/credence/internal/modules/scoring"
)

const testCommunitySchema = `
CREATE TABLE votes (
    id TEXT PRIMARY KEY,
    contributor_id TEXT NOT NULL,
    company_id TEXT NOT NULL,
    dimension TEXT NOT NULL,
    score INTEGER NOT NULL,
    weight REAL NOT NULL DEFAULT 1.0,
    comment TEXT,
    evidence_urls TEXT,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
CREATE TABLE expert_reviews (
    id TEXT PRIMARY KEY,
    contributor_id TEXT NOT NULL,
    company_id TEXT NOT NULL,
    ethics_score REAL,
    credibility_score REAL,
    delivery_score REAL,
    security_score REAL,
    innovation_score REAL,
    weight REAL NOT NULL DEFAULT 2.0,
    verified INTEGER NOT NULL DEFAULT 0,
    summary TEXT,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
CREATE TABLE promises (
    id TEXT PRIMARY KEY,
    company_id TEXT NOT NULL,
    title TEXT NOT NULL,
    description TEXT,
    promised_date INTEGER NOT NULL,
    deadline INTEGER,
    status TEXT NOT NULL DEFAULT 'pending',
    community_verdict TEXT,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
`

const testScoresSchema = `
CREATE TABLE company_scores (
    company_id TEXT PRIMARY KEY,
    ethics_score REAL NOT NULL DEFAULT 0,
    credibility_score REAL NOT NULL DEFAULT 0,
    delivery_score REAL NOT NULL DEFAULT 0,
    security_score REAL NOT NULL DEFAULT 0,
    innovation_score REAL NOT NULL DEFAULT 0,
    overall_score REAL NOT NULL DEFAULT 0,
    confidence TEXT NOT NULL DEFAULT 'low',
    total_votes INTEGER NOT NULL DEFAULT 0,
    expert_reviews INTEGER NOT NULL DEFAULT 0,
    promise_kept_ratio REAL NOT NULL DEFAULT 0,
    last_calculated INTEGER NOT NULL
);
`

const testHistorySchema = `
CREATE TABLE score_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    company_id TEXT NOT NULL,
    score_type TEXT NOT NULL DEFAULT 'overall',
    score REAL NOT NULL,
    change_amount REAL NOT NULL DEFAULT 0,
    confidence TEXT NOT NULL,
    total_votes INTEGER NOT NULL DEFAULT 0,
    recorded_at INTEGER NOT NULL
);
`

type mockQueue struct {
	mu       sync.Mutex
	enqueued []string
}

func (m *mockQueue) Enqueue(companyID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enqueued = append(m.enqueued, companyID)
}

func openTestDB(t *testing.T, schema string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	_, err = db.Exec(schema)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestScoreConsistencyJob(t *testing.T) {
	communityDB := openTestDB(t, testCommunitySchema)
	scoresDB := openTestDB(t, testScoresSchema)
	historyDB := openTestDB(t, testHistorySchema)

	log := zerolog.Nop()
	aggregator := scoring.NewAggregator(
		scoring.NewCommunityReader(communityDB, log),
		scoring.NewScoreRepository(scoresDB, log),
		scoring.NewHistoryRepository(historyDB, log),
		nil,
		nil,
		0.1,
		log,
	)

	_, err := communityDB.Exec(`
		INSERT INTO votes (id, contributor_id, company_id, dimension, score, weight, created_at, updated_at)
		VALUES ('v1', 'alice', 'acme', 'ethics', 8, 1.0, 0, 0)
	`)
	require.NoError(t, err)

	require.NoError(t, aggregator.Recompute("acme"))

	queue := &mockQueue{}
	job := NewScoreConsistencyJob(aggregator, queue, log)
	assert.Equal(t, "score_consistency", job.Name())

	t.Run("consistent scores are not re-enqueued", func(t *testing.T) {
		require.NoError(t, job.Run())
		assert.Empty(t, queue.enqueued)
	})

	t.Run("drifted scores are re-enqueued", func(t *testing.T) {
		// New evidence lands without a recompute, as if the processor
		// had crashed before committing.
		_, err := communityDB.Exec(`
			INSERT INTO votes (id, contributor_id, company_id, dimension, score, weight, created_at, updated_at)
			VALUES ('v2', 'bob', 'acme', 'ethics', 2, 1.0, 0, 0)
		`)
		require.NoError(t, err)

		require.NoError(t, job.Run())
		assert.Equal(t, []string{"acme"}, queue.enqueued)
	})
}
