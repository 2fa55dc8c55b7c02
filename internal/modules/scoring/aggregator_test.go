package scoring

import (
	"database/sql"
	"math"
	"sync"
	"testing"

	"github.com/aristath/credence/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

const communitySchema = `
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
CREATE UNIQUE INDEX idx_votes_unique ON votes(contributor_id, company_id, dimension);
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

const scoresSchema = `
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

const historySchema = `
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

// mockNotifier records score change notifications
type mockNotifier struct {
	mu    sync.Mutex
	calls []struct {
		companyID string
		old       *float64
		new       float64
	}
}

func (m *mockNotifier) NotifyScoreChange(companyID string, oldScore *float64, newScore float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, struct {
		companyID string
		old       *float64
		new       float64
	}{companyID, oldScore, newScore})
}

type testEngine struct {
	communityDB *sql.DB
	scoresDB    *sql.DB
	historyDB   *sql.DB
	aggregator  *Aggregator
	notifier    *mockNotifier
}

func openDB(t *testing.T, schema string) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	_, err = db.Exec(schema)
	require.NoError(t, err)
	return db
}

func newTestEngine(t *testing.T) *testEngine {
	communityDB := openDB(t, communitySchema)
	scoresDB := openDB(t, scoresSchema)
	historyDB := openDB(t, historySchema)
	t.Cleanup(func() {
		communityDB.Close()
		scoresDB.Close()
		historyDB.Close()
	})

	notifier := &mockNotifier{}
	log := zerolog.Nop()
	aggregator := NewAggregator(
		NewCommunityReader(communityDB, log),
		NewScoreRepository(scoresDB, log),
		NewHistoryRepository(historyDB, log),
		notifier,
		nil,
		0.1,
		log,
	)

	return &testEngine{
		communityDB: communityDB,
		scoresDB:    scoresDB,
		historyDB:   historyDB,
		aggregator:  aggregator,
		notifier:    notifier,
	}
}

func (e *testEngine) addVote(t *testing.T, contributor, company string, dim domain.Dimension, score int, weight float64) {
	_, err := e.communityDB.Exec(`
		INSERT INTO votes (id, contributor_id, company_id, dimension, score, weight, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, 0)
		ON CONFLICT(contributor_id, company_id, dimension) DO UPDATE SET score = excluded.score, weight = excluded.weight
	`, contributor+"/"+company+"/"+string(dim), contributor, company, string(dim), score, weight)
	require.NoError(t, err)
}

func (e *testEngine) addReview(t *testing.T, id, company string, verified bool, scores map[domain.Dimension]float64) {
	cols := map[domain.Dimension]interface{}{
		domain.DimensionEthics:      nil,
		domain.DimensionCredibility: nil,
		domain.DimensionDelivery:    nil,
		domain.DimensionSecurity:    nil,
		domain.DimensionInnovation:  nil,
	}
	for dim, v := range scores {
		cols[dim] = v
	}
	v := 0
	if verified {
		v = 1
	}
	_, err := e.communityDB.Exec(`
		INSERT INTO expert_reviews (id, contributor_id, company_id, ethics_score, credibility_score, delivery_score, security_score, innovation_score, weight, verified, created_at, updated_at)
		VALUES (?, 'expert', ?, ?, ?, ?, ?, ?, 2.0, ?, 0, 0)
	`, id, company,
		cols[domain.DimensionEthics], cols[domain.DimensionCredibility],
		cols[domain.DimensionDelivery], cols[domain.DimensionSecurity],
		cols[domain.DimensionInnovation], v)
	require.NoError(t, err)
}

func (e *testEngine) addPromise(t *testing.T, id, company, status string, verdict *string) {
	_, err := e.communityDB.Exec(`
		INSERT INTO promises (id, company_id, title, promised_date, status, community_verdict, created_at, updated_at)
		VALUES (?, ?, 'p', 0, ?, ?, 0, 0)
	`, id, company, status, verdict)
	require.NoError(t, err)
}

func (e *testEngine) historyCount(t *testing.T, company string) int {
	var count int
	require.NoError(t, e.historyDB.QueryRow(
		"SELECT COUNT(*) FROM score_history WHERE company_id = ?", company).Scan(&count))
	return count
}

func TestRecomputeOverallFormula(t *testing.T) {
	e := newTestEngine(t)

	// One vote per dimension: ethics=8, credibility=7, delivery=6,
	// security=9, innovation=5. No promises, so delivery stays raw.
	e.addVote(t, "u1", "acme", domain.DimensionEthics, 8, 1.0)
	e.addVote(t, "u1", "acme", domain.DimensionCredibility, 7, 1.0)
	e.addVote(t, "u1", "acme", domain.DimensionDelivery, 6, 1.0)
	e.addVote(t, "u1", "acme", domain.DimensionSecurity, 9, 1.0)
	e.addVote(t, "u1", "acme", domain.DimensionInnovation, 5, 1.0)

	require.NoError(t, e.aggregator.Recompute("acme"))

	score, err := e.aggregator.GetScore("acme")
	require.NoError(t, err)
	require.NotNil(t, score)

	// overall = round(8*.30 + 7*.25 + 6*.20 + 9*.15 + 5*.10, 1) = 7.2
	assert.Equal(t, 7.2, score.Overall)
	assert.Equal(t, 8.0, score.Ethics)
	assert.Equal(t, 5.0, score.Innovation)
	assert.Equal(t, 5, score.TotalVotes)
	assert.Equal(t, domain.ConfidenceLow, score.Confidence)
}

func TestOverallScoreCanonicalOrder(t *testing.T) {
	// The weighted sum must follow the canonical dimension order: float
	// addition is order-sensitive, and a boundary total must round the
	// same way on every recompute.
	score := &CompanyScore{
		Ethics:      7.3,
		Credibility: 6.1,
		Delivery:    8.9,
		Security:    5.5,
		Innovation:  4.7,
	}

	want := math.Round((7.3*0.30+6.1*0.25+8.9*0.20+5.5*0.15+4.7*0.10)*10) / 10
	for i := 0; i < 1000; i++ {
		assert.Equal(t, want, overallScore(score))
	}
}

func TestRecomputeWeightedDimension(t *testing.T) {
	e := newTestEngine(t)

	e.addVote(t, "u1", "acme", domain.DimensionEthics, 8, 1.0)
	e.addVote(t, "u2", "acme", domain.DimensionEthics, 6, 1.5)

	require.NoError(t, e.aggregator.Recompute("acme"))

	score, err := e.aggregator.GetScore("acme")
	require.NoError(t, err)
	assert.Equal(t, 6.8, score.Ethics)
}

func TestRecomputeOnlyVerifiedReviewsCount(t *testing.T) {
	e := newTestEngine(t)

	e.addVote(t, "u1", "acme", domain.DimensionSecurity, 4, 1.0)
	e.addReview(t, "r1", "acme", false, map[domain.Dimension]float64{domain.DimensionSecurity: 10})

	require.NoError(t, e.aggregator.Recompute("acme"))
	score, err := e.aggregator.GetScore("acme")
	require.NoError(t, err)
	assert.Equal(t, 4.0, score.Security, "unverified review must not move the score")
	assert.Equal(t, 0, score.ExpertReviews)

	// Verify the review: now it participates at weight 2.0
	_, err = e.communityDB.Exec("UPDATE expert_reviews SET verified = 1 WHERE id = 'r1'")
	require.NoError(t, err)

	require.NoError(t, e.aggregator.Recompute("acme"))
	score, err = e.aggregator.GetScore("acme")
	require.NoError(t, err)
	// round((4*1.0 + 10*2.0)/3.0, 1) = 8.0
	assert.Equal(t, 8.0, score.Security)
	assert.Equal(t, 1, score.ExpertReviews)
	assert.Equal(t, domain.ConfidenceMedium, score.Confidence)
}

func TestRecomputePromiseBlendsDelivery(t *testing.T) {
	e := newTestEngine(t)

	// Raw delivery = 5.0 from two equal votes
	e.addVote(t, "u1", "acme", domain.DimensionDelivery, 4, 1.0)
	e.addVote(t, "u2", "acme", domain.DimensionDelivery, 6, 1.0)

	// 3 resolved promises, 2 kept (one by status, one by community verdict)
	kept := "kept"
	e.addPromise(t, "p1", "acme", "kept", nil)
	e.addPromise(t, "p2", "acme", "broken", &kept)
	e.addPromise(t, "p3", "acme", "broken", nil)
	e.addPromise(t, "p4", "acme", "pending", nil)

	require.NoError(t, e.aggregator.Recompute("acme"))

	score, err := e.aggregator.GetScore("acme")
	require.NoError(t, err)
	// blend: round(5.0*0.6 + (2/3*10)*0.4, 1) = 5.7
	assert.Equal(t, 5.7, score.Delivery)
	assert.InDelta(t, 0.667, score.PromiseKeptRatio, 0.001)
}

func TestRecomputeIdempotent(t *testing.T) {
	e := newTestEngine(t)

	e.addVote(t, "u1", "acme", domain.DimensionEthics, 7, 1.3)
	e.addVote(t, "u2", "acme", domain.DimensionDelivery, 9, 2.0)
	e.addPromise(t, "p1", "acme", "kept", nil)

	require.NoError(t, e.aggregator.Recompute("acme"))
	first, err := e.aggregator.GetScore("acme")
	require.NoError(t, err)

	require.NoError(t, e.aggregator.Recompute("acme"))
	second, err := e.aggregator.GetScore("acme")
	require.NoError(t, err)

	second.LastCalculated = first.LastCalculated
	assert.Equal(t, first, second, "recompute with unchanged evidence must not drift")

	// Only the first computation appends history (Δ=0 afterwards)
	assert.Equal(t, 1, e.historyCount(t, "acme"))
}

func TestRecomputeHistoryEpsilon(t *testing.T) {
	e := newTestEngine(t)

	e.addVote(t, "u1", "acme", domain.DimensionEthics, 5, 1.0)
	require.NoError(t, e.aggregator.Recompute("acme"))
	assert.Equal(t, 1, e.historyCount(t, "acme"), "first score always recorded")

	// Ethics 5 -> 6 moves overall by 0.3 (>= epsilon): one more row
	e.addVote(t, "u1", "acme", domain.DimensionEthics, 6, 1.0)
	require.NoError(t, e.aggregator.Recompute("acme"))
	assert.Equal(t, 2, e.historyCount(t, "acme"))

	// No change at all: no new row
	require.NoError(t, e.aggregator.Recompute("acme"))
	assert.Equal(t, 2, e.historyCount(t, "acme"))
}

func TestRecomputeNotifiesWithOldAndNew(t *testing.T) {
	e := newTestEngine(t)

	e.addVote(t, "u1", "acme", domain.DimensionEthics, 5, 1.0)
	require.NoError(t, e.aggregator.Recompute("acme"))

	e.addVote(t, "u1", "acme", domain.DimensionEthics, 9, 1.0)
	require.NoError(t, e.aggregator.Recompute("acme"))

	require.Len(t, e.notifier.calls, 2)
	assert.Nil(t, e.notifier.calls[0].old, "first computation has no previous score")
	require.NotNil(t, e.notifier.calls[1].old)
	assert.Equal(t, 1.5, *e.notifier.calls[1].old) // 5 * 0.30
	assert.Equal(t, 2.7, e.notifier.calls[1].new)  // 9 * 0.30
}

func TestRecomputeConcurrentVotesNoLostUpdate(t *testing.T) {
	e := newTestEngine(t)

	// Two contributors vote concurrently; a final recomputation must
	// reflect both, matching some serial ordering of the writes.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		e.addVote(t, "u1", "acme", domain.DimensionEthics, 2, 1.0)
	}()
	go func() {
		defer wg.Done()
		e.addVote(t, "u2", "acme", domain.DimensionEthics, 8, 1.0)
	}()
	wg.Wait()

	require.NoError(t, e.aggregator.Recompute("acme"))

	score, err := e.aggregator.GetScore("acme")
	require.NoError(t, err)
	assert.Equal(t, 2, score.TotalVotes)
	assert.Equal(t, 5.0, score.Ethics, "both votes must be reflected")
}

func TestVerifyDetectsDrift(t *testing.T) {
	e := newTestEngine(t)

	e.addVote(t, "u1", "acme", domain.DimensionEthics, 7, 1.0)
	require.NoError(t, e.aggregator.Recompute("acme"))

	ok, err := e.aggregator.Verify("acme")
	require.NoError(t, err)
	assert.True(t, ok)

	// Corrupt the cache behind the aggregator's back
	_, err = e.scoresDB.Exec("UPDATE company_scores SET overall_score = 9.9 WHERE company_id = 'acme'")
	require.NoError(t, err)

	ok, err = e.aggregator.Verify("acme")
	require.NoError(t, err)
	assert.False(t, ok, "drifted cache must be flagged")
}

func TestVerifyUnscoredCompanyIsConsistent(t *testing.T) {
	e := newTestEngine(t)

	ok, err := e.aggregator.Verify("never-scored")
	require.NoError(t, err)
	assert.True(t, ok)
}
