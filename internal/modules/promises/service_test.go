package promises

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/aristath/credence/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

const testSchema = `
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
CREATE TABLE promise_votes (
    id TEXT PRIMARY KEY,
    promise_id TEXT NOT NULL,
    contributor_id TEXT NOT NULL,
    verdict TEXT NOT NULL,
    created_at INTEGER NOT NULL
);
CREATE UNIQUE INDEX idx_promise_votes_unique ON promise_votes(contributor_id, promise_id);
`

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	return db
}

type mockQueue struct {
	mu        sync.Mutex
	companies []string
}

func (m *mockQueue) Enqueue(companyID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.companies = append(m.companies, companyID)
}

func (m *mockQueue) enqueued() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.companies...)
}

func newTestService(t *testing.T) (*Service, *Repository, *mockQueue, func()) {
	db := setupTestDB(t)
	repo := NewRepository(db, zerolog.Nop())
	queue := &mockQueue{}
	svc := NewService(repo, queue, nil, zerolog.Nop())
	return svc, repo, queue, func() { db.Close() }
}

func TestCreatePromise(t *testing.T) {
	svc, _, queue, cleanup := newTestService(t)
	defer cleanup()

	promise, err := svc.Create(context.Background(), "user-1", "acme", CreateRequest{
		Title:        "Carbon neutral by 2030",
		PromisedDate: 1700000000,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PromisePending, promise.Status)
	assert.Nil(t, promise.CommunityVerdict)

	// Pending promises don't affect scores
	assert.Empty(t, queue.enqueued())
}

func TestCreateValidation(t *testing.T) {
	svc, _, _, cleanup := newTestService(t)
	defer cleanup()

	_, err := svc.Create(context.Background(), "user-1", "acme", CreateRequest{
		Title: "   ",
	})
	assert.True(t, domain.IsValidationError(err))

	deadline := int64(1600000000)
	_, err = svc.Create(context.Background(), "user-1", "acme", CreateRequest{
		Title:        "ships before it was promised",
		PromisedDate: 1700000000,
		Deadline:     &deadline,
	})
	assert.True(t, domain.IsValidationError(err))

	_, err = svc.Create(context.Background(), "", "acme", CreateRequest{
		Title:        "anonymous",
		PromisedDate: 1700000000,
	})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestResolveAppliesMajorityVerdict(t *testing.T) {
	svc, _, queue, cleanup := newTestService(t)
	defer cleanup()

	promise, err := svc.Create(context.Background(), "user-1", "acme", CreateRequest{
		Title:        "GDPR compliance audit",
		PromisedDate: 1700000000,
	})
	require.NoError(t, err)

	for _, v := range []struct {
		user    string
		verdict string
	}{
		{"a", "kept"}, {"b", "kept"}, {"c", "broken"},
	} {
		_, err := svc.Vote(context.Background(), v.user, promise.ID, VoteRequest{Verdict: v.verdict})
		require.NoError(t, err)
	}

	// Votes on a pending promise don't trigger recompute yet
	assert.Empty(t, queue.enqueued())

	resolved, err := svc.Resolve(context.Background(), "moderator", promise.ID, ResolveRequest{Status: "kept"})
	require.NoError(t, err)
	assert.Equal(t, domain.PromiseKept, resolved.Status)
	require.NotNil(t, resolved.CommunityVerdict)
	assert.Equal(t, domain.VerdictKept, *resolved.CommunityVerdict)

	assert.Equal(t, []string{"acme"}, queue.enqueued())
}

func TestResolveTieBreaksToKept(t *testing.T) {
	svc, _, _, cleanup := newTestService(t)
	defer cleanup()

	promise, err := svc.Create(context.Background(), "user-1", "acme", CreateRequest{
		Title:        "open source the SDK",
		PromisedDate: 1700000000,
	})
	require.NoError(t, err)

	_, err = svc.Vote(context.Background(), "a", promise.ID, VoteRequest{Verdict: "kept"})
	require.NoError(t, err)
	_, err = svc.Vote(context.Background(), "b", promise.ID, VoteRequest{Verdict: "partial"})
	require.NoError(t, err)

	resolved, err := svc.Resolve(context.Background(), "moderator", promise.ID, ResolveRequest{Status: "delayed"})
	require.NoError(t, err)
	require.NotNil(t, resolved.CommunityVerdict)
	assert.Equal(t, domain.VerdictKept, *resolved.CommunityVerdict)
}

func TestResolveValidation(t *testing.T) {
	svc, _, _, cleanup := newTestService(t)
	defer cleanup()

	promise, err := svc.Create(context.Background(), "user-1", "acme", CreateRequest{
		Title:        "a promise",
		PromisedDate: 1700000000,
	})
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), "moderator", promise.ID, ResolveRequest{Status: "pending"})
	assert.True(t, domain.IsValidationError(err))

	_, err = svc.Resolve(context.Background(), "moderator", "no-such-promise", ResolveRequest{Status: "kept"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLateVoteRetalliesResolvedPromise(t *testing.T) {
	svc, _, queue, cleanup := newTestService(t)
	defer cleanup()

	promise, err := svc.Create(context.Background(), "user-1", "acme", CreateRequest{
		Title:        "quarterly transparency reports",
		PromisedDate: 1700000000,
	})
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), "moderator", promise.ID, ResolveRequest{Status: "broken"})
	require.NoError(t, err)

	// Late evidence: community says it was actually kept
	_, err = svc.Vote(context.Background(), "a", promise.ID, VoteRequest{Verdict: "kept"})
	require.NoError(t, err)

	updated, err := svc.ListByCompany("acme")
	require.NoError(t, err)
	require.Len(t, updated, 1)
	require.NotNil(t, updated[0].CommunityVerdict)
	assert.Equal(t, domain.VerdictKept, *updated[0].CommunityVerdict)

	// Resolve + late vote both trigger recompute
	assert.Equal(t, []string{"acme", "acme"}, queue.enqueued())
}

func TestVoteReplacesPreviousVerdict(t *testing.T) {
	svc, repo, _, cleanup := newTestService(t)
	defer cleanup()

	promise, err := svc.Create(context.Background(), "user-1", "acme", CreateRequest{
		Title:        "a promise",
		PromisedDate: 1700000000,
	})
	require.NoError(t, err)

	_, err = svc.Vote(context.Background(), "a", promise.ID, VoteRequest{Verdict: "broken"})
	require.NoError(t, err)
	_, err = svc.Vote(context.Background(), "a", promise.ID, VoteRequest{Verdict: "kept"})
	require.NoError(t, err)

	tally, err := repo.TallyVotes(promise.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, tally[domain.VerdictKept])
	assert.Equal(t, 0, tally[domain.VerdictBroken])
}

func TestGetStats(t *testing.T) {
	svc, repo, _, cleanup := newTestService(t)
	defer cleanup()

	// Three promises: one kept by status, one broken but community says kept,
	// one still pending.
	kept, err := svc.Create(context.Background(), "u", "acme", CreateRequest{Title: "p1", PromisedDate: 1})
	require.NoError(t, err)
	_, err = svc.Resolve(context.Background(), "m", kept.ID, ResolveRequest{Status: "kept"})
	require.NoError(t, err)

	disputed, err := svc.Create(context.Background(), "u", "acme", CreateRequest{Title: "p2", PromisedDate: 1})
	require.NoError(t, err)
	_, err = svc.Vote(context.Background(), "a", disputed.ID, VoteRequest{Verdict: "kept"})
	require.NoError(t, err)
	_, err = svc.Resolve(context.Background(), "m", disputed.ID, ResolveRequest{Status: "broken"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), "u", "acme", CreateRequest{Title: "p3", PromisedDate: 1})
	require.NoError(t, err)

	stats, err := repo.GetStats("acme")
	require.NoError(t, err)
	assert.Equal(t, Stats{Total: 3, Resolved: 2, Kept: 2}, stats)
}
