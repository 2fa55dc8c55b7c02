package scoring

import (
	"testing"

	"github.com/aristath/credence/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func newHistoryRepo(t *testing.T) *HistoryRepository {
	db := openDB(t, historySchema)
	t.Cleanup(func() { db.Close() })
	return NewHistoryRepository(db, zerolog.Nop())
}

func TestRecordIfSignificantFirstScore(t *testing.T) {
	repo := newHistoryRepo(t)

	written, err := repo.RecordIfSignificant(&CompanyScore{
		CompanyID:  "acme",
		Overall:    7.2,
		Confidence: domain.ConfidenceLow,
		TotalVotes: 3,
	}, nil, 0.1)
	require.NoError(t, err)
	assert.True(t, written, "first score is always recorded")

	entries, err := repo.GetByCompany("acme", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 7.2, entries[0].Score)
	assert.Equal(t, 0.0, entries[0].ChangeAmount)
	assert.Equal(t, "overall", entries[0].ScoreType)
}

func TestRecordIfSignificantBelowEpsilon(t *testing.T) {
	repo := newHistoryRepo(t)

	old := 7.20
	written, err := repo.RecordIfSignificant(&CompanyScore{
		CompanyID: "acme", Overall: 7.24, Confidence: domain.ConfidenceLow,
	}, &old, 0.1)
	require.NoError(t, err)
	assert.False(t, written, "0.04 move is below the 0.1 epsilon")
}

func TestRecordIfSignificantExactlyEpsilon(t *testing.T) {
	repo := newHistoryRepo(t)

	// 7.3-7.2 is 0.0999... in float64; the rounded delta must still
	// count as a 0.1 move.
	old := 7.2
	written, err := repo.RecordIfSignificant(&CompanyScore{
		CompanyID: "acme", Overall: 7.3, Confidence: domain.ConfidenceLow, TotalVotes: 5,
	}, &old, 0.1)
	require.NoError(t, err)
	assert.True(t, written, "a move of exactly epsilon is recorded")

	entries, err := repo.GetByCompany("acme", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 0.1, entries[0].ChangeAmount)
}

func TestRecordIfSignificantAboveEpsilon(t *testing.T) {
	repo := newHistoryRepo(t)

	old := 7.20
	written, err := repo.RecordIfSignificant(&CompanyScore{
		CompanyID: "acme", Overall: 7.35, Confidence: domain.ConfidenceMedium, TotalVotes: 20,
	}, &old, 0.1)
	require.NoError(t, err)
	assert.True(t, written)

	entries, err := repo.GetByCompany("acme", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 0.15, entries[0].ChangeAmount)
	assert.Equal(t, domain.ConfidenceMedium, entries[0].Confidence)
}

func TestRecordIfSignificantNegativeChange(t *testing.T) {
	repo := newHistoryRepo(t)

	old := 7.0
	written, err := repo.RecordIfSignificant(&CompanyScore{
		CompanyID: "acme", Overall: 6.4, Confidence: domain.ConfidenceLow,
	}, &old, 0.1)
	require.NoError(t, err)
	assert.True(t, written)

	entries, err := repo.GetByCompany("acme", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, -0.6, entries[0].ChangeAmount)
}

func TestGetByCompanyOrdering(t *testing.T) {
	repo := newHistoryRepo(t)

	scores := []float64{5.0, 6.0, 7.0}
	var prev *float64
	for i := range scores {
		_, err := repo.RecordIfSignificant(&CompanyScore{
			CompanyID: "acme", Overall: scores[i], Confidence: domain.ConfidenceLow,
		}, prev, 0.1)
		require.NoError(t, err)
		prev = &scores[i]
	}

	entries, err := repo.GetByCompany("acme", 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, 5.0, entries[0].Score, "oldest first")
	assert.Equal(t, 7.0, entries[2].Score)

	count, err := repo.CountByCompany("acme")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
