package clientdata

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// testSchema creates all tables needed for testing
const testSchema = `
CREATE TABLE contributor_profiles (contributor_id TEXT PRIMARY KEY, data TEXT NOT NULL, expires_at INTEGER NOT NULL);
CREATE INDEX idx_contributor_profiles_expires ON contributor_profiles(expires_at);
`

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	return db
}

func TestStore(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)

	data := map[string]interface{}{
		"reputation": 750,
		"expert":     false,
	}

	err := repo.Store("contributor_profiles", "user-1", data, TTLContributorProfile)
	require.NoError(t, err)

	var storedData string
	var expiresAt int64
	err = db.QueryRow("SELECT data, expires_at FROM contributor_profiles WHERE contributor_id = ?", "user-1").Scan(&storedData, &expiresAt)
	require.NoError(t, err)

	var parsed map[string]interface{}
	err = json.Unmarshal([]byte(storedData), &parsed)
	require.NoError(t, err)
	assert.Equal(t, float64(750), parsed["reputation"])

	expectedExpires := time.Now().Add(TTLContributorProfile).Unix()
	assert.InDelta(t, expectedExpires, expiresAt, 5)
}

func TestStoreUpsert(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)

	err := repo.Store("contributor_profiles", "user-1", map[string]int{"reputation": 10}, time.Hour)
	require.NoError(t, err)

	err = repo.Store("contributor_profiles", "user-1", map[string]int{"reputation": 120}, time.Hour)
	require.NoError(t, err)

	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM contributor_profiles").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	data, err := repo.Get("contributor_profiles", "user-1")
	require.NoError(t, err)

	var parsed map[string]int
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, 120, parsed["reputation"])
}

func TestStoreInvalidTable(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)

	err := repo.Store("votes; DROP TABLE contributor_profiles", "key", "data", time.Hour)
	assert.Error(t, err)
}

func TestGetIfFresh(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)

	// Missing key returns nil, nil
	data, err := repo.GetIfFresh("contributor_profiles", "missing")
	require.NoError(t, err)
	assert.Nil(t, data)

	// Fresh data is returned
	err = repo.Store("contributor_profiles", "user-1", map[string]bool{"expert": true}, time.Hour)
	require.NoError(t, err)

	data, err = repo.GetIfFresh("contributor_profiles", "user-1")
	require.NoError(t, err)
	assert.NotNil(t, data)

	// Expired data is not returned by GetIfFresh
	err = repo.Store("contributor_profiles", "user-2", map[string]bool{"expert": false}, -time.Hour)
	require.NoError(t, err)

	data, err = repo.GetIfFresh("contributor_profiles", "user-2")
	require.NoError(t, err)
	assert.Nil(t, data)

	// ...but Get still returns it (stale fallback)
	data, err = repo.Get("contributor_profiles", "user-2")
	require.NoError(t, err)
	assert.NotNil(t, data)
}

func TestDelete(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)

	err := repo.Store("contributor_profiles", "user-1", "data", time.Hour)
	require.NoError(t, err)

	err = repo.Delete("contributor_profiles", "user-1")
	require.NoError(t, err)

	data, err := repo.Get("contributor_profiles", "user-1")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestDeleteExpired(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)

	require.NoError(t, repo.Store("contributor_profiles", "fresh", "data", time.Hour))
	require.NoError(t, repo.Store("contributor_profiles", "stale-1", "data", -time.Hour))
	require.NoError(t, repo.Store("contributor_profiles", "stale-2", "data", -time.Minute))

	deleted, err := repo.DeleteExpired("contributor_profiles")
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	data, err := repo.Get("contributor_profiles", "fresh")
	require.NoError(t, err)
	assert.NotNil(t, data)
}

func TestDeleteAllExpired(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)

	require.NoError(t, repo.Store("contributor_profiles", "stale", "data", -time.Hour))

	results, err := repo.DeleteAllExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(1), results["contributor_profiles"])
}
