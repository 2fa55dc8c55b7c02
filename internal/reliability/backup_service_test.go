package reliability

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/aristath/credence/internal/database"
	"github.com/aristath/credence/pkg/logger"
)

func TestBackupService_HourlyBackup(t *testing.T) {
	log := logger.New(logger.Config{Level: "error", Pretty: false})

	t.Run("creates hourly backup for history database", func(t *testing.T) {
		tempDir := t.TempDir()
		dataDir := filepath.Join(tempDir, "data")
		backupDir := filepath.Join(tempDir, "backups")
		require.NoError(t, os.MkdirAll(dataDir, 0755))

		historyDB, err := database.New(database.Config{
			Path:    filepath.Join(dataDir, "history.db"),
			Profile: database.ProfileLedger,
			Name:    "history",
		})
		require.NoError(t, err)
		defer historyDB.Close()

		_, err = historyDB.Conn().Exec("CREATE TABLE score_history (id INTEGER PRIMARY KEY, company_id TEXT)")
		require.NoError(t, err)
		_, err = historyDB.Conn().Exec("INSERT INTO score_history (company_id) VALUES ('acme'), ('globex')")
		require.NoError(t, err)

		databases := map[string]*database.DB{
			"history": historyDB,
		}

		backupService := NewBackupService(databases, dataDir, backupDir, log)

		err = backupService.HourlyBackup()
		require.NoError(t, err)

		hourlyDir := filepath.Join(backupDir, "hourly")
		entries, err := os.ReadDir(hourlyDir)
		require.NoError(t, err)
		assert.Greater(t, len(entries), 0, "Should have created backup file")

		backupPath := filepath.Join(hourlyDir, entries[0].Name())
		backupDB, err := sql.Open("sqlite", backupPath)
		require.NoError(t, err)
		defer backupDB.Close()

		var result string
		err = backupDB.QueryRow("PRAGMA integrity_check").Scan(&result)
		require.NoError(t, err)
		assert.Equal(t, "ok", result)

		var count int
		err = backupDB.QueryRow("SELECT COUNT(*) FROM score_history").Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})
}

func TestBackupService_DailyBackup(t *testing.T) {
	log := logger.New(logger.Config{Level: "error", Pretty: false})

	t.Run("creates daily backup for all databases except cache", func(t *testing.T) {
		tempDir := t.TempDir()
		dataDir := filepath.Join(tempDir, "data")
		backupDir := filepath.Join(tempDir, "backups")
		require.NoError(t, os.MkdirAll(dataDir, 0755))

		communityDB, err := database.New(database.Config{
			Path:    filepath.Join(dataDir, "community.db"),
			Profile: database.ProfileStandard,
			Name:    "community",
		})
		require.NoError(t, err)
		defer communityDB.Close()

		cacheDB, err := database.New(database.Config{
			Path:    filepath.Join(dataDir, "cache.db"),
			Profile: database.ProfileCache,
			Name:    "cache",
		})
		require.NoError(t, err)
		defer cacheDB.Close()

		databases := map[string]*database.DB{
			"community": communityDB,
			"cache":     cacheDB,
		}

		backupService := NewBackupService(databases, dataDir, backupDir, log)

		err = backupService.DailyBackup()
		require.NoError(t, err)

		date := time.Now().Format("2006-01-02")
		dailyDir := filepath.Join(backupDir, "daily", date)
		entries, err := os.ReadDir(dailyDir)
		require.NoError(t, err)
		require.Equal(t, 1, len(entries), "cache must not be part of daily backups")
		assert.Equal(t, "community.db", entries[0].Name())
	})
}

func TestBackupService_GetDatabaseNames(t *testing.T) {
	log := logger.New(logger.Config{Level: "error", Pretty: false})
	tempDir := t.TempDir()

	databases := map[string]*database.DB{
		"community": nil,
		"scores":    nil,
		"history":   nil,
		"cache":     nil,
	}
	backupService := NewBackupService(databases, tempDir, tempDir, log)

	assert.Equal(t, []string{"community", "history", "scores"}, backupService.GetDatabaseNames(false))
	assert.Equal(t, []string{"cache", "community", "history", "scores"}, backupService.GetDatabaseNames(true))
}

func TestBackupService_RotateHourlyBackups(t *testing.T) {
	log := logger.New(logger.Config{Level: "error", Pretty: false})

	t.Run("deletes backups older than 24 hours", func(t *testing.T) {
		tempDir := t.TempDir()
		hourlyDir := filepath.Join(tempDir, "hourly")
		require.NoError(t, os.MkdirAll(hourlyDir, 0755))

		oldBackup := filepath.Join(hourlyDir, "history_old.db")
		err := os.WriteFile(oldBackup, []byte("old"), 0644)
		require.NoError(t, err)
		oldTime := time.Now().Add(-25 * time.Hour)
		err = os.Chtimes(oldBackup, oldTime, oldTime)
		require.NoError(t, err)

		recentBackup := filepath.Join(hourlyDir, "history_recent.db")
		err = os.WriteFile(recentBackup, []byte("recent"), 0644)
		require.NoError(t, err)

		databases := map[string]*database.DB{}
		backupService := NewBackupService(databases, tempDir, tempDir, log)

		err = backupService.rotateHourlyBackups(hourlyDir)
		require.NoError(t, err)

		_, err = os.Stat(oldBackup)
		assert.True(t, os.IsNotExist(err), "Old backup should be deleted")

		_, err = os.Stat(recentBackup)
		assert.NoError(t, err, "Recent backup should still exist")
	})
}

func TestBackupService_RestoreFromBackup(t *testing.T) {
	log := logger.New(logger.Config{Level: "error", Pretty: false})

	t.Run("finds and returns most recent backup", func(t *testing.T) {
		tempDir := t.TempDir()
		backupDir := filepath.Join(tempDir, "backups")

		dailyDir := filepath.Join(backupDir, "daily", "2026-08-01")
		require.NoError(t, os.MkdirAll(dailyDir, 0755))

		backupPath := filepath.Join(dailyDir, "scores.db")
		err := os.WriteFile(backupPath, []byte("backup data"), 0644)
		require.NoError(t, err)

		databases := map[string]*database.DB{}
		backupService := NewBackupService(databases, tempDir, backupDir, log)

		foundBackup, err := backupService.RestoreFromBackup("scores")
		require.NoError(t, err)
		assert.Contains(t, foundBackup, "scores.db")
	})

	t.Run("returns error when no backup found", func(t *testing.T) {
		tempDir := t.TempDir()
		backupDir := filepath.Join(tempDir, "backups")

		databases := map[string]*database.DB{}
		backupService := NewBackupService(databases, tempDir, backupDir, log)

		_, err := backupService.RestoreFromBackup("nonexistent")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "no backup found")
	})
}

func TestBackupService_VerifyBackup(t *testing.T) {
	log := logger.New(logger.Config{Level: "error", Pretty: false})

	t.Run("verifies valid backup", func(t *testing.T) {
		tempDir := t.TempDir()
		backupPath := filepath.Join(tempDir, "test.db")

		db, err := database.New(database.Config{
			Path:    backupPath,
			Profile: database.ProfileStandard,
			Name:    "test",
		})
		require.NoError(t, err)
		db.Close()

		databases := map[string]*database.DB{}
		backupService := NewBackupService(databases, tempDir, tempDir, log)

		err = backupService.verifyBackup(backupPath)
		assert.NoError(t, err)
	})

	t.Run("detects corrupted backup", func(t *testing.T) {
		tempDir := t.TempDir()
		backupPath := filepath.Join(tempDir, "corrupted.db")

		err := os.WriteFile(backupPath, []byte("not a valid sqlite database"), 0644)
		require.NoError(t, err)

		databases := map[string]*database.DB{}
		backupService := NewBackupService(databases, tempDir, tempDir, log)

		err = backupService.verifyBackup(backupPath)
		assert.Error(t, err)
	})
}
