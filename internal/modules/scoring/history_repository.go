package scoring

import (
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/aristath/credence/internal/domain"
	"github.com/rs/zerolog"
)

// HistoryRepository owns the append-only score_history table in history.db.
// Rows are never updated or deleted; the ledger database profile keeps
// writes durable (synchronous FULL).
type HistoryRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sql.DB, log zerolog.Logger) *HistoryRepository {
	return &HistoryRepository{
		db:  db,
		log: log.With().Str("repository", "score_history").Logger(),
	}
}

// RecordIfSignificant appends a history row when the overall score moved by
// at least epsilon, or when this is the company's first computed score
// (oldScore nil). Returns whether a row was written.
//
// change_amount keeps two decimals of precision: the stored score is
// coarser, but the trend record preserves the finer movement.
func (r *HistoryRepository) RecordIfSignificant(score *CompanyScore, oldScore *float64, epsilon float64) (bool, error) {
	change := 0.0
	if oldScore != nil {
		// Round before the epsilon compare: 7.3-7.2 is 0.0999... in
		// float64 and would otherwise slip under an epsilon of 0.1.
		change = math.Round((score.Overall-*oldScore)*100) / 100
		if math.Abs(change) < epsilon {
			return false, nil
		}
	}

	_, err := r.db.Exec(`
		INSERT INTO score_history (company_id, score_type, score, change_amount, confidence, total_votes, recorded_at)
		VALUES (?, 'overall', ?, ?, ?, ?, ?)
	`, score.CompanyID, score.Overall, change, string(score.Confidence),
		score.TotalVotes, time.Now().Unix())
	if err != nil {
		return false, fmt.Errorf("failed to append score history: %w", err)
	}

	r.log.Debug().
		Str("company_id", score.CompanyID).
		Float64("score", score.Overall).
		Float64("change", change).
		Msg("Score history appended")

	return true, nil
}

// GetByCompany returns a company's history, oldest first, capped at limit.
func (r *HistoryRepository) GetByCompany(companyID string, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(`
		SELECT id, company_id, score_type, score, change_amount, confidence, total_votes, recorded_at
		FROM score_history
		WHERE company_id = ?
		ORDER BY recorded_at ASC, id ASC
		LIMIT ?
	`, companyID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query score history: %w", err)
	}
	defer rows.Close()

	var result []HistoryEntry
	for rows.Next() {
		var entry HistoryEntry
		var confidence string
		err := rows.Scan(&entry.ID, &entry.CompanyID, &entry.ScoreType,
			&entry.Score, &entry.ChangeAmount, &confidence,
			&entry.TotalVotes, &entry.RecordedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entry.Confidence = domain.ConfidenceLevel(confidence)
		result = append(result, entry)
	}
	return result, rows.Err()
}

// CountByCompany returns the number of history rows for a company.
func (r *HistoryRepository) CountByCompany(companyID string) (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM score_history WHERE company_id = ?", companyID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count history entries: %w", err)
	}
	return count, nil
}
