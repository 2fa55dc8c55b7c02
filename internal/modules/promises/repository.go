package promises

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/aristath/credence/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Repository handles promise and promise-vote storage in community.db.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new promise repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "promises").Logger(),
	}
}

// Insert stores a new promise in the pending state.
func (r *Repository) Insert(promise *Promise) error {
	now := time.Now().Unix()
	promise.ID = uuid.New().String()
	promise.Status = domain.PromisePending
	promise.CreatedAt = now
	promise.UpdatedAt = now

	_, err := r.db.Exec(`
		INSERT INTO promises (id, company_id, title, description, promised_date, deadline, status, community_verdict, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 'pending', NULL, ?, ?)
	`, promise.ID, promise.CompanyID, promise.Title, promise.Description,
		promise.PromisedDate, promise.Deadline, now, now)
	if err != nil {
		return fmt.Errorf("failed to insert promise: %w", err)
	}
	return nil
}

// GetByID returns a promise, nil if not found.
func (r *Repository) GetByID(id string) (*Promise, error) {
	row := r.db.QueryRow(`
		SELECT id, company_id, title, description, promised_date, deadline, status, community_verdict, created_at, updated_at
		FROM promises WHERE id = ?
	`, id)

	promise, err := scanPromise(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get promise: %w", err)
	}
	return promise, nil
}

// GetByCompany returns all promises for a company, newest first.
func (r *Repository) GetByCompany(companyID string) ([]Promise, error) {
	rows, err := r.db.Query(`
		SELECT id, company_id, title, description, promised_date, deadline, status, community_verdict, created_at, updated_at
		FROM promises WHERE company_id = ?
		ORDER BY created_at DESC
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query promises: %w", err)
	}
	defer rows.Close()

	var result []Promise
	for rows.Next() {
		promise, err := scanPromise(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan promise: %w", err)
		}
		result = append(result, *promise)
	}
	return result, rows.Err()
}

// SetStatus updates a promise's lifecycle status.
func (r *Repository) SetStatus(id string, status domain.PromiseStatus) error {
	now := time.Now().Unix()
	_, err := r.db.Exec(`
		UPDATE promises SET status = ?, updated_at = ? WHERE id = ?
	`, string(status), now, id)
	if err != nil {
		return fmt.Errorf("failed to set promise status: %w", err)
	}
	return nil
}

// SetVerdict updates a promise's community verdict. A nil verdict clears it.
func (r *Repository) SetVerdict(id string, verdict *domain.PromiseVerdict) error {
	now := time.Now().Unix()

	var v interface{}
	if verdict != nil {
		v = string(*verdict)
	}

	_, err := r.db.Exec(`
		UPDATE promises SET community_verdict = ?, updated_at = ? WHERE id = ?
	`, v, now, id)
	if err != nil {
		return fmt.Errorf("failed to set promise verdict: %w", err)
	}
	return nil
}

// UpsertVote inserts a contributor's verdict or replaces their previous one.
func (r *Repository) UpsertVote(vote *PromiseVote) error {
	now := time.Now().Unix()

	result, err := r.db.Exec(`
		UPDATE promise_votes SET verdict = ?, created_at = ?
		WHERE contributor_id = ? AND promise_id = ?
	`, string(vote.Verdict), now, vote.ContributorID, vote.PromiseID)
	if err != nil {
		return fmt.Errorf("failed to update promise vote: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected > 0 {
		vote.CreatedAt = now
		return nil
	}

	vote.ID = uuid.New().String()
	vote.CreatedAt = now

	_, err = r.db.Exec(`
		INSERT INTO promise_votes (id, promise_id, contributor_id, verdict, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, vote.ID, vote.PromiseID, vote.ContributorID, string(vote.Verdict), now)
	if err != nil {
		return fmt.Errorf("failed to insert promise vote: %w", err)
	}
	return nil
}

// TallyVotes returns the verdict counts for a promise.
func (r *Repository) TallyVotes(promiseID string) (map[domain.PromiseVerdict]int, error) {
	rows, err := r.db.Query(`
		SELECT verdict, COUNT(*) FROM promise_votes WHERE promise_id = ? GROUP BY verdict
	`, promiseID)
	if err != nil {
		return nil, fmt.Errorf("failed to tally promise votes: %w", err)
	}
	defer rows.Close()

	tally := make(map[domain.PromiseVerdict]int)
	for rows.Next() {
		var verdict string
		var count int
		if err := rows.Scan(&verdict, &count); err != nil {
			return nil, fmt.Errorf("failed to scan tally: %w", err)
		}
		tally[domain.PromiseVerdict(verdict)] = count
	}
	return tally, rows.Err()
}

// GetStats returns the company's promise record used by the delivery blend.
func (r *Repository) GetStats(companyID string) (Stats, error) {
	var stats Stats
	err := r.db.QueryRow(`
		SELECT
			COUNT(*),
			COUNT(CASE WHEN status != 'pending' THEN 1 END),
			COUNT(CASE WHEN status = 'kept' OR community_verdict = 'kept' THEN 1 END)
		FROM promises WHERE company_id = ?
	`, companyID).Scan(&stats.Total, &stats.Resolved, &stats.Kept)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to get promise stats: %w", err)
	}
	return stats, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPromise(s scanner) (*Promise, error) {
	var promise Promise
	var status string
	var description sql.NullString
	var deadline sql.NullInt64
	var verdict sql.NullString

	err := s.Scan(&promise.ID, &promise.CompanyID, &promise.Title, &description,
		&promise.PromisedDate, &deadline, &status, &verdict,
		&promise.CreatedAt, &promise.UpdatedAt)
	if err != nil {
		return nil, err
	}

	promise.Status = domain.PromiseStatus(status)
	if description.Valid {
		promise.Description = description.String
	}
	if deadline.Valid {
		promise.Deadline = &deadline.Int64
	}
	if verdict.Valid {
		v := domain.PromiseVerdict(verdict.String)
		promise.CommunityVerdict = &v
	}
	return &promise, nil
}
