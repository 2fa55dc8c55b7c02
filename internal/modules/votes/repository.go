package votes

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aristath/credence/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Repository handles vote storage in community.db.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new vote repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "votes").Logger(),
	}
}

// Upsert inserts a vote or replaces the contributor's existing vote for the
// same (company, dimension). Returns whether an existing vote was replaced.
// The write is a single atomic statement: two concurrent submissions of the
// same vote key can never surface the unique index as an error, the loser
// simply updates in place.
func (r *Repository) Upsert(vote *Vote) (bool, error) {
	now := time.Now().Unix()

	evidenceJSON, err := json.Marshal(vote.EvidenceURLs)
	if err != nil {
		return false, fmt.Errorf("failed to marshal evidence URLs: %w", err)
	}

	newID := uuid.New().String()
	_, err = r.db.Exec(`
		INSERT INTO votes (id, contributor_id, company_id, dimension, score, weight, comment, evidence_urls, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(contributor_id, company_id, dimension) DO UPDATE SET
			score = excluded.score,
			weight = excluded.weight,
			comment = excluded.comment,
			evidence_urls = excluded.evidence_urls,
			updated_at = excluded.updated_at
	`, newID, vote.ContributorID, vote.CompanyID, string(vote.Dimension),
		vote.Score, vote.Weight, vote.Comment, string(evidenceJSON), now, now)
	if err != nil {
		return false, fmt.Errorf("failed to upsert vote: %w", err)
	}

	stored, err := r.Get(vote.ContributorID, vote.CompanyID, vote.Dimension)
	if err != nil {
		return false, err
	}
	if stored == nil {
		return false, fmt.Errorf("vote missing after upsert")
	}

	// The conflict path keeps the original row id; a fresh insert carries
	// the id we just generated.
	replaced := stored.ID != newID
	vote.ID = stored.ID
	vote.CreatedAt = stored.CreatedAt
	vote.UpdatedAt = stored.UpdatedAt
	return replaced, nil
}

// Get returns a contributor's vote for a company dimension, nil if none exists.
func (r *Repository) Get(contributorID, companyID string, dimension domain.Dimension) (*Vote, error) {
	row := r.db.QueryRow(`
		SELECT id, contributor_id, company_id, dimension, score, weight, comment, evidence_urls, created_at, updated_at
		FROM votes
		WHERE contributor_id = ? AND company_id = ? AND dimension = ?
	`, contributorID, companyID, string(dimension))

	vote, err := scanVote(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vote: %w", err)
	}
	return vote, nil
}

// Delete removes a contributor's vote. Returns true if a vote was removed.
func (r *Repository) Delete(contributorID, companyID string, dimension domain.Dimension) (bool, error) {
	result, err := r.db.Exec(`
		DELETE FROM votes
		WHERE contributor_id = ? AND company_id = ? AND dimension = ?
	`, contributorID, companyID, string(dimension))
	if err != nil {
		return false, fmt.Errorf("failed to delete vote: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}

// GetByCompany returns all votes for a company, newest first.
func (r *Repository) GetByCompany(companyID string) ([]Vote, error) {
	rows, err := r.db.Query(`
		SELECT id, contributor_id, company_id, dimension, score, weight, comment, evidence_urls, created_at, updated_at
		FROM votes
		WHERE company_id = ?
		ORDER BY updated_at DESC
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query votes: %w", err)
	}
	defer rows.Close()

	var result []Vote
	for rows.Next() {
		vote, err := scanVote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		result = append(result, *vote)
	}
	return result, rows.Err()
}

// CountByCompany returns the number of votes for a company across all dimensions.
func (r *Repository) CountByCompany(companyID string) (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM votes WHERE company_id = ?", companyID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count votes: %w", err)
	}
	return count, nil
}

// scanner abstracts *sql.Row and *sql.Rows for shared scanning
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanVote(s scanner) (*Vote, error) {
	var vote Vote
	var dimension string
	var evidenceJSON string

	err := s.Scan(&vote.ID, &vote.ContributorID, &vote.CompanyID, &dimension,
		&vote.Score, &vote.Weight, &vote.Comment, &evidenceJSON,
		&vote.CreatedAt, &vote.UpdatedAt)
	if err != nil {
		return nil, err
	}

	vote.Dimension = domain.Dimension(dimension)
	if evidenceJSON != "" {
		if err := json.Unmarshal([]byte(evidenceJSON), &vote.EvidenceURLs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal evidence URLs: %w", err)
		}
	}
	return &vote, nil
}
