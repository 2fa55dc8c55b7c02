package scoring

import (
	"database/sql"
	"fmt"

	"github.com/aristath/credence/internal/database"
	"github.com/aristath/credence/internal/domain"
	"github.com/rs/zerolog"
)

// ScoreRepository owns the company_scores table in scores.db. Rows are
// upserted atomically so readers never observe a half-written score.
type ScoreRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewScoreRepository creates a new score repository
func NewScoreRepository(db *sql.DB, log zerolog.Logger) *ScoreRepository {
	return &ScoreRepository{
		db:  db,
		log: log.With().Str("repository", "scores").Logger(),
	}
}

// Upsert atomically replaces a company's score row inside one transaction.
func (r *ScoreRepository) Upsert(score *CompanyScore) error {
	return database.WithTransaction(r.db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO company_scores (company_id, ethics_score, credibility_score, delivery_score, security_score, innovation_score, overall_score, confidence, total_votes, expert_reviews, promise_kept_ratio, last_calculated)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(company_id) DO UPDATE SET
				ethics_score = excluded.ethics_score,
				credibility_score = excluded.credibility_score,
				delivery_score = excluded.delivery_score,
				security_score = excluded.security_score,
				innovation_score = excluded.innovation_score,
				overall_score = excluded.overall_score,
				confidence = excluded.confidence,
				total_votes = excluded.total_votes,
				expert_reviews = excluded.expert_reviews,
				promise_kept_ratio = excluded.promise_kept_ratio,
				last_calculated = excluded.last_calculated
		`, score.CompanyID, score.Ethics, score.Credibility, score.Delivery,
			score.Security, score.Innovation, score.Overall, string(score.Confidence),
			score.TotalVotes, score.ExpertReviews, score.PromiseKeptRatio, score.LastCalculated)
		if err != nil {
			return fmt.Errorf("failed to upsert company score: %w", err)
		}
		return nil
	})
}

// Get returns a company's current score, nil if never computed.
func (r *ScoreRepository) Get(companyID string) (*CompanyScore, error) {
	row := r.db.QueryRow(`
		SELECT company_id, ethics_score, credibility_score, delivery_score, security_score, innovation_score, overall_score, confidence, total_votes, expert_reviews, promise_kept_ratio, last_calculated
		FROM company_scores WHERE company_id = ?
	`, companyID)

	score, err := scanScore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get company score: %w", err)
	}
	return score, nil
}

// GetAll returns all current scores ordered by overall score descending.
func (r *ScoreRepository) GetAll() ([]CompanyScore, error) {
	rows, err := r.db.Query(`
		SELECT company_id, ethics_score, credibility_score, delivery_score, security_score, innovation_score, overall_score, confidence, total_votes, expert_reviews, promise_kept_ratio, last_calculated
		FROM company_scores
		ORDER BY overall_score DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query company scores: %w", err)
	}
	defer rows.Close()

	var result []CompanyScore
	for rows.Next() {
		score, err := scanScore(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan company score: %w", err)
		}
		result = append(result, *score)
	}
	return result, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanScore(s scanner) (*CompanyScore, error) {
	var score CompanyScore
	var confidence string

	err := s.Scan(&score.CompanyID, &score.Ethics, &score.Credibility,
		&score.Delivery, &score.Security, &score.Innovation, &score.Overall,
		&confidence, &score.TotalVotes, &score.ExpertReviews,
		&score.PromiseKeptRatio, &score.LastCalculated)
	if err != nil {
		return nil, err
	}

	score.Confidence = domain.ConfidenceLevel(confidence)
	return &score, nil
}
