package reviews

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Repository handles expert review storage in community.db.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new review repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "reviews").Logger(),
	}
}

// Insert stores a new review. Reviews are always created unverified.
func (r *Repository) Insert(review *ExpertReview) error {
	now := time.Now().Unix()
	review.ID = uuid.New().String()
	review.CreatedAt = now
	review.UpdatedAt = now
	review.Verified = false

	_, err := r.db.Exec(`
		INSERT INTO expert_reviews (id, contributor_id, company_id, ethics_score, credibility_score, delivery_score, security_score, innovation_score, weight, verified, summary, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?)
	`, review.ID, review.ContributorID, review.CompanyID,
		review.Ethics, review.Credibility, review.Delivery, review.Security, review.Innovation,
		review.Weight, review.Summary, now, now)
	if err != nil {
		return fmt.Errorf("failed to insert review: %w", err)
	}
	return nil
}

// GetByID returns a review by ID, nil if not found.
func (r *Repository) GetByID(id string) (*ExpertReview, error) {
	row := r.db.QueryRow(`
		SELECT id, contributor_id, company_id, ethics_score, credibility_score, delivery_score, security_score, innovation_score, weight, verified, summary, created_at, updated_at
		FROM expert_reviews WHERE id = ?
	`, id)

	review, err := scanReview(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return review, nil
}

// MarkVerified flips the verified flag. Returns the verified review, or nil
// if no review exists with that ID.
func (r *Repository) MarkVerified(id string) (*ExpertReview, error) {
	now := time.Now().Unix()

	result, err := r.db.Exec(`
		UPDATE expert_reviews SET verified = 1, updated_at = ? WHERE id = ?
	`, now, id)
	if err != nil {
		return nil, fmt.Errorf("failed to verify review: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}

	return r.GetByID(id)
}

// GetByCompany returns reviews for a company, newest first. When
// verifiedOnly is set, unverified reviews are excluded.
func (r *Repository) GetByCompany(companyID string, verifiedOnly bool) ([]ExpertReview, error) {
	query := `
		SELECT id, contributor_id, company_id, ethics_score, credibility_score, delivery_score, security_score, innovation_score, weight, verified, summary, created_at, updated_at
		FROM expert_reviews WHERE company_id = ?`
	if verifiedOnly {
		query += " AND verified = 1"
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.Query(query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	var result []ExpertReview
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		result = append(result, *review)
	}
	return result, rows.Err()
}

// CountVerifiedByCompany returns the number of verified reviews for a company.
func (r *Repository) CountVerifiedByCompany(companyID string) (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM expert_reviews WHERE company_id = ? AND verified = 1", companyID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count verified reviews: %w", err)
	}
	return count, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanReview(s scanner) (*ExpertReview, error) {
	var review ExpertReview
	var verified int

	err := s.Scan(&review.ID, &review.ContributorID, &review.CompanyID,
		&review.Ethics, &review.Credibility, &review.Delivery, &review.Security, &review.Innovation,
		&review.Weight, &verified, &review.Summary, &review.CreatedAt, &review.UpdatedAt)
	if err != nil {
		return nil, err
	}

	review.Verified = verified != 0
	return &review, nil
}
