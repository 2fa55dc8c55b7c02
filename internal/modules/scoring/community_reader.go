package scoring

import (
	"database/sql"
	"fmt"

	"github.com/aristath/credence/internal/domain"
	"github.com/aristath/credence/internal/modules/promises"
	"github.com/rs/zerolog"
)

// CommunityReader gives the aggregator read-only access to the evidence in
// community.db. The scoring engine never writes these tables.
type CommunityReader struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewCommunityReader creates a new community reader
func NewCommunityReader(db *sql.DB, log zerolog.Logger) *CommunityReader {
	return &CommunityReader{
		db:  db,
		log: log.With().Str("repository", "community_reader").Logger(),
	}
}

// reviewColumn maps a dimension to its expert_reviews column. Dimensions are
// a closed set, so this cannot inject.
func reviewColumn(dim domain.Dimension) string {
	return string(dim) + "_score"
}

// WeightedValues returns every weighted contribution for (company, dimension):
// all community votes plus the dimension values of verified expert reviews.
func (r *CommunityReader) WeightedValues(companyID string, dim domain.Dimension) ([]WeightedValue, error) {
	var values []WeightedValue

	rows, err := r.db.Query(`
		SELECT score, weight FROM votes
		WHERE company_id = ? AND dimension = ?
	`, companyID, string(dim))
	if err != nil {
		return nil, fmt.Errorf("failed to query votes for %s/%s: %w", companyID, dim, err)
	}
	defer rows.Close()

	for rows.Next() {
		var score int
		var weight float64
		if err := rows.Scan(&score, &weight); err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		values = append(values, WeightedValue{Value: float64(score), Weight: weight})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	col := reviewColumn(dim)
	reviewRows, err := r.db.Query(fmt.Sprintf(`
		SELECT %s, weight FROM expert_reviews
		WHERE company_id = ? AND verified = 1 AND %s IS NOT NULL
	`, col, col), companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews for %s/%s: %w", companyID, dim, err)
	}
	defer reviewRows.Close()

	for reviewRows.Next() {
		var value, weight float64
		if err := reviewRows.Scan(&value, &weight); err != nil {
			return nil, fmt.Errorf("failed to scan review value: %w", err)
		}
		values = append(values, WeightedValue{Value: value, Weight: weight})
	}
	return values, reviewRows.Err()
}

// CountVotes returns the company's total community vote count across all
// dimensions.
func (r *CommunityReader) CountVotes(companyID string) (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM votes WHERE company_id = ?", companyID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count votes: %w", err)
	}
	return count, nil
}

// CountVerifiedReviews returns the company's verified expert review count.
func (r *CommunityReader) CountVerifiedReviews(companyID string) (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM expert_reviews WHERE company_id = ? AND verified = 1", companyID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count verified reviews: %w", err)
	}
	return count, nil
}

// PromiseStats returns the company's promise record for the delivery blend.
func (r *CommunityReader) PromiseStats(companyID string) (promises.Stats, error) {
	var stats promises.Stats
	err := r.db.QueryRow(`
		SELECT
			COUNT(*),
			COUNT(CASE WHEN status != 'pending' THEN 1 END),
			COUNT(CASE WHEN status = 'kept' OR community_verdict = 'kept' THEN 1 END)
		FROM promises WHERE company_id = ?
	`, companyID).Scan(&stats.Total, &stats.Resolved, &stats.Kept)
	if err != nil {
		return promises.Stats{}, fmt.Errorf("failed to get promise stats: %w", err)
	}
	return stats, nil
}
