package notifications

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// FollowerRepository handles the company_followers table in community.db.
type FollowerRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewFollowerRepository creates a new follower repository
func NewFollowerRepository(db *sql.DB, log zerolog.Logger) *FollowerRepository {
	return &FollowerRepository{
		db:  db,
		log: log.With().Str("repository", "followers").Logger(),
	}
}

// Follow subscribes a user to a company's score changes. Re-following
// re-enables notifications if they were muted.
func (r *FollowerRepository) Follow(companyID, userID string) error {
	now := time.Now().Unix()
	_, err := r.db.Exec(`
		INSERT INTO company_followers (company_id, user_id, notify_on_update, created_at)
		VALUES (?, ?, 1, ?)
		ON CONFLICT(company_id, user_id) DO UPDATE SET notify_on_update = 1
	`, companyID, userID, now)
	if err != nil {
		return fmt.Errorf("failed to follow company: %w", err)
	}
	return nil
}

// Unfollow removes the subscription entirely.
func (r *FollowerRepository) Unfollow(companyID, userID string) error {
	_, err := r.db.Exec(`
		DELETE FROM company_followers WHERE company_id = ? AND user_id = ?
	`, companyID, userID)
	if err != nil {
		return fmt.Errorf("failed to unfollow company: %w", err)
	}
	return nil
}

// SetNotify toggles notifications without dropping the follow.
func (r *FollowerRepository) SetNotify(companyID, userID string, enabled bool) error {
	v := 0
	if enabled {
		v = 1
	}
	_, err := r.db.Exec(`
		UPDATE company_followers SET notify_on_update = ? WHERE company_id = ? AND user_id = ?
	`, v, companyID, userID)
	if err != nil {
		return fmt.Errorf("failed to update notify flag: %w", err)
	}
	return nil
}

// NotifiableUsers returns the user IDs following a company with
// notifications enabled.
func (r *FollowerRepository) NotifiableUsers(companyID string) ([]string, error) {
	rows, err := r.db.Query(`
		SELECT user_id FROM company_followers
		WHERE company_id = ? AND notify_on_update = 1
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query followers: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan follower: %w", err)
		}
		users = append(users, userID)
	}
	return users, rows.Err()
}
