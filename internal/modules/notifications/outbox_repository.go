package notifications

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// OutboxRepository handles the notifications outbox in history.db (ledger
// profile - entries survive crashes between score commit and pickup).
// Payloads are msgpack-encoded: compact, and the consuming subsystem is not
// a browser.
type OutboxRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewOutboxRepository creates a new outbox repository
func NewOutboxRepository(db *sql.DB, log zerolog.Logger) *OutboxRepository {
	return &OutboxRepository{
		db:  db,
		log: log.With().Str("repository", "outbox").Logger(),
	}
}

// Append writes one outbox entry.
func (r *OutboxRepository) Append(payload ScoreChangePayload) (string, error) {
	encoded, err := msgpack.Marshal(&payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode notification payload: %w", err)
	}

	id := uuid.New().String()
	_, err = r.db.Exec(`
		INSERT INTO notifications (id, user_id, company_id, payload, created_at, delivered_at)
		VALUES (?, ?, ?, ?, ?, NULL)
	`, id, payload.UserID, payload.CompanyID, encoded, time.Now().Unix())
	if err != nil {
		return "", fmt.Errorf("failed to append notification: %w", err)
	}
	return id, nil
}

// GetPending returns a user's undelivered notifications, oldest first.
func (r *OutboxRepository) GetPending(userID string, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(`
		SELECT id, user_id, company_id, payload, created_at, delivered_at
		FROM notifications
		WHERE user_id = ? AND delivered_at IS NULL
		ORDER BY created_at ASC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var result []Notification
	for rows.Next() {
		var n Notification
		var blob []byte
		var deliveredAt sql.NullInt64
		if err := rows.Scan(&n.ID, &n.UserID, &n.CompanyID, &blob, &n.CreatedAt, &deliveredAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		if err := msgpack.Unmarshal(blob, &n.Payload); err != nil {
			return nil, fmt.Errorf("failed to decode notification payload: %w", err)
		}
		if deliveredAt.Valid {
			n.DeliveredAt = &deliveredAt.Int64
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

// MarkDelivered stamps a notification as picked up. Returns false if the
// notification does not exist or was already delivered.
func (r *OutboxRepository) MarkDelivered(id string) (bool, error) {
	result, err := r.db.Exec(`
		UPDATE notifications SET delivered_at = ? WHERE id = ? AND delivered_at IS NULL
	`, time.Now().Unix(), id)
	if err != nil {
		return false, fmt.Errorf("failed to mark notification delivered: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}

// PurgeDelivered removes delivered entries older than the cutoff. Returns
// the number of rows deleted. Run by the maintenance scheduler.
func (r *OutboxRepository) PurgeDelivered(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan).Unix()

	result, err := r.db.Exec(`
		DELETE FROM notifications WHERE delivered_at IS NOT NULL AND delivered_at < ?
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge notifications: %w", err)
	}
	return result.RowsAffected()
}
