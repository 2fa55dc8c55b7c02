// Package notifications turns significant score changes into per-follower
// outbox entries. The engine never delivers anything itself - an external
// notification subsystem drains the outbox - so delivery concerns can never
// block or fail a score commit.
package notifications

// ScoreChangePayload is the msgpack-encoded body of one outbox entry.
type ScoreChangePayload struct {
	UserID    string  `msgpack:"user_id" json:"user_id"`
	CompanyID string  `msgpack:"company_id" json:"company_id"`
	OldScore  float64 `msgpack:"old_score" json:"old_score"`
	NewScore  float64 `msgpack:"new_score" json:"new_score"`
	Delta     float64 `msgpack:"delta" json:"delta"`
	Direction string  `msgpack:"direction" json:"direction"` // "increase" or "decrease"
}

// Notification is one outbox entry awaiting pickup.
type Notification struct {
	ID          string             `json:"id"`
	UserID      string             `json:"user_id"`
	CompanyID   string             `json:"company_id"`
	Payload     ScoreChangePayload `json:"payload"`
	CreatedAt   int64              `json:"created_at"`
	DeliveredAt *int64             `json:"delivered_at,omitempty"`
}

// Follower is one user following a company's score.
type Follower struct {
	CompanyID      string `json:"company_id"`
	UserID         string `json:"user_id"`
	NotifyOnUpdate bool   `json:"notify_on_update"`
	CreatedAt      int64  `json:"created_at"`
}
