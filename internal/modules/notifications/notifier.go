package notifications

import (
	"math"

	"github.com/aristath/credence/internal/events"
	"github.com/rs/zerolog"
)

// DefaultThreshold is the minimum overall-score movement that notifies
// followers.
const DefaultThreshold = 0.5

// Notifier fans significant score changes out to company followers.
// It implements the aggregator's notification hook and runs strictly after
// the score commit: every failure here is logged and swallowed.
type Notifier struct {
	followers *FollowerRepository
	outbox    *OutboxRepository
	bus       *events.Bus
	threshold float64
	log       zerolog.Logger
}

// NewNotifier creates a new change notifier. threshold <= 0 takes the
// default of 0.5.
func NewNotifier(
	followers *FollowerRepository,
	outbox *OutboxRepository,
	bus *events.Bus,
	threshold float64,
	log zerolog.Logger,
) *Notifier {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Notifier{
		followers: followers,
		outbox:    outbox,
		bus:       bus,
		threshold: threshold,
		log:       log.With().Str("service", "notifier").Logger(),
	}
}

// NotifyScoreChange writes one outbox entry per notifiable follower when the
// overall score moved by at least the threshold. A company's first computed
// score has no previous value and never notifies.
func (n *Notifier) NotifyScoreChange(companyID string, oldScore *float64, newScore float64) {
	if oldScore == nil {
		return
	}

	delta := math.Round((newScore-*oldScore)*100) / 100
	if math.Abs(delta) < n.threshold {
		return
	}

	direction := "increase"
	if delta < 0 {
		direction = "decrease"
	}

	users, err := n.followers.NotifiableUsers(companyID)
	if err != nil {
		n.log.Error().Err(err).Str("company_id", companyID).Msg("Failed to load followers")
		return
	}

	notified := 0
	for _, userID := range users {
		_, err := n.outbox.Append(ScoreChangePayload{
			UserID:    userID,
			CompanyID: companyID,
			OldScore:  *oldScore,
			NewScore:  newScore,
			Delta:     delta,
			Direction: direction,
		})
		if err != nil {
			n.log.Error().Err(err).
				Str("company_id", companyID).
				Str("user_id", userID).
				Msg("Failed to append notification")
			continue
		}
		notified++
	}

	if n.bus != nil {
		n.bus.EmitTyped(events.ScoreChanged, "notifications", &events.ScoreChangedData{
			CompanyID: companyID,
			OldScore:  *oldScore,
			NewScore:  newScore,
			Delta:     delta,
			Direction: direction,
		})
	}

	n.log.Info().
		Str("company_id", companyID).
		Float64("delta", delta).
		Str("direction", direction).
		Int("notified", notified).
		Msg("Score change notifications queued")
}

// GetPending returns a user's undelivered notifications.
func (n *Notifier) GetPending(userID string, limit int) ([]Notification, error) {
	return n.outbox.GetPending(userID, limit)
}

// Acknowledge marks a notification as delivered.
func (n *Notifier) Acknowledge(id string) (bool, error) {
	return n.outbox.MarkDelivered(id)
}

// Follow subscribes a user to a company.
func (n *Notifier) Follow(companyID, userID string) error {
	return n.followers.Follow(companyID, userID)
}

// Unfollow removes a user's subscription.
func (n *Notifier) Unfollow(companyID, userID string) error {
	return n.followers.Unfollow(companyID, userID)
}

// Mute keeps the follow but disables notifications.
func (n *Notifier) Mute(companyID, userID string) error {
	return n.followers.SetNotify(companyID, userID, false)
}
