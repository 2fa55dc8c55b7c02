package work

import "time"

const (
	// MaxRetries is how many times a failed recompute is retried
	// before the processor gives up and keeps the prior committed score.
	MaxRetries = 5

	// BaseBackoff is the delay before the first retry. Each subsequent
	// retry doubles the delay up to MaxBackoff.
	BaseBackoff = time.Second

	// MaxBackoff caps the retry delay.
	MaxBackoff = time.Minute
)

// Recomputer recalculates and commits a company's score card.
type Recomputer interface {
	Recompute(companyID string) error
}
