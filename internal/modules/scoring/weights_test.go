package scoring

import (
	"testing"

	"github.com/aristath/credence/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestWeightForReputationBrackets(t *testing.T) {
	tests := []struct {
		name       string
		reputation int
		expert     bool
		want       float64
	}{
		{"new account", 0, false, 1.0},
		{"below first bracket", 99, false, 1.0},
		{"first bracket edge", 100, false, 1.1},
		{"mid bracket", 750, false, 1.3},
		{"second bracket edge", 500, false, 1.3},
		{"top bracket edge", 1000, false, 1.5},
		{"far past top bracket", 50000, false, 1.5},
		{"expert ignores zero reputation", 0, true, 2.0},
		{"expert ignores high reputation", 2000, true, 2.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WeightFor(domain.ContributorProfile{
				Reputation: tt.reputation,
				Expert:     tt.expert,
			})
			assert.Equal(t, tt.want, got)
		})
	}
}
