package scoring

import (
	"testing"

	"github.com/aristath/credence/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestClassifyConfidence(t *testing.T) {
	tests := []struct {
		name    string
		experts int
		votes   int
		want    domain.ConfidenceLevel
	}{
		{"no evidence", 0, 0, domain.ConfidenceLow},
		{"few votes no experts", 0, 5, domain.ConfidenceLow},
		{"vote volume alone reaches medium", 0, 15, domain.ConfidenceMedium},
		{"one expert alone reaches medium", 1, 0, domain.ConfidenceMedium},
		{"two experts but thin votes stay medium", 2, 29, domain.ConfidenceMedium},
		{"two experts with vote volume", 2, 30, domain.ConfidenceHigh},
		{"three experts but 49 votes", 3, 49, domain.ConfidenceHigh},
		{"full evidence", 3, 50, domain.ConfidenceVeryHigh},
		{"more than enough", 10, 500, domain.ConfidenceVeryHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyConfidence(tt.experts, tt.votes))
		})
	}
}
