package scoring

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// WeightedValue pairs a 0-10 value with the weight it carries in a mean.
type WeightedValue struct {
	Value  float64
	Weight float64
}

// DimensionScore computes the weighted mean of the given values, rounded to
// one decimal. Returns 0.0 when there is no weight to average over - callers
// distinguish "no data" from "scored 0.0" via vote counts, not the score.
func DimensionScore(values []WeightedValue) float64 {
	if len(values) == 0 {
		return 0.0
	}

	xs := make([]float64, len(values))
	ws := make([]float64, len(values))
	totalWeight := 0.0
	for i, v := range values {
		xs[i] = v.Value
		ws[i] = v.Weight
		totalWeight += v.Weight
	}

	if totalWeight == 0 {
		return 0.0
	}

	return round1(stat.Mean(xs, ws))
}

// round1 rounds to one decimal place, half away from zero.
func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
