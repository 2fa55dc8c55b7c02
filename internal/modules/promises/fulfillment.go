package promises

import "math"

// Stats summarizes a company's promise record. A promise counts as resolved
// once its status leaves pending, and as kept when either its status or its
// community verdict is "kept".
type Stats struct {
	Total    int
	Resolved int
	Kept     int
}

// KeptRatio returns kept/resolved, 0.0 when nothing is resolved yet.
func (s Stats) KeptRatio() float64 {
	if s.Resolved == 0 {
		return 0.0
	}
	return float64(s.Kept) / float64(s.Resolved)
}

// BlendDelivery folds the promise record into the raw delivery score:
// 60% community/expert opinion, 40% demonstrated promise keeping (ratio
// projected onto the 0-10 scale). With no resolved promises the raw score
// passes through untouched. A single resolved promise already gets the
// full 40% - small-sample damping is a possible future refinement, but the
// current behavior is deliberate: promise evidence matters immediately.
func BlendDelivery(raw float64, stats Stats) float64 {
	if stats.Resolved == 0 {
		return raw
	}
	return math.Round((raw*0.6+stats.KeptRatio()*10*0.4)*10) / 10
}
