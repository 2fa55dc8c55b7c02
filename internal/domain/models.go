// Package domain contains pure domain types shared across modules.
// This layer has no infrastructure dependencies.
package domain

import "fmt"

// Dimension is one of the five axes a company is scored on.
type Dimension string

const (
	DimensionEthics      Dimension = "ethics"
	DimensionCredibility Dimension = "credibility"
	DimensionDelivery    Dimension = "delivery"
	DimensionSecurity    Dimension = "security"
	DimensionInnovation  Dimension = "innovation"
)

// AllDimensions returns the five scoring dimensions in their canonical order.
// The order matches the overall-score weight table in the scoring module.
func AllDimensions() []Dimension {
	return []Dimension{
		DimensionEthics,
		DimensionCredibility,
		DimensionDelivery,
		DimensionSecurity,
		DimensionInnovation,
	}
}

// ParseDimension validates and normalizes a dimension string.
func ParseDimension(s string) (Dimension, error) {
	switch Dimension(s) {
	case DimensionEthics, DimensionCredibility, DimensionDelivery,
		DimensionSecurity, DimensionInnovation:
		return Dimension(s), nil
	}
	return "", NewValidationError("dimension", fmt.Sprintf("unknown dimension %q", s))
}

// ConfidenceLevel is a coarse reliability label for an aggregate score,
// derived from the volume of evidence behind it.
type ConfidenceLevel string

const (
	ConfidenceLow      ConfidenceLevel = "low"
	ConfidenceMedium   ConfidenceLevel = "medium"
	ConfidenceHigh     ConfidenceLevel = "high"
	ConfidenceVeryHigh ConfidenceLevel = "very_high"
)

// PromiseStatus is the lifecycle state of a tracked company commitment.
type PromiseStatus string

const (
	PromisePending   PromiseStatus = "pending"
	PromiseKept      PromiseStatus = "kept"
	PromiseBroken    PromiseStatus = "broken"
	PromiseDelayed   PromiseStatus = "delayed"
	PromiseCancelled PromiseStatus = "cancelled"
)

// ParsePromiseStatus validates a promise status string.
func ParsePromiseStatus(s string) (PromiseStatus, error) {
	switch PromiseStatus(s) {
	case PromisePending, PromiseKept, PromiseBroken, PromiseDelayed, PromiseCancelled:
		return PromiseStatus(s), nil
	}
	return "", NewValidationError("status", fmt.Sprintf("unknown promise status %q", s))
}

// PromiseVerdict is a contributor's judgement on a single promise.
type PromiseVerdict string

const (
	VerdictKept    PromiseVerdict = "kept"
	VerdictBroken  PromiseVerdict = "broken"
	VerdictPartial PromiseVerdict = "partial"
)

// ParsePromiseVerdict validates a promise verdict string.
func ParsePromiseVerdict(s string) (PromiseVerdict, error) {
	switch PromiseVerdict(s) {
	case VerdictKept, VerdictBroken, VerdictPartial:
		return PromiseVerdict(s), nil
	}
	return "", NewValidationError("verdict", fmt.Sprintf("unknown verdict %q", s))
}

// ContributorProfile is the slice of the external user-profile service the
// engine needs: reputation and expert status. The engine never mutates it.
type ContributorProfile struct {
	ContributorID string `json:"contributor_id"`
	Reputation    int    `json:"reputation"`
	Expert        bool   `json:"expert"`
}
