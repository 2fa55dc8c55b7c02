package events

import "time"

// EventData is the interface that all event data types must implement
// This allows for type-safe event data while maintaining flexibility
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// VoteRecordedData contains data for VoteRecorded events
type VoteRecordedData struct {
	CompanyID     string  `json:"company_id"`
	ContributorID string  `json:"contributor_id"`
	Dimension     string  `json:"dimension"`
	Score         int     `json:"score"`
	Weight        float64 `json:"weight"`
	Updated       bool    `json:"updated"` // true when a resubmission replaced an existing vote
}

// EventType returns the event type for VoteRecordedData
func (d *VoteRecordedData) EventType() EventType {
	return VoteRecorded
}

// VoteRetractedData contains data for VoteRetracted events
type VoteRetractedData struct {
	CompanyID     string `json:"company_id"`
	ContributorID string `json:"contributor_id"`
	Dimension     string `json:"dimension"`
}

// EventType returns the event type for VoteRetractedData
func (d *VoteRetractedData) EventType() EventType {
	return VoteRetracted
}

// ReviewSubmittedData contains data for ReviewSubmitted events
type ReviewSubmittedData struct {
	ReviewID      string `json:"review_id"`
	CompanyID     string `json:"company_id"`
	ContributorID string `json:"contributor_id"`
}

// EventType returns the event type for ReviewSubmittedData
func (d *ReviewSubmittedData) EventType() EventType {
	return ReviewSubmitted
}

// ReviewVerifiedData contains data for ReviewVerified events
type ReviewVerifiedData struct {
	ReviewID  string `json:"review_id"`
	CompanyID string `json:"company_id"`
}

// EventType returns the event type for ReviewVerifiedData
func (d *ReviewVerifiedData) EventType() EventType {
	return ReviewVerified
}

// PromiseCreatedData contains data for PromiseCreated events
type PromiseCreatedData struct {
	PromiseID string `json:"promise_id"`
	CompanyID string `json:"company_id"`
	Title     string `json:"title"`
}

// EventType returns the event type for PromiseCreatedData
func (d *PromiseCreatedData) EventType() EventType {
	return PromiseCreated
}

// PromiseResolvedData contains data for PromiseResolved events
type PromiseResolvedData struct {
	PromiseID string `json:"promise_id"`
	CompanyID string `json:"company_id"`
	Status    string `json:"status"`
	Verdict   string `json:"verdict,omitempty"`
}

// EventType returns the event type for PromiseResolvedData
func (d *PromiseResolvedData) EventType() EventType {
	return PromiseResolved
}

// ScoreRecalculatedData contains data for ScoreRecalculated events
type ScoreRecalculatedData struct {
	CompanyID  string  `json:"company_id"`
	Overall    float64 `json:"overall"`
	Confidence string  `json:"confidence"`
	TotalVotes int     `json:"total_votes"`
}

// EventType returns the event type for ScoreRecalculatedData
func (d *ScoreRecalculatedData) EventType() EventType {
	return ScoreRecalculated
}

// ScoreChangedData contains data for ScoreChanged events
// Emitted only when the overall score moves by at least the materiality
// threshold (0.5 by default).
type ScoreChangedData struct {
	CompanyID string  `json:"company_id"`
	OldScore  float64 `json:"old_score"`
	NewScore  float64 `json:"new_score"`
	Delta     float64 `json:"delta"`
	Direction string  `json:"direction"` // "increase" or "decrease"
}

// EventType returns the event type for ScoreChangedData
func (d *ScoreChangedData) EventType() EventType {
	return ScoreChanged
}

// JobStatusData contains data for job lifecycle events
type JobStatusData struct {
	JobName   string    `json:"job_name"`
	Status    string    `json:"status"` // "started", "completed", "failed"
	Error     string    `json:"error,omitempty"`
	Duration  float64   `json:"duration,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// EventType returns the event type for JobStatusData
// Note: The actual event type is determined by the Status field
func (d *JobStatusData) EventType() EventType {
	switch d.Status {
	case "completed":
		return JobCompleted
	case "failed":
		return JobFailed
	default:
		return JobStarted
	}
}

// ErrorEventData contains data for ErrorOccurred events
type ErrorEventData struct {
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// EventType returns the event type for ErrorEventData
func (d *ErrorEventData) EventType() EventType {
	return ErrorOccurred
}
