package server

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/credence/internal/events"
)

func TestResolveEventTypesEmptyMeansAll(t *testing.T) {
	types := resolveEventTypes("")
	assert.Equal(t, allStreamEventTypes, types)
}

func TestResolveEventTypesFiltersUnknown(t *testing.T) {
	types := resolveEventTypes("score_changed,bogus,vote_recorded")
	assert.Equal(t, []events.EventType{events.ScoreChanged, events.VoteRecorded}, types)
}

func TestResolveEventTypesTrimsWhitespace(t *testing.T) {
	types := resolveEventTypes(" score_changed , job_failed ")
	assert.Equal(t, []events.EventType{events.ScoreChanged, events.JobFailed}, types)
}

func TestResolveEventTypesAllUnknown(t *testing.T) {
	assert.Empty(t, resolveEventTypes("nope,nada"))
}
