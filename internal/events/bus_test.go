package events

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func waitForEvents(t *testing.T, mu *sync.Mutex, count *int, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		got := *count
		mu.Unlock()
		if got >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d events", want)
}

func TestBusDeliversToSubscribers(t *testing.T) {
	bus := NewBus()

	var mu sync.Mutex
	var received []*Event
	count := 0

	bus.Subscribe(ScoreChanged, func(e *Event) {
		mu.Lock()
		received = append(received, e)
		count++
		mu.Unlock()
	})

	bus.Emit(ScoreChanged, "scoring", map[string]interface{}{"company_id": "acme"})
	waitForEvents(t, &mu, &count, 1)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, ScoreChanged, received[0].Type)
	assert.Equal(t, "scoring", received[0].Module)
	assert.False(t, received[0].Timestamp.IsZero())
}

func TestBusIgnoresOtherEventTypes(t *testing.T) {
	bus := NewBus()

	var mu sync.Mutex
	count := 0

	bus.Subscribe(VoteRecorded, func(e *Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	bus.Emit(ScoreChanged, "scoring", nil)
	bus.Emit(VoteRecorded, "votes", nil)
	waitForEvents(t, &mu, &count, 1)

	// Give any stray delivery a moment to land.
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, count)
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus()

	var mu sync.Mutex
	count := 0

	unsubscribe := bus.Subscribe(ScoreChanged, func(e *Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	bus.Emit(ScoreChanged, "scoring", nil)
	waitForEvents(t, &mu, &count, 1)

	unsubscribe()
	bus.Emit(ScoreChanged, "scoring", nil)
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, count)
}

func TestBusEmitTyped(t *testing.T) {
	bus := NewBus()

	var mu sync.Mutex
	var got *Event
	count := 0

	bus.Subscribe(ErrorOccurred, func(e *Event) {
		mu.Lock()
		got = e
		count++
		mu.Unlock()
	})

	bus.EmitTyped(ErrorOccurred, "work", &ErrorEventData{
		Error:   "recompute failed",
		Context: map[string]interface{}{"company_id": "acme"},
	})
	waitForEvents(t, &mu, &count, 1)

	mu.Lock()
	defer mu.Unlock()
	data, ok := got.Data.(*ErrorEventData)
	assert.True(t, ok)
	assert.Equal(t, "recompute failed", data.Error)
}
