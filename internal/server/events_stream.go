package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/credence/internal/events"
)

// allStreamEventTypes lists every event type exposed on the live streams.
var allStreamEventTypes = []events.EventType{
	events.VoteRecorded,
	events.VoteRetracted,
	events.ReviewSubmitted,
	events.ReviewVerified,
	events.PromiseCreated,
	events.PromiseResolved,
	events.ScoreRecalculated,
	events.ScoreChanged,
	events.JobStarted,
	events.JobCompleted,
	events.JobFailed,
	events.ErrorOccurred,
}

// EventsStreamHandler streams bus events to clients over Server-Sent Events.
type EventsStreamHandler struct {
	bus *events.Bus
	log zerolog.Logger
}

// NewEventsStreamHandler creates an SSE handler
func NewEventsStreamHandler(bus *events.Bus, log zerolog.Logger) *EventsStreamHandler {
	return &EventsStreamHandler{
		bus: bus,
		log: log.With().Str("component", "events_stream").Logger(),
	}
}

// resolveEventTypes parses the ?types= query parameter into event types.
// An empty parameter means all types.
func resolveEventTypes(raw string) []events.EventType {
	if raw == "" {
		return allStreamEventTypes
	}

	known := make(map[events.EventType]bool, len(allStreamEventTypes))
	for _, t := range allStreamEventTypes {
		known[t] = true
	}

	var types []events.EventType
	for _, part := range strings.Split(raw, ",") {
		t := events.EventType(strings.TrimSpace(part))
		if known[t] {
			types = append(types, t)
		}
	}
	return types
}

// ServeHTTP streams events matching the optional ?types= filter
func (h *EventsStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	types := resolveEventTypes(r.URL.Query().Get("types"))
	if len(types) == 0 {
		http.Error(w, "no valid event types requested", http.StatusBadRequest)
		return
	}

	// Buffered so a slow client drops events instead of blocking the bus.
	eventCh := make(chan *events.Event, 100)

	unsubscribes := make([]func(), 0, len(types))
	for _, t := range types {
		unsub := h.bus.Subscribe(t, func(e *events.Event) {
			select {
			case eventCh <- e:
			default:
				// Client is behind; drop.
			}
		})
		unsubscribes = append(unsubscribes, unsub)
	}
	defer func() {
		for _, unsub := range unsubscribes {
			unsub()
		}
	}()

	h.log.Debug().Int("types", len(types)).Msg("SSE client connected")

	fmt.Fprintf(w, "event: connected\ndata: {\"time\":%q}\n\n", time.Now().Format(time.RFC3339))
	flusher.Flush()

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.log.Debug().Msg("SSE client disconnected")
			return

		case <-heartbeat.C:
			fmt.Fprint(w, ": heartbeat\n\n")
			flusher.Flush()

		case event := <-eventCh:
			payload, err := json.Marshal(event)
			if err != nil {
				h.log.Error().Err(err).Msg("Failed to marshal event for SSE")
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, payload)
			flusher.Flush()
		}
	}
}
