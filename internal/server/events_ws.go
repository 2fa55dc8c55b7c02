package server

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/aristath/credence/internal/events"
)

// EventsSocketHandler streams bus events to clients over WebSocket.
// It carries the same payloads as the SSE stream for clients that
// prefer a bidirectional transport.
type EventsSocketHandler struct {
	bus *events.Bus
	log zerolog.Logger
}

// NewEventsSocketHandler creates a WebSocket events handler
func NewEventsSocketHandler(bus *events.Bus, log zerolog.Logger) *EventsSocketHandler {
	return &EventsSocketHandler{
		bus: bus,
		log: log.With().Str("component", "events_ws").Logger(),
	}
}

// ServeHTTP upgrades the connection and streams events until the client
// disconnects. The optional ?types= filter works as on the SSE stream.
func (h *EventsSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	types := resolveEventTypes(r.URL.Query().Get("types"))
	if len(types) == 0 {
		http.Error(w, "no valid event types requested", http.StatusBadRequest)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "server closing")

	// The client never sends application messages; CloseRead gives us a
	// context that cancels when the connection drops.
	ctx := conn.CloseRead(r.Context())

	eventCh := make(chan *events.Event, 100)

	unsubscribes := make([]func(), 0, len(types))
	for _, t := range types {
		unsub := h.bus.Subscribe(t, func(e *events.Event) {
			select {
			case eventCh <- e:
			default:
			}
		})
		unsubscribes = append(unsubscribes, unsub)
	}
	defer func() {
		for _, unsub := range unsubscribes {
			unsub()
		}
	}()

	h.log.Debug().Int("types", len(types)).Msg("WebSocket client connected")

	for {
		select {
		case <-ctx.Done():
			h.log.Debug().Msg("WebSocket client disconnected")
			conn.Close(websocket.StatusNormalClosure, "")
			return

		case event := <-eventCh:
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := wsjson.Write(writeCtx, conn, event)
			cancel()
			if err != nil {
				h.log.Debug().Err(err).Msg("WebSocket write failed, closing")
				return
			}
		}
	}
}
