// Package handlers provides HTTP handlers for score read operations.
// Reads go straight to the score cache and never wait on a recompute.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/aristath/credence/internal/modules/scoring"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles score HTTP requests
type Handler struct {
	aggregator *scoring.Aggregator
	log        zerolog.Logger
}

// NewHandler creates a new score handler
func NewHandler(aggregator *scoring.Aggregator, log zerolog.Logger) *Handler {
	return &Handler{
		aggregator: aggregator,
		log:        log.With().Str("handler", "scoring").Logger(),
	}
}

// HandleGetScore handles GET /api/companies/{companyID}/score
func (h *Handler) HandleGetScore(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyID")

	score, err := h.aggregator.GetScore(companyID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to get score")
		return
	}
	if score == nil {
		h.writeError(w, http.StatusNotFound, "No score computed for this company yet")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": score,
	})
}

// HandleGetHistory handles GET /api/companies/{companyID}/score/history
func (h *Handler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyID")

	limit := 100
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	history, err := h.aggregator.GetHistory(companyID, limit)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to get score history")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":  history,
		"count": len(history),
	})
}

// HandleGetAllScores handles GET /api/companies/scores
func (h *Handler) HandleGetAllScores(w http.ResponseWriter, r *http.Request) {
	scores, err := h.aggregator.GetAllScores()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to get scores")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":  scores,
		"count": len(scores),
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
