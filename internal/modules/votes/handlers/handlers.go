// Package handlers provides HTTP handlers for vote operations.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aristath/credence/internal/domain"
	"github.com/aristath/credence/internal/modules/votes"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles vote HTTP requests
type Handler struct {
	service *votes.Service
	log     zerolog.Logger
}

// NewHandler creates a new vote handler
func NewHandler(service *votes.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "votes").Logger(),
	}
}

// HandleSubmit handles POST /api/companies/{companyID}/votes
// With ?strict=true an existing vote for the same dimension is rejected with
// 409 instead of being replaced.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyID")
	contributorID := r.Header.Get("X-Contributor-ID")
	strict := r.URL.Query().Get("strict") == "true"

	var req votes.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	vote, err := h.service.Submit(r.Context(), contributorID, companyID, req, strict)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"data": vote,
	})
}

// HandleRetract handles DELETE /api/companies/{companyID}/votes/{dimension}
func (h *Handler) HandleRetract(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyID")
	dimension := chi.URLParam(r, "dimension")
	contributorID := r.Header.Get("X-Contributor-ID")

	if err := h.service.Retract(r.Context(), contributorID, companyID, dimension); err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "retracted",
	})
}

// HandleList handles GET /api/companies/{companyID}/votes
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyID")

	list, err := h.service.ListByCompany(companyID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to list votes")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":  list,
		"count": len(list),
	})
}

// writeServiceError maps domain errors to HTTP status codes
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsValidationError(err):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		h.writeError(w, http.StatusUnauthorized, "X-Contributor-ID header is required")
	case errors.Is(err, domain.ErrConflict):
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	default:
		h.log.Error().Err(err).Msg("Vote operation failed")
		h.writeError(w, http.StatusInternalServerError, "Internal error")
	}
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
