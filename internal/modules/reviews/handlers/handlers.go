// Package handlers provides HTTP handlers for expert review operations.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aristath/credence/internal/domain"
	"github.com/aristath/credence/internal/modules/reviews"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles review HTTP requests
type Handler struct {
	service *reviews.Service
	log     zerolog.Logger
}

// NewHandler creates a new review handler
func NewHandler(service *reviews.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "reviews").Logger(),
	}
}

// HandleSubmit handles POST /api/companies/{companyID}/reviews
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyID")
	contributorID := r.Header.Get("X-Contributor-ID")

	var req reviews.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	review, err := h.service.Submit(r.Context(), contributorID, companyID, req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"data": review,
	})
}

// HandleVerify handles POST /api/reviews/{reviewID}/verify
// This is the moderation hook: verification makes the review count.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	reviewID := chi.URLParam(r, "reviewID")

	review, err := h.service.Verify(r.Context(), reviewID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": review,
	})
}

// HandleList handles GET /api/companies/{companyID}/reviews
// With ?verified=true only verified reviews are returned.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyID")
	verifiedOnly := r.URL.Query().Get("verified") == "true"

	list, err := h.service.ListByCompany(companyID, verifiedOnly)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to list reviews")
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
	case errors.Is(err, domain.ErrNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	default:
		h.log.Error().Err(err).Msg("Review operation failed")
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
