// Package handlers provides HTTP handlers for promise operations.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aristath/credence/internal/domain"
	"github.com/aristath/credence/internal/modules/promises"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles promise HTTP requests
type Handler struct {
	service *promises.Service
	log     zerolog.Logger
}

// NewHandler creates a new promise handler
func NewHandler(service *promises.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "promises").Logger(),
	}
}

// HandleCreate handles POST /api/companies/{companyID}/promises
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyID")
	contributorID := r.Header.Get("X-Contributor-ID")

	var req promises.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	promise, err := h.service.Create(r.Context(), contributorID, companyID, req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"data": promise,
	})
}

// HandleResolve handles POST /api/promises/{promiseID}/resolve
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	promiseID := chi.URLParam(r, "promiseID")
	contributorID := r.Header.Get("X-Contributor-ID")

	var req promises.ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	promise, err := h.service.Resolve(r.Context(), contributorID, promiseID, req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": promise,
	})
}

// HandleVote handles POST /api/promises/{promiseID}/votes
func (h *Handler) HandleVote(w http.ResponseWriter, r *http.Request) {
	promiseID := chi.URLParam(r, "promiseID")
	contributorID := r.Header.Get("X-Contributor-ID")

	var req promises.VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	vote, err := h.service.Vote(r.Context(), contributorID, promiseID, req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"data": vote,
	})
}

// HandleList handles GET /api/companies/{companyID}/promises
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyID")

	list, err := h.service.ListByCompany(companyID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to list promises")
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
		h.log.Error().Err(err).Msg("Promise operation failed")
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
