// Package handlers provides HTTP handlers for the notification outbox and
// follower subscriptions.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/aristath/credence/internal/modules/notifications"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles notification HTTP requests
type Handler struct {
	notifier *notifications.Notifier
	log      zerolog.Logger
}

// NewHandler creates a new notification handler
func NewHandler(notifier *notifications.Notifier, log zerolog.Logger) *Handler {
	return &Handler{
		notifier: notifier,
		log:      log.With().Str("handler", "notifications").Logger(),
	}
}

// HandleGetPending handles GET /api/notifications?user_id=
// This is the pull interface for the external notification subsystem.
func (h *Handler) HandleGetPending(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		h.writeError(w, http.StatusBadRequest, "user_id query parameter is required")
		return
	}

	limit := 100
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	pending, err := h.notifier.GetPending(userID, limit)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to get notifications")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":  pending,
		"count": len(pending),
	})
}

// HandleAcknowledge handles POST /api/notifications/{notificationID}/ack
func (h *Handler) HandleAcknowledge(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "notificationID")

	ok, err := h.notifier.Acknowledge(id)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to acknowledge notification")
		return
	}
	if !ok {
		h.writeError(w, http.StatusNotFound, "Notification not found or already delivered")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "delivered"})
}

// HandleFollow handles POST /api/companies/{companyID}/followers
func (h *Handler) HandleFollow(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyID")
	userID := r.Header.Get("X-Contributor-ID")
	if userID == "" {
		h.writeError(w, http.StatusUnauthorized, "X-Contributor-ID header is required")
		return
	}

	if err := h.notifier.Follow(companyID, userID); err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to follow company")
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]string{"status": "following"})
}

// HandleUnfollow handles DELETE /api/companies/{companyID}/followers
func (h *Handler) HandleUnfollow(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyID")
	userID := r.Header.Get("X-Contributor-ID")
	if userID == "" {
		h.writeError(w, http.StatusUnauthorized, "X-Contributor-ID header is required")
		return
	}

	if err := h.notifier.Unfollow(companyID, userID); err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to unfollow company")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "unfollowed"})
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
