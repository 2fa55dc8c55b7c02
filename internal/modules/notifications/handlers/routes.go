package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers notification and follower routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", h.HandleGetPending)
		r.Post("/{notificationID}/ack", h.HandleAcknowledge)
	})
	r.Route("/companies/{companyID}/followers", func(r chi.Router) {
		r.Post("/", h.HandleFollow)
		r.Delete("/", h.HandleUnfollow)
	})
}
