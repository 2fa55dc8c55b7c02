package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all review routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/companies/{companyID}/reviews", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleSubmit)
	})
	r.Post("/reviews/{reviewID}/verify", h.HandleVerify)
}
