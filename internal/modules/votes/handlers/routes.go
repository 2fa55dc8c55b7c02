package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all vote routes under /companies/{companyID}
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/companies/{companyID}/votes", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleSubmit)
		r.Delete("/{dimension}", h.HandleRetract)
	})
}
