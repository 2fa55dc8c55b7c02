package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all score routes.
// /companies/scores must register before the {companyID} wildcard routes
// elsewhere so chi matches the literal segment first.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/companies/scores", h.HandleGetAllScores)
	r.Route("/companies/{companyID}/score", func(r chi.Router) {
		r.Get("/", h.HandleGetScore)
		r.Get("/history", h.HandleGetHistory)
	})
}
