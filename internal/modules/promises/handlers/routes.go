package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all promise routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/companies/{companyID}/promises", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
	})
	r.Route("/promises/{promiseID}", func(r chi.Router) {
		r.Post("/resolve", h.HandleResolve)
		r.Post("/votes", h.HandleVote)
	})
}
