package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
	)

	// Flows
	mux.Handle("POST /api/v1/flows/run", chain(http.HandlerFunc(h.RunFlow)))
	mux.Handle("GET /api/v1/stages", chain(http.HandlerFunc(h.ListStages)))

	// Sessions
	mux.Handle("GET /api/v1/sessions/{id}/history", chain(http.HandlerFunc(h.GetSessionHistory)))
	mux.Handle("DELETE /api/v1/sessions/{id}", chain(http.HandlerFunc(h.ClearSession)))

	// Designs
	mux.Handle("GET /api/v1/designs/{design}/versions", chain(http.HandlerFunc(h.ListDesignVersions)))
	mux.Handle("GET /api/v1/designs/{design}/runs", chain(http.HandlerFunc(h.ListDesignRuns)))
}
