// Package httptransport is the thin HTTP layer over the gate and record
// stores. Handlers delegate every decision to the gate; transport concerns
// stay here.
package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	gatemw "gatekeeper/internal/gate/middleware"
	"gatekeeper/internal/gate/models"
	"gatekeeper/pkg/platform/middleware/metadata"
)

// NewRouter wires the public routes. Every /v1 route runs the full
// validation pipeline; per-route authorization names the operation and the
// URL parameter carrying the resource ID.
func NewRouter(h *Handler, mw *gatemw.Middleware) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(metadata.ClientMetadata)

	r.Get("/healthz", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.RequireSession)

		r.With(mw.RequireOperation(models.OpReadCreditReport, "reportID")).
			Get("/reports/{reportID}", h.handleReadReport)

		r.With(mw.RequireOperation(models.OpCreateDispute, "")).
			Post("/disputes", h.handleCreateDispute)

		r.With(mw.RequireOperation(models.OpReadDispute, "disputeID")).
			Get("/disputes/{disputeID}", h.handleReadDispute)

		r.With(mw.RequireOperation(models.OpReadProfile, "")).
			Get("/profile", h.handleReadProfile)
	})

	return r
}
