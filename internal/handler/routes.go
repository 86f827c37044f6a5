package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Routes(apiRL *RateLimiter) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Get("/healthz", h.Health)
	r.Get("/media/{bucket}/*", h.ServeMedia)

	r.Route("/api", func(r chi.Router) {
		r.Use(apiRL.Middleware)

		r.Get("/missions", h.MissionList)
		r.Post("/missions", h.MissionCreate)
		r.Get("/missions/{id}", h.MissionGet)
		r.Put("/missions/{id}", h.MissionUpdate)
		r.Patch("/missions/{id}", h.MissionUpdate)
		r.Delete("/missions/{id}", h.MissionDelete)
		r.Get("/missions/{id}/checklist", h.ChecklistGet)
		r.Put("/missions/{id}/checklist", h.ChecklistReplace)

		r.Get("/submissions", h.SubmissionList)
		r.Post("/submissions", h.SubmissionCreate)

		r.Post("/uploads", h.Upload)

		r.Get("/reports", h.ReportList)
		r.Post("/reports/auto", h.ReportAuto)
		r.Post("/reports/backfill", h.ReportBackfill)
		r.Get("/reports/open", h.ReportOpen)

		r.Get("/templates", h.TemplateList)

		r.Route("/debug", func(r chi.Router) {
			r.Get("/echo", h.DebugEcho)
			r.Post("/echo", h.DebugEcho)
			r.Get("/storage", h.DebugStorage)
			r.Get("/stats", h.DebugStats)
			r.Post("/seed", h.DebugSeed)
		})
	})

	return r
}
