package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	// WebSocket event stream
	r.Get(s.wsCfg.Path, s.handleWebSocket)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Rule engine
		r.Route("/rules", func(r chi.Router) {
			r.Get("/", s.handleListRules)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetRule)
				r.Post("/enable", s.handleEnableRule)
				r.Post("/disable", s.handleDisableRule)
				r.Put("/priority", s.handleSetRulePriority)
				r.Get("/history", s.handleRuleHistory)
			})
		})
		r.Route("/groups/{name}", func(r chi.Router) {
			r.Get("/", s.handleGetGroup)
			r.Post("/enable", s.handleEnableGroup)
			r.Post("/disable", s.handleDisableGroup)
		})

		// Behavior trees
		r.Route("/trees", func(r chi.Router) {
			r.Get("/", s.handleListTrees)
			r.Route("/{name}", func(r chi.Router) {
				r.Get("/", s.handleGetTree)
				r.Get("/stats", s.handleTreeStats)
				r.Post("/pause", s.handlePauseTree)
				r.Post("/resume", s.handleResumeTree)
				r.Post("/reset", s.handleResetTree)
			})
		})

		// Scheduler
		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", s.handleListTasks)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetTask)
				r.Delete("/", s.handleCancelTask)
				r.Post("/enable", s.handleEnableTask)
				r.Post("/disable", s.handleDisableTask)
			})
		})
		r.Get("/scheduler/stats", s.handleSchedulerStats)

		// History
		r.Get("/history/sensors/{name}", s.handleSensorHistory)
	})

	return r
}
