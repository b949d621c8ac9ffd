package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures the router. allowedOrigins is the CORS allowlist for
// the merchant dashboard.
func SetupRoutes(h *Handlers, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Get("/benchmark/{merchantID}", h.HandleBenchmark)
		r.Get("/discovery/{merchantID}", h.HandleDiscovery)
		r.Get("/strategies/{merchantID}", h.HandleStrategies)

		r.Post("/feedback", h.HandleFeedback)
		r.Get("/feedback/drift", h.HandleDrift)
		r.Get("/feedback/accuracy", h.HandleAccuracy)

		r.Post("/merchants/{merchantID}/invalidate", h.HandleInvalidate)

		r.Route("/rules", func(r chi.Router) {
			r.Get("/", h.HandleListRules)
			r.Post("/", h.HandleCreateRule)
			r.Patch("/{ruleID}/active", h.HandleSetRuleActive)
			r.Delete("/{ruleID}", h.HandleDeleteRule)
		})
	})

	return r
}
