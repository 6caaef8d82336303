package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ecomlens/internal/middleware"
)

// RouterDeps carries everything the router mounts.
type RouterDeps struct {
	Runs    *RunHandler
	Health  *HealthHandler
	WS      *WSHandler
	Logger  *slog.Logger
	RateRPS float64
}

// NewRouter builds the chi router with the standard middleware chain.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.StructuredLogger(deps.Logger))
	r.Use(middleware.Recoverer(deps.Logger))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Compress(5))

	if deps.RateRPS > 0 {
		limiter := middleware.NewRateLimiter(deps.RateRPS, int(deps.RateRPS)*2, deps.Logger)
		r.Use(limiter.Handler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", deps.Health.HealthCheck)
		r.Get("/health/ready", deps.Health.ReadinessCheck)
		r.Get("/health/live", deps.Health.LivenessCheck)
		r.Get("/version", deps.Health.Version)

		r.Route("/runs", func(r chi.Router) {
			r.Post("/", deps.Runs.StartRun)
			r.Get("/", deps.Runs.ListRuns)
			r.Get("/{id}", deps.Runs.GetRun)
			r.Post("/{id}/checkpoint", deps.Runs.SubmitDecision)
		})
	})

	r.Get("/ws", deps.WS.ServeWS)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
