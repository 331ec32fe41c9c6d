package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xavierca1/ligue-reviews/internal/config"
	"github.com/xavierca1/ligue-reviews/internal/infra/http/handlers"
	"github.com/xavierca1/ligue-reviews/internal/infra/http/middleware"
)

func newRouter(
	cfg *config.Config,
	backfill *handlers.BackfillHandler,
	health *handlers.HealthHandler,
	verifier middleware.SessionVerifier,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/health", health.Handle)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/integrations/square", func(r chi.Router) {
		r.Use(middleware.Session(verifier, cfg.Firebase.SessionCookie, logger))
		r.Post("/backfill", backfill.HandleRun)
		r.Get("/backfill", backfill.HandleLatest)
	})

	return r
}
