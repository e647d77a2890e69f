package serverhttp

import (
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"sku-recon/internal/config"
	"sku-recon/internal/middleware"
	recHnd "sku-recon/internal/reconcile/handler"
	"sku-recon/internal/reconcile/tables"
	"sku-recon/server/http/handlers"
)

func NewRouter(cfg config.Config, logger zerolog.Logger, tb *tables.Tables) *chi.Mux {
	r := chi.NewRouter()

	// order matters: recover -> request id -> logging -> cors -> limit
	r.Use(middleware.Recover(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(cfg.AllowOrigins))
	r.Use(middleware.LimitBytes(cfg.MaxUploadBytes()))

	r.Get("/health", handlers.Health)
	r.Get("/tables", recHnd.Tables(logger, tb))
	r.Post("/reconcile", recHnd.Reconcile(cfg, logger, tb))

	return r
}
