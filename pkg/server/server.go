package server

import (
	"net/http"

	handlers "github.com/de-tools/cur-atlas/pkg/handlers/cur"
	curatlasmiddleware "github.com/de-tools/cur-atlas/pkg/server/middleware"
	"github.com/de-tools/cur-atlas/pkg/services/cost"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

type Dependencies struct {
	Executor *cost.Executor
	Enricher *cost.Enricher
	Logger   zerolog.Logger
}

type Config struct {
	Dependencies Dependencies
}

func ConfigureRouter(config Config) http.Handler {
	curHandler := handlers.NewHandler(config.Dependencies.Executor, config.Dependencies.Enricher)

	router := chi.NewRouter()
	router.Use(curatlasmiddleware.Logger(&config.Dependencies.Logger))
	router.Use(middleware.Recoverer)

	router.Route("/api/v1/cur", func(r chi.Router) {
		r.Get("/health", curHandler.Health)
		r.Get("/rows", curHandler.GetAllRows)
		r.Get("/region/{regionCode}", curHandler.GetRowsByRegion)
		r.Get("/costs/region/{regionCode}", curHandler.Get30DayCosts)
		r.Get("/costs/region/{regionCode}/total", curHandler.GetTotalCost)
		r.Get("/costs/region/{regionCode}/summary", curHandler.GetCostSummary)
		r.Get("/resources/cost-discount", curHandler.GetResourceCostDiscounts)
	})

	return router
}
