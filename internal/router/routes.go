package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/octobees/estate-pipeline/internal/config"
	"github.com/octobees/estate-pipeline/internal/handler"
	middlewarepkg "github.com/octobees/estate-pipeline/internal/middleware"
)

// Handlers aggregates HTTP handlers used by the router.
type Handlers struct {
	Listings *handler.ListingsHandler
	Ingest   *handler.IngestHandler
	Runs     *handler.RunsHandler
}

// Register wires all HTTP routes for the API.
func Register(e *echo.Echo, cfg *config.Config, handlers Handlers) {
	e.GET("/healthz", func(c echo.Context) error {
		return handler.Success(c, http.StatusOK, "service healthy", map[string]any{"status": "ok"})
	})

	e.GET("/listings", handlers.Listings.List)
	e.GET("/addresses", handlers.Listings.ListAddresses)
	e.POST("/ingest", handlers.Ingest.Ingest)

	runs := e.Group("/runs", middlewarepkg.RunRateLimiter(cfg.RateLimitRuns))
	runs.POST("/dedupe", handlers.Runs.Dedupe)
	runs.POST("/addresses", handlers.Runs.Addresses)
	runs.POST("/geocode", handlers.Runs.Geocode)
}
