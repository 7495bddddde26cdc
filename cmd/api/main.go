package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/octobees/estate-pipeline/internal/config"
	"github.com/octobees/estate-pipeline/internal/database"
	"github.com/octobees/estate-pipeline/internal/dedupe"
	"github.com/octobees/estate-pipeline/internal/geocode"
	"github.com/octobees/estate-pipeline/internal/handler"
	middlewarepkg "github.com/octobees/estate-pipeline/internal/middleware"
	"github.com/octobees/estate-pipeline/internal/repository"
	"github.com/octobees/estate-pipeline/internal/router"
	"github.com/octobees/estate-pipeline/internal/service"
	"github.com/octobees/estate-pipeline/internal/similarity"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		log.Fatalf("failed to apply schema: %v", err)
	}

	listingsRepo := repository.NewPGXListingsRepository(pool)
	addressesRepo := repository.NewPGXAddressesRepository(pool)

	scorer := similarity.NewScorer()
	if cfg.TextScoringDisabled {
		scorer = similarity.NewNumericScorer()
	}
	deduplicator := dedupe.New(scorer, cfg.SourcePriority)

	resolver := geocode.NewResolver(geocode.NewClient(geocode.ClientConfig{
		BaseURL:    cfg.Geocode.BaseURL,
		UserAgent:  cfg.Geocode.UserAgent,
		MinDelay:   cfg.Geocode.MinDelay,
		MaxRetries: cfg.Geocode.MaxRetries,
	}), cfg.BoundingBox)

	catalogService := service.NewCatalogService(listingsRepo, addressesRepo)
	ingestService := service.NewIngestService(listingsRepo)
	dedupeService := service.NewDedupeService(listingsRepo, deduplicator, service.DedupeConfig{
		Threshold:         cfg.SimilarityThreshold,
		PrioritizeSources: true,
		PageSize:          cfg.ListingsPageSize,
	}, nil)
	addressService := service.NewAddressService(listingsRepo, addressesRepo, cfg.ListingsPageSize, nil)
	geocodeService := service.NewGeocodeService(addressesRepo, resolver, service.GeocodeConfig{
		BatchSize:    cfg.Geocode.BatchSize,
		MaxAddresses: cfg.Geocode.MaxAddresses,
		BatchPause:   cfg.Geocode.BatchPause,
	}, nil)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middlewarepkg.RequestID())
	e.Use(middlewarepkg.Logging())
	e.Use(echoMiddleware.Recover())

	router.Register(e, cfg, router.Handlers{
		Listings: handler.NewListingsHandler(catalogService),
		Ingest:   handler.NewIngestHandler(ingestService),
		Runs:     handler.NewRunsHandler(dedupeService, addressService, geocodeService),
	})

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- e.Start(":" + cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
		return
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
