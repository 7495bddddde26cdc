package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/lmittmann/tint"

	"github.com/octobees/estate-pipeline/internal/config"
	"github.com/octobees/estate-pipeline/internal/database"
	"github.com/octobees/estate-pipeline/internal/dedupe"
	"github.com/octobees/estate-pipeline/internal/entity"
	"github.com/octobees/estate-pipeline/internal/geocode"
	"github.com/octobees/estate-pipeline/internal/repository"
	"github.com/octobees/estate-pipeline/internal/service"
	"github.com/octobees/estate-pipeline/internal/similarity"
)

func main() {
	stage := flag.String("stage", "all", "pipeline stage to run: dedupe, addresses, geocode or all")
	flag.Parse()

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: time.TimeOnly,
	}))
	slog.SetDefault(logger)

	if err := run(*stage, logger); err != nil {
		logger.Error("pipeline run failed", "error", err)
		os.Exit(1)
	}
}

func run(stage string, logger *slog.Logger) error {
	switch stage {
	case "dedupe", "addresses", "geocode", "all":
	default:
		return fmt.Errorf("unknown stage %q", stage)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	connectCtx, connectCancel := context.WithTimeout(ctx, 10*time.Second)
	defer connectCancel()

	pool, err := database.Connect(connectCtx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if err := database.Migrate(connectCtx, pool); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	listingsRepo := repository.NewPGXListingsRepository(pool)
	addressesRepo := repository.NewPGXAddressesRepository(pool)

	scorer := similarity.NewScorer()
	if cfg.TextScoringDisabled {
		scorer = similarity.NewNumericScorer()
		logger.Warn("text scoring disabled, numeric comparison only")
	}

	stages := map[string]func(context.Context) (entity.BatchStats, error){
		"dedupe": service.NewDedupeService(listingsRepo, dedupe.New(scorer, cfg.SourcePriority), service.DedupeConfig{
			Threshold:         cfg.SimilarityThreshold,
			PrioritizeSources: true,
			PageSize:          cfg.ListingsPageSize,
		}, logger).Run,
		"addresses": service.NewAddressService(listingsRepo, addressesRepo, cfg.ListingsPageSize, logger).Run,
		"geocode": service.NewGeocodeService(addressesRepo, geocode.NewResolver(geocode.NewClient(geocode.ClientConfig{
			BaseURL:    cfg.Geocode.BaseURL,
			UserAgent:  cfg.Geocode.UserAgent,
			MinDelay:   cfg.Geocode.MinDelay,
			MaxRetries: cfg.Geocode.MaxRetries,
		}), cfg.BoundingBox), service.GeocodeConfig{
			BatchSize:    cfg.Geocode.BatchSize,
			MaxAddresses: cfg.Geocode.MaxAddresses,
			BatchPause:   cfg.Geocode.BatchPause,
		}, logger).Run,
	}

	order := []string{"dedupe", "addresses", "geocode"}
	if stage != "all" {
		order = []string{stage}
	}

	var total entity.BatchStats
	for _, name := range order {
		logger.Info("stage starting", "stage", name)
		stats, err := stages[name](ctx)
		total.Add(stats)
		if err != nil {
			return fmt.Errorf("stage %s: %w", name, err)
		}
		logger.Info("stage finished", "stage", name,
			"processed", stats.Processed,
			"succeeded", stats.Succeeded,
			"failed", stats.Failed,
			"skipped", stats.Skipped,
		)
	}

	logger.Info("pipeline finished",
		"processed", total.Processed,
		"succeeded", total.Succeeded,
		"failed", total.Failed,
		"skipped", total.Skipped,
		"fallback_successes", total.FallbackSuccesses,
	)
	return nil
}
