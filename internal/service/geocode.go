package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/octobees/estate-pipeline/internal/entity"
	"github.com/octobees/estate-pipeline/internal/geocode"
	"github.com/octobees/estate-pipeline/internal/repository"
)

// CoordinateResolver is the geocoding surface the service depends on.
type CoordinateResolver interface {
	Resolve(ctx context.Context, addr entity.StructuredAddress) (*geocode.Result, error)
}

// GeocodeConfig carries the tunables of a geocoding run.
type GeocodeConfig struct {
	BatchSize    int
	MaxAddresses int
	BatchPause   time.Duration
}

// GeocodeService drives batched coordinate resolution over the addresses
// still missing them.
type GeocodeService struct {
	addresses  repository.AddressesRepository
	resolver   CoordinateResolver
	batchSize  int
	maxRecords int
	batchPause time.Duration
	logger     *slog.Logger
}

// NewGeocodeService creates a new instance of GeocodeService.
func NewGeocodeService(addresses repository.AddressesRepository, resolver CoordinateResolver, cfg GeocodeConfig, logger *slog.Logger) *GeocodeService {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.BatchPause <= 0 {
		cfg.BatchPause = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GeocodeService{
		addresses:  addresses,
		resolver:   resolver,
		batchSize:  cfg.BatchSize,
		maxRecords: cfg.MaxAddresses,
		batchPause: cfg.BatchPause,
		logger:     logger,
	}
}

// Run fetches the addresses without coordinates and resolves them in batches,
// pausing between batches to stay polite towards the lookup service. A failed
// address never stops the run; every outcome lands in the returned stats.
func (s *GeocodeService) Run(ctx context.Context) (entity.BatchStats, error) {
	var stats entity.BatchStats

	pending, err := s.addresses.ListMissingCoordinates(ctx, s.maxRecords)
	if err != nil {
		return stats, fmt.Errorf("load addresses missing coordinates: %w", err)
	}
	if len(pending) == 0 {
		s.logger.Info("no addresses waiting for geocoding")
		return stats, nil
	}

	for start := 0; start < len(pending); start += s.batchSize {
		if start > 0 {
			if err := sleepContext(ctx, s.batchPause); err != nil {
				return stats, err
			}
		}

		end := start + s.batchSize
		if end > len(pending) {
			end = len(pending)
		}

		batch, err := s.resolveBatch(ctx, pending[start:end])
		stats.Add(batch)
		if err != nil {
			return stats, err
		}

		s.logger.Info("geocoding batch finished",
			"batch", start/s.batchSize+1,
			"processed", stats.Processed,
			"remaining", len(pending)-end,
		)
	}

	s.logger.Info("geocoding finished",
		"processed", stats.Processed,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
		"skipped", stats.Skipped,
		"fallback_successes", stats.FallbackSuccesses,
	)
	return stats, nil
}

func (s *GeocodeService) resolveBatch(ctx context.Context, batch []entity.StructuredAddress) (entity.BatchStats, error) {
	var stats entity.BatchStats

	for _, addr := range batch {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Processed++

		if addr.HasCoordinates() {
			stats.Skipped++
			continue
		}
		if addr.ID == uuid.Nil {
			// Row violates the storage contract; count it, do not
			// let it vanish silently.
			stats.Skipped++
			s.logger.Warn("address without id skipped", "full_address", addr.FullAddress)
			continue
		}

		result, err := s.resolver.Resolve(ctx, addr)
		if err != nil {
			if errors.Is(err, geocode.ErrNoMatch) || errors.Is(err, geocode.ErrAddressTooSparse) {
				stats.Failed++
				continue
			}
			if ctx.Err() != nil {
				return stats, err
			}
			stats.Failed++
			s.logger.Error("resolve address", "full_address", addr.FullAddress, "error", err)
			continue
		}

		if err := s.addresses.SetCoordinates(ctx, addr.ID, result.Latitude, result.Longitude); err != nil {
			stats.Failed++
			s.logger.Error("store coordinates", "full_address", addr.FullAddress, "error", err)
			continue
		}

		stats.Succeeded++
		if result.ViaFallback {
			stats.FallbackSuccesses++
		}
	}

	return stats, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
