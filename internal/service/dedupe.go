package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/octobees/estate-pipeline/internal/dedupe"
	"github.com/octobees/estate-pipeline/internal/entity"
	"github.com/octobees/estate-pipeline/internal/repository"
)

// DedupeService walks the whole listings table and records cross-source
// duplicate linkage.
type DedupeService struct {
	repo         repository.ListingsRepository
	deduplicator *dedupe.Deduplicator
	threshold    float64
	prioritize   bool
	pageSize     int
	logger       *slog.Logger
}

// DedupeConfig carries the tunables of a deduplication run.
type DedupeConfig struct {
	Threshold         float64
	PrioritizeSources bool
	PageSize          int
}

// NewDedupeService creates a new instance of DedupeService.
func NewDedupeService(repo repository.ListingsRepository, deduplicator *dedupe.Deduplicator, cfg DedupeConfig, logger *slog.Logger) *DedupeService {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 75.0
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 1000
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DedupeService{
		repo:         repo,
		deduplicator: deduplicator,
		threshold:    cfg.Threshold,
		prioritize:   cfg.PrioritizeSources,
		pageSize:     cfg.PageSize,
		logger:       logger,
	}
}

// Run clears previous duplicate marks, loads every listing and writes back
// the duplicate linkage found for the current state of the table.
func (s *DedupeService) Run(ctx context.Context) (entity.BatchStats, error) {
	var stats entity.BatchStats

	cleared, err := s.repo.ClearDuplicates(ctx)
	if err != nil {
		return stats, fmt.Errorf("reset duplicate marks: %w", err)
	}
	if cleared > 0 {
		s.logger.Info("cleared previous duplicate marks", "count", cleared)
	}

	listings, err := s.loadAll(ctx)
	if err != nil {
		return stats, err
	}
	stats.Processed = len(listings)
	if len(listings) == 0 {
		return stats, nil
	}

	canonical, duplicates, err := s.deduplicator.Partition(ctx, listings, s.threshold, s.prioritize)
	if err != nil {
		return stats, err
	}
	stats.Skipped = len(canonical)

	for _, dup := range duplicates {
		if err := s.repo.MarkDuplicate(ctx, dup.Listing.ID, dup.CanonicalID, dup.Score); err != nil {
			stats.Failed++
			s.logger.Error("mark duplicate", "listing", dup.Listing.URL, "error", err)
			continue
		}
		stats.Succeeded++
	}

	s.logger.Info("deduplication finished",
		"processed", stats.Processed,
		"duplicates", stats.Succeeded,
		"canonical", stats.Skipped,
		"failed", stats.Failed,
	)
	return stats, nil
}

func (s *DedupeService) loadAll(ctx context.Context) ([]entity.Listing, error) {
	var all []entity.Listing
	for offset := 0; ; offset += s.pageSize {
		page, err := s.repo.ListPage(ctx, offset, s.pageSize)
		if err != nil {
			return nil, fmt.Errorf("load listings page at offset %d: %w", offset, err)
		}
		all = append(all, page...)
		if len(page) < s.pageSize {
			return all, nil
		}
	}
}
