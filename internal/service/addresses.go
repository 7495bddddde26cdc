package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/octobees/estate-pipeline/internal/address"
	"github.com/octobees/estate-pipeline/internal/entity"
	"github.com/octobees/estate-pipeline/internal/repository"
)

// AddressService decomposes the free-text location of every listing into a
// structured address row.
type AddressService struct {
	listings  repository.ListingsRepository
	addresses repository.AddressesRepository
	parse     func(string) entity.StructuredAddress
	pageSize  int
	logger    *slog.Logger
}

// NewAddressService creates a new instance of AddressService.
func NewAddressService(listings repository.ListingsRepository, addresses repository.AddressesRepository, pageSize int, logger *slog.Logger) *AddressService {
	if pageSize <= 0 {
		pageSize = 1000
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AddressService{
		listings:  listings,
		addresses: addresses,
		parse:     address.Parse,
		pageSize:  pageSize,
		logger:    logger,
	}
}

// Run parses the location of every listing and upserts the result. Listings
// without a location are skipped; a failed upsert does not stop the run.
func (s *AddressService) Run(ctx context.Context) (entity.BatchStats, error) {
	var stats entity.BatchStats

	for offset := 0; ; offset += s.pageSize {
		page, err := s.listings.ListPage(ctx, offset, s.pageSize)
		if err != nil {
			return stats, fmt.Errorf("load listings page at offset %d: %w", offset, err)
		}

		for _, listing := range page {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			stats.Processed++

			if listing.Location == "" {
				stats.Skipped++
				continue
			}

			parsed := s.parse(listing.Location)
			parsed.ListingID = listing.ID

			if err := s.addresses.UpsertForListing(ctx, &parsed); err != nil {
				stats.Failed++
				s.logger.Error("upsert address", "listing", listing.URL, "error", err)
				continue
			}
			stats.Succeeded++
		}

		if len(page) < s.pageSize {
			break
		}
	}

	s.logger.Info("address decomposition finished",
		"processed", stats.Processed,
		"succeeded", stats.Succeeded,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
	)
	return stats, nil
}
