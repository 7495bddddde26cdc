package service

import (
	"context"

	"github.com/octobees/estate-pipeline/internal/dto"
	"github.com/octobees/estate-pipeline/internal/entity"
	"github.com/octobees/estate-pipeline/internal/repository"
)

// CatalogService exposes read operations over the listing catalogue and its
// structured addresses.
type CatalogService struct {
	listings  repository.ListingsRepository
	addresses repository.AddressesRepository
}

// NewCatalogService creates a new instance of CatalogService.
func NewCatalogService(listings repository.ListingsRepository, addresses repository.AddressesRepository) *CatalogService {
	return &CatalogService{listings: listings, addresses: addresses}
}

// ListListings returns listings respecting pagination defaults.
func (s *CatalogService) ListListings(ctx context.Context, filter dto.ListFilter) ([]entity.Listing, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 20
	}
	if filter.PerPage > 100 {
		filter.PerPage = 100
	}
	return s.listings.List(ctx, filter)
}

// ListAddresses returns structured addresses respecting pagination defaults.
func (s *CatalogService) ListAddresses(ctx context.Context, filter dto.AddressFilter) ([]entity.StructuredAddress, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 20
	}
	if filter.PerPage > 100 {
		filter.PerPage = 100
	}
	return s.addresses.List(ctx, filter)
}
