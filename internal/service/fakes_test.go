package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/octobees/estate-pipeline/internal/dto"
	"github.com/octobees/estate-pipeline/internal/entity"
	"github.com/octobees/estate-pipeline/internal/geocode"
	"github.com/octobees/estate-pipeline/internal/repository"
)

type fakeListingsRepo struct {
	listings   []entity.Listing
	upserted   []entity.Listing
	marked     map[uuid.UUID]uuid.UUID
	markErr    error
	clearErr   error
	upsertErr  error
	bulkResult repository.BulkUpsertResult
}

func (f *fakeListingsRepo) BulkUpsert(ctx context.Context, listings []entity.Listing) (repository.BulkUpsertResult, error) {
	if f.upsertErr != nil {
		return repository.BulkUpsertResult{}, f.upsertErr
	}
	f.upserted = append(f.upserted, listings...)
	if f.bulkResult.Total == 0 {
		return repository.BulkUpsertResult{Inserted: len(listings), Total: len(listings)}, nil
	}
	return f.bulkResult, nil
}

func (f *fakeListingsRepo) List(ctx context.Context, filter dto.ListFilter) ([]entity.Listing, error) {
	return f.listings, nil
}

func (f *fakeListingsRepo) ListPage(ctx context.Context, offset, limit int) ([]entity.Listing, error) {
	if offset >= len(f.listings) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.listings) {
		end = len(f.listings)
	}
	return f.listings[offset:end], nil
}

func (f *fakeListingsRepo) MarkDuplicate(ctx context.Context, id, canonicalID uuid.UUID, score float64) error {
	if f.markErr != nil {
		return f.markErr
	}
	if f.marked == nil {
		f.marked = make(map[uuid.UUID]uuid.UUID)
	}
	f.marked[id] = canonicalID
	return nil
}

func (f *fakeListingsRepo) ClearDuplicates(ctx context.Context) (int64, error) {
	if f.clearErr != nil {
		return 0, f.clearErr
	}
	return 0, nil
}

type fakeAddressesRepo struct {
	pending   []entity.StructuredAddress
	upserted  []entity.StructuredAddress
	coords    map[uuid.UUID][2]float64
	upsertErr error
	setErr    error
	limitSeen int
}

func (f *fakeAddressesRepo) UpsertForListing(ctx context.Context, address *entity.StructuredAddress) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	if address.ID == uuid.Nil {
		address.ID = uuid.New()
	}
	f.upserted = append(f.upserted, *address)
	return nil
}

func (f *fakeAddressesRepo) List(ctx context.Context, filter dto.AddressFilter) ([]entity.StructuredAddress, error) {
	return f.pending, nil
}

func (f *fakeAddressesRepo) ListMissingCoordinates(ctx context.Context, limit int) ([]entity.StructuredAddress, error) {
	f.limitSeen = limit
	return f.pending, nil
}

func (f *fakeAddressesRepo) SetCoordinates(ctx context.Context, id uuid.UUID, lat, lon float64) error {
	if f.setErr != nil {
		return f.setErr
	}
	if f.coords == nil {
		f.coords = make(map[uuid.UUID][2]float64)
	}
	f.coords[id] = [2]float64{lat, lon}
	return nil
}

type fakeResolver struct {
	results map[string]*geocode.Result
	err     error
	calls   int
}

func (f *fakeResolver) Resolve(ctx context.Context, addr entity.StructuredAddress) (*geocode.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if result, ok := f.results[addr.FullAddress]; ok {
		return result, nil
	}
	return nil, geocode.ErrNoMatch
}

func listingFixture(n int, source entity.Source, location string) entity.Listing {
	return entity.Listing{
		ID:       uuid.New(),
		Title:    fmt.Sprintf("Mieszkanie %d", n),
		URL:      fmt.Sprintf("https://%s.pl/oferta/%d", source, n),
		Source:   source,
		Location: location,
	}
}
