package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/octobees/estate-pipeline/internal/entity"
	"github.com/octobees/estate-pipeline/internal/geocode"
)

func pendingAddress(fullAddress string) entity.StructuredAddress {
	return entity.StructuredAddress{
		ID:          uuid.New(),
		ListingID:   uuid.New(),
		FullAddress: fullAddress,
		City:        "Warszawa",
	}
}

func newGeocodeService(addresses *fakeAddressesRepo, resolver *fakeResolver) *GeocodeService {
	return NewGeocodeService(addresses, resolver, GeocodeConfig{
		BatchSize:  2,
		BatchPause: time.Millisecond,
	}, nil)
}

func TestGeocodeRunResolvesPending(t *testing.T) {
	addresses := &fakeAddressesRepo{pending: []entity.StructuredAddress{
		pendingAddress("Warszawa, Mokotów"),
		pendingAddress("Kraków, Podgórze"),
		pendingAddress("Nigdzie"),
	}}
	resolver := &fakeResolver{results: map[string]*geocode.Result{
		"Warszawa, Mokotów": {Latitude: 52.19, Longitude: 21.02},
		"Kraków, Podgórze":  {Latitude: 50.04, Longitude: 19.95, ViaFallback: true},
	}}

	stats, err := newGeocodeService(addresses, resolver).Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Processed != 3 || stats.Succeeded != 2 || stats.Failed != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.FallbackSuccesses != 1 {
		t.Errorf("fallback successes = %d, want 1", stats.FallbackSuccesses)
	}
	if len(addresses.coords) != 2 {
		t.Fatalf("expected 2 coordinate writes, got %d", len(addresses.coords))
	}

	got := addresses.coords[addresses.pending[0].ID]
	if got[0] != 52.19 || got[1] != 21.02 {
		t.Errorf("coords = %v, want 52.19/21.02", got)
	}
}

func TestGeocodeRunSkipsResolvedAndContractViolations(t *testing.T) {
	withCoords := pendingAddress("Gdańsk")
	lat, lon := 54.35, 18.65
	withCoords.Latitude = &lat
	withCoords.Longitude = &lon

	noID := entity.StructuredAddress{FullAddress: "Łódź"}

	addresses := &fakeAddressesRepo{pending: []entity.StructuredAddress{withCoords, noID}}
	resolver := &fakeResolver{}

	stats, err := newGeocodeService(addresses, resolver).Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Processed != 2 || stats.Skipped != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if resolver.calls != 0 {
		t.Errorf("resolver calls = %d, want 0", resolver.calls)
	}
}

func TestGeocodeRunNothingPending(t *testing.T) {
	stats, err := newGeocodeService(&fakeAddressesRepo{}, &fakeResolver{}).Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Processed != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestGeocodeRunStorageFailureCounted(t *testing.T) {
	addresses := &fakeAddressesRepo{
		pending: []entity.StructuredAddress{pendingAddress("Warszawa")},
		setErr:  errors.New("boom"),
	}
	resolver := &fakeResolver{results: map[string]*geocode.Result{
		"Warszawa": {Latitude: 52.23, Longitude: 21.01},
	}}

	stats, err := newGeocodeService(addresses, resolver).Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Failed != 1 || stats.Succeeded != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestGeocodeRunHonoursMaxAddresses(t *testing.T) {
	addresses := &fakeAddressesRepo{}
	svc := NewGeocodeService(addresses, &fakeResolver{}, GeocodeConfig{MaxAddresses: 200}, nil)

	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if addresses.limitSeen != 200 {
		t.Fatalf("limit = %d, want 200", addresses.limitSeen)
	}
}

func TestGeocodeRunCancelledDuringPause(t *testing.T) {
	addresses := &fakeAddressesRepo{pending: []entity.StructuredAddress{
		pendingAddress("Warszawa"),
		pendingAddress("Kraków"),
		pendingAddress("Gdańsk"),
	}}
	svc := NewGeocodeService(addresses, &fakeResolver{}, GeocodeConfig{
		BatchSize:  2,
		BatchPause: time.Hour,
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	stats, err := svc.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if stats.Processed != 2 {
		t.Fatalf("expected first batch processed before pause, got %+v", stats)
	}
}
