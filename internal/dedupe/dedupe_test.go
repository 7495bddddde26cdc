package dedupe

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/octobees/estate-pipeline/internal/entity"
	"github.com/octobees/estate-pipeline/internal/similarity"
)

// fixedScorer returns a constant score for every pair.
type fixedScorer struct {
	score float64
}

func (s fixedScorer) Score(a, b entity.Listing) float64 { return s.score }

func listing(title, url string, source entity.Source) entity.Listing {
	return entity.Listing{ID: uuid.New(), Title: title, URL: url, Source: source}
}

func TestPartitionEmptyInput(t *testing.T) {
	d := New(fixedScorer{score: 100}, nil)
	canonical, duplicates, err := d.Partition(context.Background(), nil, 75, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(canonical) != 0 || len(duplicates) != 0 {
		t.Fatalf("expected empty outputs, got %d canonical %d duplicates", len(canonical), len(duplicates))
	}
}

func TestPartitionSingleListing(t *testing.T) {
	d := New(fixedScorer{score: 100}, nil)
	input := []entity.Listing{listing("Kawalerka 25m2", "https://otodom.pl/1", entity.SourceOtodom)}
	canonical, duplicates, err := d.Partition(context.Background(), input, 75, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(canonical) != 1 || len(duplicates) != 0 {
		t.Fatalf("expected single canonical, got %d canonical %d duplicates", len(canonical), len(duplicates))
	}
}

func TestPartitionThresholdIsInclusive(t *testing.T) {
	d := New(fixedScorer{score: 75}, nil)
	input := []entity.Listing{
		listing("A", "https://otodom.pl/1", entity.SourceOtodom),
		listing("B", "https://olx.pl/1", entity.SourceOlx),
	}
	canonical, duplicates, err := d.Partition(context.Background(), input, 75, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(canonical) != 1 || len(duplicates) != 1 {
		t.Fatalf("expected score == threshold to classify as duplicate, got %d canonical %d duplicates", len(canonical), len(duplicates))
	}
	if duplicates[0].Score != 75 {
		t.Fatalf("expected recorded score 75, got %v", duplicates[0].Score)
	}
	if duplicates[0].CanonicalID != canonical[0].ID {
		t.Fatalf("expected duplicate to reference the canonical listing")
	}
}

func TestPartitionBelowThreshold(t *testing.T) {
	d := New(fixedScorer{score: 74.9}, nil)
	input := []entity.Listing{
		listing("A", "https://otodom.pl/1", entity.SourceOtodom),
		listing("B", "https://olx.pl/1", entity.SourceOlx),
	}
	canonical, duplicates, err := d.Partition(context.Background(), input, 75, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(canonical) != 2 || len(duplicates) != 0 {
		t.Fatalf("expected both listings canonical, got %d canonical %d duplicates", len(canonical), len(duplicates))
	}
}

func TestPartitionPriorityRespected(t *testing.T) {
	priority := []entity.Source{entity.SourceOtodom, entity.SourceOlx}
	d := New(fixedScorer{score: 100}, priority)

	otodom := listing("Mieszkanie Mokotów", "https://otodom.pl/1", entity.SourceOtodom)
	olx := listing("Mieszkanie Mokotów", "https://olx.pl/1", entity.SourceOlx)

	// Regardless of input order the canonical copy must come from otodom.
	for _, input := range [][]entity.Listing{
		{otodom, olx},
		{olx, otodom},
	} {
		canonical, duplicates, err := d.Partition(context.Background(), input, 75, true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(canonical) != 1 || len(duplicates) != 1 {
			t.Fatalf("expected one canonical and one duplicate, got %d/%d", len(canonical), len(duplicates))
		}
		if canonical[0].Source != entity.SourceOtodom {
			t.Fatalf("expected canonical source otodom, got %s", canonical[0].Source)
		}
		if duplicates[0].Listing.Source != entity.SourceOlx {
			t.Fatalf("expected duplicate source olx, got %s", duplicates[0].Listing.Source)
		}
	}
}

func TestPartitionFirstMatchWins(t *testing.T) {
	// Scores depend on titles so the second canonical would be the better
	// match, but the first one meeting the threshold must win.
	scorer := pairScorer{scores: map[string]float64{
		"first|dup":  80,
		"second|dup": 95,
	}}
	d := New(scorer, nil)

	first := listing("first", "https://otodom.pl/1", entity.SourceOtodom)
	second := listing("second", "https://otodom.pl/2", entity.SourceOtodom)
	dup := listing("dup", "https://olx.pl/1", entity.SourceOlx)

	_, duplicates, err := d.Partition(context.Background(), []entity.Listing{first, second, dup}, 75, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(duplicates) != 1 {
		t.Fatalf("expected one duplicate, got %d", len(duplicates))
	}
	if duplicates[0].CanonicalID != first.ID {
		t.Fatalf("expected first-match assignment to %q, got canonical %s", first.Title, duplicates[0].CanonicalID)
	}
	if duplicates[0].Score != 80 {
		t.Fatalf("expected recorded score 80, got %v", duplicates[0].Score)
	}
}

type pairScorer struct {
	scores map[string]float64
}

func (s pairScorer) Score(a, b entity.Listing) float64 {
	if score, ok := s.scores[a.Title+"|"+b.Title]; ok {
		return score
	}
	if score, ok := s.scores[b.Title+"|"+a.Title]; ok {
		return score
	}
	return 0
}

func TestPartitionCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := New(fixedScorer{score: 0}, nil)
	input := []entity.Listing{listing("A", "https://otodom.pl/1", entity.SourceOtodom)}
	_, _, err := d.Partition(ctx, input, 75, false)
	if err == nil {
		t.Fatalf("expected context cancellation error")
	}
}

func TestPartitionScenarioThreeListings(t *testing.T) {
	price := func(v float64) *float64 { return &v }

	a := entity.Listing{ID: uuid.New(), Title: "Apartment 3 rooms 65m2 Downtown", PriceAmount: price(850000), Area: "65 m2", Rooms: "3", URL: "https://a.example/1", Source: entity.SourceOtodom}
	b := entity.Listing{ID: uuid.New(), Title: "3-room flat 65m2 downtown", PriceAmount: price(850000), Area: "65m2", Rooms: "3", URL: "https://b.example/1", Source: entity.SourceOlx}
	c := entity.Listing{ID: uuid.New(), Title: "Studio 25m2 Uptown", PriceAmount: price(450000), Area: "25m2", Rooms: "1", URL: "https://a.example/2", Source: entity.SourceOtodom}

	d := New(similarity.NewScorer(), nil)
	canonical, duplicates, err := d.Partition(context.Background(), []entity.Listing{a, b, c}, 75, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(canonical) != 2 {
		t.Fatalf("expected 2 canonical listings, got %d", len(canonical))
	}
	if len(duplicates) != 1 {
		t.Fatalf("expected 1 duplicate, got %d", len(duplicates))
	}
	if duplicates[0].Listing.URL != b.URL {
		t.Fatalf("expected the olx copy to be the duplicate, got %s", duplicates[0].Listing.URL)
	}
}
