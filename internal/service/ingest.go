package service

import (
	"context"
	"fmt"
	"time"

	"github.com/octobees/estate-pipeline/internal/dto"
	"github.com/octobees/estate-pipeline/internal/entity"
	"github.com/octobees/estate-pipeline/internal/repository"
)

// ValidationError indicates that a request payload is invalid.
type ValidationError struct {
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return e.Message
}

// IngestSummary reports how many listings were inserted, updated or skipped
// during a batch ingest.
type IngestSummary struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
	Total    int `json:"total"`
}

// IngestService accepts scraped listing batches from upstream scrapers and
// persists them idempotently.
type IngestService struct {
	repo repository.ListingsRepository
	now  func() time.Time
}

// NewIngestService creates a new instance of IngestService.
func NewIngestService(repo repository.ListingsRepository) *IngestService {
	return &IngestService{repo: repo, now: time.Now}
}

// IngestBatch validates, normalizes and bulk-upserts a batch of scraped
// listings. Rows without a URL, source or title are skipped and counted;
// an unrecognised source fails the whole batch.
func (s *IngestService) IngestBatch(ctx context.Context, req dto.IngestRequest) (IngestSummary, error) {
	if len(req.Listings) == 0 {
		return IngestSummary{}, ValidationError{Message: "listings payload is empty"}
	}

	var (
		listings []entity.Listing
		skipped  int
	)

	for i, raw := range req.Listings {
		if raw.URL == "" || raw.Title == "" {
			skipped++
			continue
		}
		source, ok := entity.ParseSource(raw.Source)
		if !ok {
			return IngestSummary{}, ValidationError{Message: fmt.Sprintf("unknown source %q on listing %d", raw.Source, i)}
		}

		amount, currency := entity.ExtractPrice(raw.Price)
		scrapedAt := raw.ScrapedAt
		if scrapedAt == nil {
			ts := s.now().UTC()
			scrapedAt = &ts
		}

		listings = append(listings, entity.Listing{
			Title:          raw.Title,
			PriceAmount:    amount,
			PriceCurrency:  currency,
			PriceOriginal:  raw.Price,
			Location:       raw.Location,
			Area:           raw.Area,
			Rooms:          raw.Rooms,
			URL:            raw.URL,
			Source:         source,
			Description:    raw.Description,
			ScrapedAt:      scrapedAt,
			ScraperVersion: raw.ScraperVersion,
		})
	}

	if len(listings) == 0 {
		return IngestSummary{Skipped: skipped}, ValidationError{Message: "no valid listings in payload"}
	}

	result, err := s.repo.BulkUpsert(ctx, listings)
	if err != nil {
		return IngestSummary{}, err
	}

	return IngestSummary{
		Inserted: result.Inserted,
		Updated:  result.Updated,
		Skipped:  skipped,
		Total:    result.Total + skipped,
	}, nil
}
