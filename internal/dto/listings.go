package dto

import "time"

// ListFilter captures the supported query parameters for listing listings.
type ListFilter struct {
	Q          string
	Source     string
	MinPrice   *float64
	MaxPrice   *float64
	Duplicates string // "", "only" or "exclude"
	Sort       string
	Page       int
	PerPage    int
	Limit      int
}

// IngestListing is one scraped listing as delivered by an upstream scraper.
type IngestListing struct {
	Title          string     `json:"title"`
	Price          string     `json:"price"`
	Location       string     `json:"location"`
	Area           string     `json:"area"`
	Rooms          string     `json:"rooms"`
	URL            string     `json:"url"`
	Source         string     `json:"source"`
	Description    string     `json:"description"`
	ScrapedAt      *time.Time `json:"scraped_at,omitempty"`
	ScraperVersion string     `json:"scraper_version,omitempty"`
}

// IngestRequest is the batch payload accepted by the ingest endpoint.
type IngestRequest struct {
	Listings []IngestListing `json:"listings"`
}

// AddressFilter captures the supported query parameters for listing addresses.
type AddressFilter struct {
	City          string
	MissingCoords bool
	Page          int
	PerPage       int
}
