package geocode

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/octobees/estate-pipeline/internal/entity"
)

var (
	// ErrNoMatch is returned when neither the primary nor the fallback
	// query produced a candidate inside the bounding box.
	ErrNoMatch = errors.New("geocode: no match")

	// ErrAddressTooSparse is returned when an address carries too little
	// information to build a meaningful query. No request is issued.
	ErrAddressTooSparse = errors.New("geocode: address too sparse")
)

var streetPrefixPattern = regexp.MustCompile(`(?i)\b(?:ul|al|pl|os)\.\s*`)

// Known truncation artifacts from upstream scrapers: the scraped location
// carries only the tail of a two-word city name.
var defaultCityFixes = map[string]string{
	"Gdański": "Pruszcz Gdański",
}

// SearchClient is the lookup surface the resolver depends on.
type SearchClient interface {
	Search(ctx context.Context, query string) (*Candidate, error)
}

// Result is a validated coordinate pair for one address.
type Result struct {
	Latitude    float64
	Longitude   float64
	ViaFallback bool
}

// Resolver turns structured addresses into queries, validates candidates
// against a bounding box and falls back to a city-level query when the full
// address finds nothing.
type Resolver struct {
	client        SearchClient
	box           entity.BoundingBox
	countrySuffix string
	cityFixes     map[string]string
}

// NewResolver builds a resolver validating against the given bounding box.
func NewResolver(client SearchClient, box entity.BoundingBox) *Resolver {
	return &Resolver{
		client:        client,
		box:           box,
		countrySuffix: "Polska",
		cityFixes:     defaultCityFixes,
	}
}

// BuildPrimaryQuery assembles the most specific query the address supports:
// street without its prefix, district (or sub-district), corrected city,
// province and the country name.
func (r *Resolver) BuildPrimaryQuery(addr entity.StructuredAddress) string {
	var parts []string

	if street := strings.TrimSpace(streetPrefixPattern.ReplaceAllString(addr.StreetName, "")); street != "" {
		parts = append(parts, street)
	}
	if addr.District != "" {
		parts = append(parts, addr.District)
	} else if addr.SubDistrict != "" {
		parts = append(parts, addr.SubDistrict)
	}
	if city := r.fixCity(addr.City); city != "" {
		parts = append(parts, city)
	}
	if addr.Province != "" {
		parts = append(parts, addr.Province)
	}
	parts = append(parts, r.countrySuffix)

	return strings.Join(parts, ", ")
}

// BuildFallbackQuery assembles the coarse city-level query. Empty when the
// address has no city.
func (r *Resolver) BuildFallbackQuery(addr entity.StructuredAddress) string {
	city := r.fixCity(addr.City)
	if city == "" {
		return ""
	}
	return city + ", " + r.countrySuffix
}

// Resolve runs the primary query and, when it yields no candidate inside the
// bounding box, the fallback query. A candidate outside the box counts as no
// match. Returns ErrAddressTooSparse without touching the network when the
// primary query reduces to the country name alone.
func (r *Resolver) Resolve(ctx context.Context, addr entity.StructuredAddress) (*Result, error) {
	primary := r.BuildPrimaryQuery(addr)
	if primary == r.countrySuffix {
		return nil, ErrAddressTooSparse
	}

	candidate, err := r.client.Search(ctx, primary)
	if err != nil && ctx.Err() != nil {
		return nil, err
	}
	if err == nil && candidate != nil && r.box.Contains(candidate.Latitude, candidate.Longitude) {
		return &Result{Latitude: candidate.Latitude, Longitude: candidate.Longitude}, nil
	}

	fallback := r.BuildFallbackQuery(addr)
	if fallback == "" || fallback == primary {
		return nil, ErrNoMatch
	}

	candidate, err = r.client.Search(ctx, fallback)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, ErrNoMatch
	}
	if candidate != nil && r.box.Contains(candidate.Latitude, candidate.Longitude) {
		return &Result{Latitude: candidate.Latitude, Longitude: candidate.Longitude, ViaFallback: true}, nil
	}

	return nil, ErrNoMatch
}

func (r *Resolver) fixCity(city string) string {
	if fixed, ok := r.cityFixes[city]; ok {
		return fixed
	}
	return city
}
