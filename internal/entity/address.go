package entity

import (
	"time"

	"github.com/google/uuid"
)

// StructuredAddress holds the hierarchical decomposition of one listing's
// free-text location. All component fields are optional; coordinates are
// either both present or both absent.
type StructuredAddress struct {
	ID          uuid.UUID `json:"id"`
	ListingID   uuid.UUID `json:"listing_id"`
	FullAddress string    `json:"full_address"`
	StreetName  string    `json:"street_name,omitempty"`
	District    string    `json:"district,omitempty"`
	SubDistrict string    `json:"sub_district,omitempty"`
	City        string    `json:"city,omitempty"`
	Province    string    `json:"province,omitempty"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HasCoordinates reports whether the address already carries a full
// coordinate pair.
func (a StructuredAddress) HasCoordinates() bool {
	return a.Latitude != nil && a.Longitude != nil
}

// BoundingBox is a rectangular lat/lon range used to validate that geocoding
// results fall within the expected country.
type BoundingBox struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// PolandBoundingBox covers the national territory used for default result
// validation.
var PolandBoundingBox = BoundingBox{MinLat: 49.0, MaxLat: 54.9, MinLon: 14.1, MaxLon: 24.2}

// Contains reports whether the coordinate pair lies within the box.
func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}
