package entity

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Listing represents a single scraped offer. Numeric fields arrive as free
// text from the fetch layer and are parsed lazily; a listing is either
// canonical or a duplicate of exactly one canonical listing, never both.
type Listing struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	PriceAmount     *float64   `json:"price,omitempty"`
	PriceCurrency   string     `json:"price_currency,omitempty"`
	PriceOriginal   string     `json:"price_original,omitempty"`
	Location        string     `json:"location,omitempty"`
	Area            string     `json:"area,omitempty"`
	Rooms           string     `json:"rooms,omitempty"`
	URL             string     `json:"url"`
	Source          Source     `json:"source"`
	Description     string     `json:"description,omitempty"`
	SimilarityScore *float64   `json:"similarity_score,omitempty"`
	DuplicateOf     *uuid.UUID `json:"duplicate_of,omitempty"`
	ScrapedAt       *time.Time `json:"scraped_at,omitempty"`
	ScraperVersion  string     `json:"scraper_version,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

var (
	pricePattern    = regexp.MustCompile(`(\d+(?:[ \x{00a0}]\d{3})*(?:,\d{1,2})?)`)
	currencyPattern = regexp.MustCompile(`(zł|PLN|€|EUR|\$|USD)`)
	areaPattern     = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*m`)
	roomsPattern    = regexp.MustCompile(`(\d+)`)
)

// ExtractPrice parses a raw price string such as "850 000 zł" into an amount
// and a currency tag. The amount is nil when no number could be found.
func ExtractPrice(raw string) (*float64, string) {
	cleaned := strings.Join(strings.Fields(raw), " ")
	if cleaned == "" {
		return nil, ""
	}

	currency := "zł"
	if match := currencyPattern.FindString(cleaned); match != "" {
		currency = match
	}

	match := pricePattern.FindString(cleaned)
	if match == "" {
		return nil, currency
	}
	normalized := strings.NewReplacer(" ", "", " ", "", ",", ".").Replace(match)
	value, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return nil, currency
	}
	return &value, currency
}

// PriceValue reports the listing price, preferring the already parsed amount
// over the raw text.
func (l Listing) PriceValue() (float64, bool) {
	if l.PriceAmount != nil {
		return *l.PriceAmount, true
	}
	value, _ := ExtractPrice(l.PriceOriginal)
	if value == nil {
		return 0, false
	}
	return *value, true
}

// AreaValue parses the free-text area field ("65 m²", "65m2") into square
// metres.
func (l Listing) AreaValue() (float64, bool) {
	match := areaPattern.FindStringSubmatch(l.Area)
	if match == nil {
		return 0, false
	}
	value, err := strconv.ParseFloat(strings.ReplaceAll(match[1], ",", "."), 64)
	if err != nil || value <= 0 {
		return 0, false
	}
	return value, true
}

// RoomsCount parses the free-text rooms field ("3 pokoje", "3 pok", "3") into
// a room count. The Polish word for a studio flat counts as a single room.
func (l Listing) RoomsCount() (int, bool) {
	text := strings.ToLower(strings.TrimSpace(l.Rooms))
	if text == "" {
		return 0, false
	}
	if strings.Contains(text, "kawalerka") {
		return 1, true
	}
	match := roomsPattern.FindStringSubmatch(text)
	if match == nil {
		return 0, false
	}
	count, err := strconv.Atoi(match[1])
	if err != nil || count <= 0 {
		return 0, false
	}
	return count, true
}
