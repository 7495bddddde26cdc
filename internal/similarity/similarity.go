// Package similarity computes a 0-100 similarity score between two listings
// from weighted per-field comparisons. Fields missing on either side simply do
// not contribute; the weights are renormalized over the contributing subset so
// that two records missing a price still compare meaningfully on the rest.
package similarity

import (
	"math"
	"regexp"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/octobees/estate-pipeline/internal/entity"
)

const (
	weightTitle    = 0.40
	weightPrice    = 0.25
	weightArea     = 0.15
	weightRooms    = 0.10
	weightLocation = 0.10
)

// Domain filler terms that carry no discriminating signal between listings of
// the same flat published on different portals.
var stopWords = map[string]struct{}{
	"mieszkanie": {},
	"apartament": {},
	"sprzedam":   {},
	"sprzedaz":   {},
	"sprzedaż":   {},
	"wynajem":    {},
	"pokojowe":   {},
	"pokoje":     {},
	"pokoj":      {},
	"pokój":      {},
	"pok":        {},
	"na":         {},
	"do":         {},
	"apartment":  {},
	"flat":       {},
	"for":        {},
	"sale":       {},
	"rooms":      {},
	"room":       {},
}

var nonWordPattern = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)

// Scorer compares pairs of listings. The zero value is not usable; construct
// one with NewScorer or NewNumericScorer.
type Scorer struct {
	tokenSortRatio func(a, b string) int
	partialRatio   func(a, b string) int
}

// NewScorer builds a scorer backed by fuzzy string matching for the title and
// location fields.
func NewScorer() *Scorer {
	return &Scorer{
		// TokenSortRatio takes variadic options; pin it to the two-argument form.
		tokenSortRatio: func(a, b string) int { return fuzzy.TokenSortRatio(a, b) },
		partialRatio:   fuzzy.PartialRatio,
	}
}

// NewNumericScorer builds a degraded scorer that compares price, area and room
// count only. It never fails on garbled text; it just scores with lower
// fidelity.
func NewNumericScorer() *Scorer {
	return &Scorer{}
}

// Score returns the weighted similarity of two listings in [0,100]. It is a
// pure function and commutative: Score(a,b) == Score(b,a).
func (s *Scorer) Score(a, b entity.Listing) float64 {
	var weighted, total float64

	if s.tokenSortRatio != nil {
		titleA, titleB := normalizeTitle(a.Title), normalizeTitle(b.Title)
		if titleA != "" && titleB != "" {
			weighted += weightTitle * float64(s.tokenSortRatio(titleA, titleB))
			total += weightTitle
		}

		locA := strings.ToLower(strings.TrimSpace(a.Location))
		locB := strings.ToLower(strings.TrimSpace(b.Location))
		if locA != "" && locB != "" {
			weighted += weightLocation * float64(s.partialRatio(locA, locB))
			total += weightLocation
		}
	}

	if priceA, okA := a.PriceValue(); okA {
		if priceB, okB := b.PriceValue(); okB {
			weighted += weightPrice * relativeCloseness(priceA, priceB, 1)
			total += weightPrice
		}
	}

	if areaA, okA := a.AreaValue(); okA {
		if areaB, okB := b.AreaValue(); okB {
			// Areas are rounded differently across portals, so the
			// penalty is halved relative to price.
			weighted += weightArea * relativeCloseness(areaA, areaB, 0.5)
			total += weightArea
		}
	}

	if roomsA, okA := a.RoomsCount(); okA {
		if roomsB, okB := b.RoomsCount(); okB {
			if roomsA == roomsB {
				weighted += weightRooms * 100
			}
			total += weightRooms
		}
	}

	if total == 0 {
		return 0
	}
	return clampScore(weighted / total)
}

// relativeCloseness maps the relative difference of two positive values onto
// [0,100], with penalty scaling the severity of the difference.
func relativeCloseness(a, b, penalty float64) float64 {
	if a == b {
		return 100
	}
	larger := math.Max(a, b)
	if larger <= 0 {
		return 0
	}
	diff := math.Abs(a-b) / larger
	return 100 * math.Max(0, 1-penalty*diff)
}

func normalizeTitle(title string) string {
	lowered := strings.ToLower(title)
	lowered = nonWordPattern.ReplaceAllString(lowered, " ")

	var kept []string
	for _, token := range strings.Fields(lowered) {
		if _, skip := stopWords[token]; skip {
			continue
		}
		kept = append(kept, token)
	}
	return strings.Join(kept, " ")
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
