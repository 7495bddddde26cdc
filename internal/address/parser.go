// Package address decomposes free-text listing locations into a hierarchy of
// street, sub-district, district, city and province.
//
// The decomposition is lexicon-driven and order-sensitive on purpose: portals
// order location parts inconsistently and guarantee no schema, so a curated
// lookup pass followed by positional heuristics beats any single fixed format.
package address

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/octobees/estate-pipeline/internal/entity"
)

// The sixteen Polish voivodeships.
var provinces = []string{
	"dolnośląskie", "kujawsko-pomorskie", "lubelskie", "lubuskie", "łódzkie",
	"małopolskie", "mazowieckie", "opolskie", "podkarpackie", "podlaskie",
	"pomorskie", "śląskie", "świętokrzyskie", "warmińsko-mazurskie",
	"wielkopolskie", "zachodniopomorskie",
}

// Major cities recognised regardless of their position in the text.
var majorCities = []string{
	"warszawa", "kraków", "łódź", "wrocław", "poznań", "gdańsk", "szczecin",
	"bydgoszcz", "lublin", "białystok", "katowice", "gdynia", "częstochowa",
	"radom", "sosnowiec", "toruń", "kielce", "gliwice", "zabrze", "bytom",
	"olsztyn", "bielsko-biała", "rzeszów", "ruda śląska", "rybnik",
}

// Tokens that mark a part as a street, avenue, square or housing estate.
var streetIndicators = []string{
	"ul.", "ulica", "al.", "aleja", "pl.", "plac", "os.", "osiedle",
	"street", "avenue", "square", "estate",
}

var (
	whitespacePattern = regexp.MustCompile(`\s+`)
	disallowedPattern = regexp.MustCompile(`[^\p{L}\p{N}_\s,.\-]`)
)

// Parse decomposes a location string into a StructuredAddress. It is pure and
// total: malformed or empty input yields empty component fields with the
// original text preserved verbatim in FullAddress.
func Parse(location string) entity.StructuredAddress {
	addr := entity.StructuredAddress{FullAddress: location}

	normalized := normalizeLocation(location)
	if normalized == "" {
		return addr
	}

	var parts []string
	for _, part := range strings.Split(normalized, ",") {
		parts = append(parts, strings.TrimSpace(part))
	}

	for i, part := range parts {
		if part == "" {
			continue
		}
		lower := strings.ToLower(part)

		if containsAny(lower, provinces) {
			addr.Province = titleCase(part)
			continue
		}
		if containsAny(lower, majorCities) {
			addr.City = titleCase(part)
			continue
		}
		if containsAny(lower, streetIndicators) {
			addr.StreetName = titleCase(part)
			continue
		}

		switch i {
		case 0:
			if addr.City == "" {
				addr.City = titleCase(part)
			}
		case 1:
			addr.District = titleCase(part)
		case 2:
			addr.SubDistrict = titleCase(part)
		case 3:
			if addr.StreetName == "" {
				addr.StreetName = titleCase(part)
			}
		}
	}

	// A source may start with a plain town name that is neither a major
	// city nor positionally consumed above.
	if addr.City == "" && len(parts) > 0 && parts[0] != "" {
		if !containsAny(strings.ToLower(parts[0]), streetIndicators) {
			addr.City = titleCase(parts[0])
		}
	}

	// Promotion rule: a lone district that does not look like a street is
	// really a city-level name. Prevents orphaned district-only records
	// from sources that never state the parent city.
	if addr.City == "" && addr.District != "" {
		if !containsAny(strings.ToLower(addr.District), streetIndicators) {
			addr.City = addr.District
			addr.District = ""
		}
	}

	return addr
}

func normalizeLocation(text string) string {
	text = whitespacePattern.ReplaceAllString(strings.TrimSpace(text), " ")
	return disallowedPattern.ReplaceAllString(text, "")
}

func containsAny(text string, tokens []string) bool {
	for _, token := range tokens {
		if strings.Contains(text, token) {
			return true
		}
	}
	return false
}

func titleCase(text string) string {
	return cases.Title(language.Polish).String(strings.ToLower(text))
}
