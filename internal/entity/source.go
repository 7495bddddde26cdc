package entity

import "strings"

// Source identifies the origin site a listing was scraped from.
type Source string

const (
	SourceOtodom     Source = "otodom"
	SourceOlx        Source = "olx"
	SourceGratka     Source = "gratka"
	SourceFreedom    Source = "freedom"
	SourceMetrohouse Source = "metrohouse"
	SourceDomiporta  Source = "domiporta"
)

// DefaultSourcePriority orders sources from most to least trusted. When
// duplicates are found the canonical copy is kept from the highest-ranked
// source present in the cluster.
var DefaultSourcePriority = []Source{
	SourceOtodom,
	SourceOlx,
	SourceGratka,
	SourceFreedom,
	SourceMetrohouse,
	SourceDomiporta,
}

// ParseSource maps a raw site name ("otodom", "otodom.pl", "OLX.pl") onto the
// closed source set. The boolean reports whether the name was recognised.
func ParseSource(raw string) (Source, bool) {
	name := strings.ToLower(strings.TrimSpace(raw))
	name = strings.TrimSuffix(name, ".pl")
	name = strings.TrimSuffix(name, ".com")
	switch Source(name) {
	case SourceOtodom, SourceOlx, SourceGratka, SourceFreedom, SourceMetrohouse, SourceDomiporta:
		return Source(name), true
	}
	return "", false
}

// PriorityRank returns the position of s within the given priority order, or
// len(order) when the source is not ranked so that unranked sources always
// sort last.
func PriorityRank(s Source, order []Source) int {
	for i, candidate := range order {
		if candidate == s {
			return i
		}
	}
	return len(order)
}
