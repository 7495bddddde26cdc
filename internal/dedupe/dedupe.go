// Package dedupe partitions a batch of listings into a canonical set and a
// duplicate set using pairwise similarity scores.
package dedupe

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/octobees/estate-pipeline/internal/entity"
)

// Scorer computes the similarity of two listings on a 0-100 scale.
type Scorer interface {
	Score(a, b entity.Listing) float64
}

// DuplicateRecord links a rejected listing to the canonical listing it
// duplicates, with full score provenance.
type DuplicateRecord struct {
	Listing      entity.Listing `json:"listing"`
	CanonicalID  uuid.UUID      `json:"canonical_id"`
	CanonicalURL string         `json:"canonical_url"`
	Score        float64        `json:"score"`
}

// Deduplicator clusters listings with a greedy single pass. The pass is
// order-dependent on purpose: with source prioritisation enabled the input is
// stable-sorted so the canonical copy always comes from the better source.
type Deduplicator struct {
	scorer   Scorer
	priority []entity.Source
}

// New builds a deduplicator. A nil priority order falls back to the default
// source ranking.
func New(scorer Scorer, priority []entity.Source) *Deduplicator {
	if len(priority) == 0 {
		priority = entity.DefaultSourcePriority
	}
	return &Deduplicator{scorer: scorer, priority: priority}
}

// Partition splits listings into canonicals and duplicates. The threshold is
// inclusive: a score equal to it classifies the listing as a duplicate. A
// duplicate is assigned to the first already-accepted canonical that meets
// the threshold, not the best-scoring one.
//
// The pass is interruptible: the context is checked between listings and a
// cancellation returns the partition built so far along with ctx.Err().
func (d *Deduplicator) Partition(ctx context.Context, listings []entity.Listing, threshold float64, prioritizeSources bool) ([]entity.Listing, []DuplicateRecord, error) {
	canonical := make([]entity.Listing, 0, len(listings))
	duplicates := make([]DuplicateRecord, 0)

	if len(listings) == 0 {
		return canonical, duplicates, nil
	}

	ordered := make([]entity.Listing, len(listings))
	copy(ordered, listings)
	if prioritizeSources {
		sort.SliceStable(ordered, func(i, j int) bool {
			return entity.PriorityRank(ordered[i].Source, d.priority) < entity.PriorityRank(ordered[j].Source, d.priority)
		})
	}

	for _, candidate := range ordered {
		if err := ctx.Err(); err != nil {
			return canonical, duplicates, err
		}

		matched := false
		for _, accepted := range canonical {
			score := d.scorer.Score(candidate, accepted)
			if score >= threshold {
				duplicates = append(duplicates, DuplicateRecord{
					Listing:      candidate,
					CanonicalID:  accepted.ID,
					CanonicalURL: accepted.URL,
					Score:        score,
				})
				matched = true
				break
			}
		}
		if !matched {
			canonical = append(canonical, candidate)
		}
	}

	return canonical, duplicates, nil
}
