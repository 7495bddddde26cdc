package entity

// BatchStats reports the outcome of one batch operation. The counters are
// first-class output of every pipeline stage, not log noise.
type BatchStats struct {
	Processed         int `json:"processed"`
	Succeeded         int `json:"succeeded"`
	Failed            int `json:"failed"`
	Skipped           int `json:"skipped"`
	FallbackSuccesses int `json:"fallback_successes,omitempty"`
}

// Add accumulates another batch into the receiver.
func (s *BatchStats) Add(other BatchStats) {
	s.Processed += other.Processed
	s.Succeeded += other.Succeeded
	s.Failed += other.Failed
	s.Skipped += other.Skipped
	s.FallbackSuccesses += other.FallbackSuccesses
}
