// Package provider scores redundant backend providers from observed
// attempt outcomes and orders them for fallback execution.
package provider

import (
	"sort"
	"sync"
)

// Stats holds process-lifetime outcome counters for one provider.
type Stats struct {
	Successes uint64 `json:"successes"`
	Failures  uint64 `json:"failures"`
}

// Attempts returns the total recorded attempts.
func (s Stats) Attempts() uint64 {
	return s.Successes + s.Failures
}

// Ratio returns the observed success ratio. A provider with no history
// scores 1.0 so it is always tried before one with a proven poor record.
func (s Stats) Ratio() float64 {
	attempts := s.Attempts()
	if attempts == 0 {
		return 1.0
	}
	return float64(s.Successes) / float64(attempts)
}

// Scorer tracks per-provider outcome counters and ranks providers for the
// next attempt. Safe for concurrent use. Counters reset only with the
// process.
type Scorer struct {
	mu    sync.Mutex
	stats map[string]Stats
}

// NewScorer creates a scorer with no history.
func NewScorer() *Scorer {
	return &Scorer{stats: make(map[string]Stats)}
}

// RecordOutcome increments the success or failure counter for name.
func (s *Scorer) RecordOutcome(name string, succeeded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.stats[name]
	if succeeded {
		st.Successes++
	} else {
		st.Failures++
	}
	s.stats[name] = st
}

// Order returns the given providers ranked by success ratio, best first.
// The sort is stable: ties, including groups of never-attempted providers,
// keep their input order. The input slice is not modified.
func (s *Scorer) Order(names []string) []string {
	s.mu.Lock()
	ratios := make(map[string]float64, len(names))
	for _, name := range names {
		ratios[name] = s.stats[name].Ratio()
	}
	s.mu.Unlock()

	ordered := make([]string, len(names))
	copy(ordered, names)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ratios[ordered[i]] > ratios[ordered[j]]
	})
	return ordered
}

// Stats returns the recorded counters for name. The zero value means no
// history.
func (s *Scorer) Stats(name string) Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats[name]
}

// Snapshot returns a copy of all recorded counters.
func (s *Scorer) Snapshot() map[string]Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]Stats, len(s.stats))
	for name, st := range s.stats {
		out[name] = st
	}
	return out
}
