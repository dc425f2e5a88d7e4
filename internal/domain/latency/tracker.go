// Package latency tracks recent durations of timed operation classes and
// derives recommended timeouts for the next attempt.
package latency

import (
	"sync"
	"time"
)

// historySize bounds the number of samples retained per operation key.
const historySize = 10

// safetyMargin is applied on top of the observed mean so that an estimate is
// not immediately violated by ordinary jitter.
const safetyMargin = 1.5

// Config holds the estimation bounds.
type Config struct {
	// Adaptive disables history-based estimation when false; Estimate then
	// always returns Default.
	Adaptive bool
	Default  time.Duration
	Min      time.Duration
	Max      time.Duration
}

// Sample is one observed duration for an operation key.
type Sample struct {
	Duration   time.Duration
	ObservedAt time.Time
}

// Tracker keeps a bounded FIFO of samples per operation key. Safe for
// concurrent use.
type Tracker struct {
	mu      sync.Mutex
	samples map[string][]Sample
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{samples: make(map[string][]Sample)}
}

// Record appends a sample for key, dropping the oldest one first when the
// history is full.
func (t *Tracker) Record(key string, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	history := append(t.samples[key], Sample{Duration: d, ObservedAt: time.Now()})
	if len(history) > historySize {
		history = history[len(history)-historySize:]
	}
	t.samples[key] = history
}

// Estimate returns the recommended timeout for the next instance of key:
// the arithmetic mean of the retained samples times the safety margin,
// clamped to [cfg.Min, cfg.Max]. With no samples, or with adaptive
// estimation disabled, it returns cfg.Default.
//
// A single abnormally slow sample skews the next estimate; no outlier
// rejection is performed.
func (t *Tracker) Estimate(key string, cfg Config) time.Duration {
	t.mu.Lock()
	history := t.samples[key]
	var total time.Duration
	for _, s := range history {
		total += s.Duration
	}
	n := len(history)
	t.mu.Unlock()

	if !cfg.Adaptive || n == 0 {
		return cfg.Default
	}

	mean := total / time.Duration(n)
	estimate := time.Duration(float64(mean) * safetyMargin)

	if estimate < cfg.Min {
		return cfg.Min
	}
	if estimate > cfg.Max {
		return cfg.Max
	}
	return estimate
}

// Samples returns a copy of the retained history for key, oldest first.
func (t *Tracker) Samples(key string) []Sample {
	t.mu.Lock()
	defer t.mu.Unlock()

	history := t.samples[key]
	out := make([]Sample, len(history))
	copy(out, history)
	return out
}
