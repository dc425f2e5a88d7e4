package latency_test

import (
	"testing"
	"time"

	"cua-server/services/control-engine/internal/domain/latency"
)

func defaultConfig() latency.Config {
	return latency.Config{
		Adaptive: true,
		Default:  30 * time.Second,
		Min:      5 * time.Second,
		Max:      60 * time.Second,
	}
}

func TestEstimateWithoutSamplesReturnsDefault(t *testing.T) {
	tracker := latency.NewTracker()
	if got := tracker.Estimate("navigation", defaultConfig()); got != 30*time.Second {
		t.Errorf("Estimate() = %v, want default 30s", got)
	}
}

func TestEstimateAdaptiveDisabledReturnsDefault(t *testing.T) {
	tracker := latency.NewTracker()
	for i := 0; i < 10; i++ {
		tracker.Record("navigation", time.Second)
	}

	cfg := defaultConfig()
	cfg.Adaptive = false
	if got := tracker.Estimate("navigation", cfg); got != cfg.Default {
		t.Errorf("Estimate() with adaptive disabled = %v, want %v", got, cfg.Default)
	}
}

func TestEstimateAppliesSafetyMargin(t *testing.T) {
	tracker := latency.NewTracker()
	for i := 0; i < 10; i++ {
		tracker.Record("navigation", 10*time.Second)
	}

	// mean 10s * 1.5 margin = 15s, inside [5s, 60s]
	if got := tracker.Estimate("navigation", defaultConfig()); got != 15*time.Second {
		t.Errorf("Estimate() = %v, want 15s", got)
	}
}

func TestEstimateClamping(t *testing.T) {
	tests := []struct {
		name   string
		sample time.Duration
		want   time.Duration
	}{
		{"fast operations clamp to min", time.Second, 5 * time.Second},
		{"slow operations clamp to max", 5 * time.Minute, 60 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := latency.NewTracker()
			tracker.Record("op", tt.sample)
			if got := tracker.Estimate("op", defaultConfig()); got != tt.want {
				t.Errorf("Estimate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEstimateAlwaysWithinBounds(t *testing.T) {
	tracker := latency.NewTracker()
	cfg := defaultConfig()
	durations := []time.Duration{
		0, time.Millisecond, 100 * time.Millisecond, time.Second,
		12 * time.Second, 47 * time.Second, 3 * time.Minute, time.Hour,
	}

	for _, d := range durations {
		tracker.Record("mixed", d)
		got := tracker.Estimate("mixed", cfg)
		if got < cfg.Min || got > cfg.Max {
			t.Fatalf("Estimate() = %v outside [%v, %v] after recording %v", got, cfg.Min, cfg.Max, d)
		}
	}
}

func TestRecordEvictsOldestBeyondCapacity(t *testing.T) {
	tracker := latency.NewTracker()

	// Fill the history with slow samples, then displace them entirely.
	for i := 0; i < 10; i++ {
		tracker.Record("navigation", 40*time.Second)
	}
	for i := 0; i < 10; i++ {
		tracker.Record("navigation", 8*time.Second)
	}

	if n := len(tracker.Samples("navigation")); n != 10 {
		t.Fatalf("history length = %d, want 10", n)
	}

	// mean 8s * 1.5 = 12s; any surviving 40s sample would push this higher.
	if got := tracker.Estimate("navigation", defaultConfig()); got != 12*time.Second {
		t.Errorf("Estimate() = %v, want 12s after displacement", got)
	}
}

func TestKeysAreIndependent(t *testing.T) {
	tracker := latency.NewTracker()
	tracker.Record("navigation", 40*time.Second)

	if got := tracker.Estimate("click", defaultConfig()); got != 30*time.Second {
		t.Errorf("Estimate() for untouched key = %v, want default", got)
	}
}
