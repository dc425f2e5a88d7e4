// Package engine owns the process-lifetime state of the control engine and
// exposes its caller-facing operations: storing captures, recording and
// estimating operation latencies, and scoring backend providers.
package engine

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"cua-server/services/control-engine/internal/config"
	"cua-server/services/control-engine/internal/domain/capture"
	"cua-server/services/control-engine/internal/domain/latency"
	"cua-server/services/control-engine/internal/domain/provider"
	"cua-server/services/control-engine/internal/infrastructure/metrics"
	"cua-server/services/control-engine/internal/infrastructure/storage"
)

// Engine is constructed once at process start and shared by all callers.
// No implicit singletons: everything it mutates lives on the instance.
type Engine struct {
	cfg       atomic.Pointer[config.Config]
	store     *storage.ArtifactStore
	tracker   *latency.Tracker
	scorer    *provider.Scorer
	providers []string
	log       zerolog.Logger
}

// New creates an engine. providers is the default set used when a ranking
// call passes none; it may be empty.
func New(cfg *config.Config, providers []string, log zerolog.Logger) *Engine {
	e := &Engine{
		store:     storage.NewArtifactStore(log),
		tracker:   latency.NewTracker(),
		scorer:    provider.NewScorer(),
		providers: providers,
		log:       log.With().Str("component", "engine").Logger(),
	}
	e.cfg.Store(cfg)
	return e
}

// Config returns the active configuration. The returned value is shared
// and must not be mutated; replace it with UpdateConfig instead.
func (e *Engine) Config() *config.Config {
	return e.cfg.Load()
}

// UpdateConfig atomically replaces the active configuration. In-flight
// calls finish with the configuration they started with; later calls see
// only the new one, never a mix.
func (e *Engine) UpdateConfig(cfg *config.Config) error {
	if err := cfg.Normalize(); err != nil {
		return err
	}
	e.cfg.Store(cfg)
	e.log.Info().
		Str("mode", cfg.CaptureMode).
		Str("format", cfg.CaptureFormat).
		Str("dir", cfg.StorageDir).
		Int("max_files", cfg.MaxFiles).
		Msg("engine configuration replaced")
	return nil
}

// Store persists one capture according to the active configuration.
// Returns nil, nil when the capture policy skips it.
func (e *Engine) Store(ctx context.Context, data []byte, captureContext string) (*capture.Record, error) {
	return e.store.Store(ctx, capture.Request{Data: data, Context: captureContext}, e.cfg.Load())
}

// Prune enforces the retention cap on the configured storage directory
// without storing anything.
func (e *Engine) Prune() {
	cfg := e.cfg.Load()
	e.store.Prune(cfg.StorageDir, cfg.MaxFiles)
}

// RecordLatency feeds one observed duration into the tracker for key.
func (e *Engine) RecordLatency(key string, d time.Duration) {
	e.tracker.Record(key, d)
	metrics.LatencySamplesTotal.WithLabelValues(key).Inc()
}

// EstimateTimeout derives the recommended timeout for the next instance
// of key from its recorded history and the active configuration bounds.
func (e *Engine) EstimateTimeout(key string) time.Duration {
	cfg := e.cfg.Load()
	estimate := e.tracker.Estimate(key, latency.Config{
		Adaptive: cfg.AdaptiveTimeouts,
		Default:  cfg.DefaultTimeout,
		Min:      cfg.MinTimeout,
		Max:      cfg.MaxTimeout,
	})
	metrics.TimeoutEstimate.WithLabelValues(key).Set(estimate.Seconds())
	return estimate
}

// RecordProviderOutcome updates the scorer after one provider attempt.
func (e *Engine) RecordProviderOutcome(name string, succeeded bool) {
	e.scorer.RecordOutcome(name, succeeded)
	metrics.ProviderOutcomesTotal.WithLabelValues(name, outcomeLabel(succeeded)).Inc()
}

// RankProviders orders the given providers for the next attempt sequence.
// An empty input falls back to the engine's default provider set.
func (e *Engine) RankProviders(names []string) []string {
	if len(names) == 0 {
		names = e.providers
	}
	return e.scorer.Order(names)
}

// ProviderStats returns a copy of the per-provider outcome counters.
func (e *Engine) ProviderStats() map[string]provider.Stats {
	return e.scorer.Snapshot()
}

// Fallback runs attempt against providers in ranked order, recording each
// outcome, and returns the first provider that succeeds. An empty provider
// list falls back to the engine's default set.
func (e *Engine) Fallback(ctx context.Context, names []string, attempt provider.AttemptFunc) (string, error) {
	if len(names) == 0 {
		names = e.providers
	}
	wrapped := func(ctx context.Context, name string) error {
		err := attempt(ctx, name)
		metrics.ProviderOutcomesTotal.WithLabelValues(name, outcomeLabel(err == nil)).Inc()
		return err
	}
	return provider.Fallback(ctx, e.scorer, names, wrapped)
}

func outcomeLabel(succeeded bool) string {
	if succeeded {
		return "success"
	}
	return "failure"
}
