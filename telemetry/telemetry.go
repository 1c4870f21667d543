// Package telemetry wires structured logging and a pluggable metrics
// sink for the extraction pipeline. The pipeline has zero hard dependency
// on any metrics backend — NoopMetrics is the default, and a caller can
// supply its own Metrics implementation at construction time.
package telemetry

import (
	"log/slog"
	"os"
	"time"
)

// NewLogger builds the pipeline's structured JSON logger, matching the
// server's own log setup.
func NewLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// Metrics is the pipeline's metrics sink contract. Implementations may
// forward to Prometheus, StatsD, or anything else; NoopMetrics discards
// everything.
type Metrics interface {
	ObserveEntities(entityType string, count int)
	ObserveLatency(component string, ms float64)
	IncErrors(kind, component string)
	IncNERSkip(reason string)
	IncRun(outcome string)
}

// NoopMetrics is the zero-value default Metrics implementation.
type NoopMetrics struct{}

func (NoopMetrics) ObserveEntities(string, int)    {}
func (NoopMetrics) ObserveLatency(string, float64) {}
func (NoopMetrics) IncErrors(string, string)       {}
func (NoopMetrics) IncNERSkip(string)              {}
func (NoopMetrics) IncRun(string)                  {}

// Timer returns a function that, when called, records the elapsed time
// since Timer was invoked as a latency observation for component on m,
// and returns the elapsed milliseconds so callers can also record it in
// a run envelope.
func Timer(m Metrics, component string) func() float64 {
	start := time.Now()
	return func() float64 {
		elapsed := float64(time.Since(start)) / float64(time.Millisecond)
		m.ObserveLatency(component, elapsed)
		return elapsed
	}
}
