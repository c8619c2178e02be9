// Package metrics defines observability hooks for snapshot and diff
// operations. Implementations may forward to Prometheus; the NoopRecorder is
// the default when metrics are not configured.
package metrics

import "time"

// Recorder receives counters and timings from the delta engine and the CLI.
// All methods must be cheap and safe for concurrent use.
type Recorder interface {
	ObserveSnapshotDuration(d time.Duration)
	ObserveDiffDuration(d time.Duration)
	IncResolveTier(tier int)
	IncResolveOutcome(outcome string) // outcome: no-match|exception
	AddDeltaCategory(category string, n int)
}

// NoopRecorder does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveSnapshotDuration(time.Duration) {}
func (NoopRecorder) ObserveDiffDuration(time.Duration)     {}
func (NoopRecorder) IncResolveTier(int)                    {}
func (NoopRecorder) IncResolveOutcome(string)              {}
func (NoopRecorder) AddDeltaCategory(string, int)          {}
