package metrics

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestNoopRecorderIsSafe(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveSnapshotDuration(time.Second)
	r.ObserveDiffDuration(time.Second)
	r.IncResolveTier(1)
	r.IncResolveOutcome("no-match")
	r.AddDeltaCategory("added", 3)
}

func TestPrometheusRecorderRegistersAndCounts(t *testing.T) {
	reg := prom.NewRegistry()
	r := NewPrometheusRecorder(reg)

	r.ObserveSnapshotDuration(50 * time.Millisecond)
	r.ObserveDiffDuration(10 * time.Millisecond)
	r.IncResolveTier(2)
	r.IncResolveTier(2)
	r.IncResolveOutcome("exception")
	r.AddDeltaCategory("moved", 4)
	r.AddDeltaCategory("unresolved", 0) // zero adds are skipped

	families, err := reg.Gather()
	require.NoError(t, err)

	byName := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if c := m.GetCounter(); c != nil {
				byName[mf.GetName()] += c.GetValue()
			}
		}
	}
	require.Equal(t, 2.0, byName["scenetrack_resolve_tier_total"])
	require.Equal(t, 1.0, byName["scenetrack_resolve_failures_total"])
	require.Equal(t, 4.0, byName["scenetrack_delta_spans_total"])
}
