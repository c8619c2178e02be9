package metrics

import (
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics. There is
// no HTTP exporter here; embedding hosts gather from the injected registry.
type PrometheusRecorder struct {
	snapshotDuration prom.Histogram
	diffDuration     prom.Histogram
	resolveTiers     *prom.CounterVec
	resolveOutcomes  *prom.CounterVec
	deltaCategories  *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers the scenetrack metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		snapshotDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "scenetrack",
			Name:      "snapshot_duration_seconds",
			Help:      "Duration of segment+fingerprint snapshot passes",
			Buckets:   prom.DefBuckets,
		}),
		diffDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "scenetrack",
			Name:      "diff_duration_seconds",
			Help:      "Duration of full delta computations",
			Buckets:   prom.DefBuckets,
		}),
		resolveTiers: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "scenetrack",
			Name:      "resolve_tier_total",
			Help:      "Successful anchor resolutions by winning tier",
		}, []string{"tier"}),
		resolveOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "scenetrack",
			Name:      "resolve_failures_total",
			Help:      "Failed anchor resolutions by outcome",
		}, []string{"outcome"}),
		deltaCategories: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "scenetrack",
			Name:      "delta_spans_total",
			Help:      "Classified spans per delta category",
		}, []string{"category"}),
	}
	reg.MustRegister(pr.snapshotDuration, pr.diffDuration, pr.resolveTiers, pr.resolveOutcomes, pr.deltaCategories)
	return pr
}

func (p *PrometheusRecorder) ObserveSnapshotDuration(d time.Duration) {
	p.snapshotDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveDiffDuration(d time.Duration) {
	p.diffDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncResolveTier(tier int) {
	p.resolveTiers.WithLabelValues(strconv.Itoa(tier)).Inc()
}

func (p *PrometheusRecorder) IncResolveOutcome(outcome string) {
	p.resolveOutcomes.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) AddDeltaCategory(category string, n int) {
	if n <= 0 {
		return
	}
	p.deltaCategories.WithLabelValues(category).Add(float64(n))
}
