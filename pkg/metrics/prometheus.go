package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder collects screening metrics on its own registry.
// A nil *Recorder records nothing.
// ⭐ SSOT: Prometheus 지표 정의는 여기서만
type Recorder struct {
	registry *prometheus.Registry

	providerRequests *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
	runs             *prometheus.CounterVec
	runDuration      *prometheus.HistogramVec
	candidates       *prometheus.GaugeVec
	rejections       *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		providerRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowscan_provider_requests_total",
				Help: "Market data provider calls by data kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		cacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowscan_snapshot_cache_lookups_total",
				Help: "Snapshot cache lookups by result",
			},
			[]string{"result"},
		),
		runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowscan_screen_runs_total",
				Help: "Screen runs by market and outcome",
			},
			[]string{"market", "outcome"},
		),
		runDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flowscan_screen_duration_seconds",
				Help:    "Duration of screen runs in seconds",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"market"},
		),
		candidates: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "flowscan_screen_candidates",
				Help: "Number of candidates in the latest screen run",
			},
			[]string{"market"},
		),
		rejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowscan_stage_rejections_total",
				Help: "Tickers rejected per scoring stage",
			},
			[]string{"stage"},
		),
	}
}

// RecordProviderRequest records one provider call
func (r *Recorder) RecordProviderRequest(kind string, err error) {
	if r == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.providerRequests.WithLabelValues(kind, outcome).Inc()
}

// RecordCacheLookup records a snapshot cache hit or miss
func (r *Recorder) RecordCacheLookup(hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(result).Inc()
}

// RecordRun records a finished screen run
func (r *Recorder) RecordRun(market string, elapsed time.Duration, candidates int, err error) {
	if r == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.runs.WithLabelValues(market, outcome).Inc()
	r.runDuration.WithLabelValues(market).Observe(elapsed.Seconds())
	if err == nil {
		r.candidates.WithLabelValues(market).Set(float64(candidates))
	}
}

// RecordRejections adds per-stage rejection counts
func (r *Recorder) RecordRejections(byStage map[string]int) {
	if r == nil {
		return
	}
	for stage, n := range byStage {
		r.rejections.WithLabelValues(stage).Add(float64(n))
	}
}

// Registry exposes the underlying registry (tests, custom exporters)
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
