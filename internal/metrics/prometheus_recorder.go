package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
// All methods are safe on a nil receiver.
type PrometheusRecorder struct {
	registry      *prom.Registry
	passDuration  *prom.HistogramVec
	passOutcomes  *prom.CounterVec
	buildDuration prom.Histogram
	buildOutcomes *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers the texmill metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{registry: reg}
	pr.passDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: "texmill",
		Name:      "pass_duration_seconds",
		Help:      "Duration of individual engine and bibliography passes",
		Buckets:   prom.DefBuckets,
	}, []string{"kind"})
	pr.passOutcomes = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "texmill",
		Name:      "passes_total",
		Help:      "Pass counts by kind and outcome",
	}, []string{"kind", "outcome"})
	pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
		Namespace: "texmill",
		Name:      "build_duration_seconds",
		Help:      "Total build duration across all passes",
		Buckets:   prom.DefBuckets,
	})
	pr.buildOutcomes = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "texmill",
		Name:      "builds_total",
		Help:      "Build counts by final outcome",
	}, []string{"outcome"})
	reg.MustRegister(pr.passDuration, pr.passOutcomes, pr.buildDuration, pr.buildOutcomes)
	return pr
}

func (p *PrometheusRecorder) ObservePassDuration(kind string, d time.Duration) {
	if p == nil || p.passDuration == nil {
		return
	}
	p.passDuration.WithLabelValues(kind).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPassOutcome(kind, outcome string) {
	if p == nil || p.passOutcomes == nil {
		return
	}
	p.passOutcomes.WithLabelValues(kind, outcome).Inc()
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	if p == nil || p.buildOutcomes == nil {
		return
	}
	p.buildOutcomes.WithLabelValues(outcome).Inc()
}

// Handler returns an http.Handler that serves the recorder's registry in
// the Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	if p == nil || p.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
