package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once          sync.Once
	stageDuration *prom.HistogramVec
	buildDuration prom.Histogram
	stageResults  *prom.CounterVec
	buildOutcome  *prom.CounterVec
	buildTrigger  *prom.CounterVec
	chapters      prom.Gauge
	findings      *prom.GaugeVec
}

// NewPrometheusRecorder constructs and registers the bookc metrics on reg
// (a fresh registry when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "bookc",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "bookc",
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		})
		pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "bookc",
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"})
		pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "bookc",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"})
		pr.buildTrigger = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "bookc",
			Name:      "build_triggers_total",
			Help:      "Builds by trigger source",
		}, []string{"trigger"})
		pr.chapters = prom.NewGauge(prom.GaugeOpts{
			Namespace: "bookc",
			Name:      "book_chapters",
			Help:      "Chapter count of the last completed build",
		})
		pr.findings = prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "bookc",
			Name:      "diagnostic_findings",
			Help:      "Diagnostic finding counts of the last completed build",
		}, []string{"severity"})
		reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.stageResults,
			pr.buildOutcome, pr.buildTrigger, pr.chapters, pr.findings)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) IncBuildTrigger(trigger string) {
	if p == nil || p.buildTrigger == nil {
		return
	}
	p.buildTrigger.WithLabelValues(trigger).Inc()
}

func (p *PrometheusRecorder) SetChapters(n int) {
	if p == nil || p.chapters == nil {
		return
	}
	p.chapters.Set(float64(n))
}

func (p *PrometheusRecorder) SetFindings(severity string, n int) {
	if p == nil || p.findings == nil {
		return
	}
	p.findings.WithLabelValues(severity).Set(float64(n))
}
