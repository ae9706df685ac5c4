package metrics

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStageDuration("resolve_content", 150*time.Millisecond)
	pr.ObserveBuildDuration(500 * time.Millisecond)
	pr.IncStageResult("resolve_content", ResultSuccess)
	pr.IncBuildOutcome("success")
	pr.IncBuildTrigger("cli")
	pr.SetChapters(12)
	pr.SetFindings("error", 1)
	pr.SetFindings("warning", 3)
	// Basic scrape to ensure metrics encode without panic
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mfs) == 0 {
		t.Fatalf("expected metrics, got none")
	}
}

func TestPrometheusRecorderNilSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.ObserveStageDuration("x", time.Second)
	pr.ObserveBuildDuration(time.Second)
	pr.IncStageResult("x", ResultFatal)
	pr.IncBuildOutcome("failed")
	pr.IncBuildTrigger("watch")
	pr.SetChapters(0)
	pr.SetFindings("warning", 0)
}
