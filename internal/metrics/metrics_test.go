package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPipelineCounts(t *testing.T) {
	p := NewPipeline(prometheus.NewRegistry())

	p.AddSamplesConsumed(12)
	p.AddAggregatesCreated(3)
	p.AlertRaised("CRITICAL")
	p.AlertRaised("CRITICAL")
	p.AlertResolved()

	if got := testutil.ToFloat64(p.samplesConsumed); got != 12 {
		t.Fatalf("expected 12 samples consumed, got %v", got)
	}
	if got := testutil.ToFloat64(p.aggregatesCreated); got != 3 {
		t.Fatalf("expected 3 aggregates, got %v", got)
	}
	if got := testutil.ToFloat64(p.alertsRaised.WithLabelValues("CRITICAL")); got != 2 {
		t.Fatalf("expected 2 critical alerts, got %v", got)
	}
	if got := testutil.ToFloat64(p.alertsResolved); got != 1 {
		t.Fatalf("expected 1 resolved alert, got %v", got)
	}
}

func TestNilPipelineIsInert(t *testing.T) {
	var p *Pipeline
	p.AddSamplesGenerated(1)
	p.AddSamplesConsumed(1)
	p.AddAggregatesCreated(1)
	p.AlertRaised("HIGH")
	p.AlertResolved()
	p.ObserveWindow(0.5)
}
