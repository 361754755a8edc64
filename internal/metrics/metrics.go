package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Pipeline holds the instruments for the aggregation pipeline. A nil
// *Pipeline is valid and records nothing.
type Pipeline struct {
	samplesGenerated  prometheus.Counter
	samplesConsumed   prometheus.Counter
	aggregatesCreated prometheus.Counter
	alertsRaised      *prometheus.CounterVec
	alertsResolved    prometheus.Counter
	windowDuration    prometheus.Histogram
}

func NewPipeline(reg prometheus.Registerer) *Pipeline {
	p := &Pipeline{
		samplesGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "turbine_samples_generated_total",
			Help: "Telemetry samples written by the simulator.",
		}),
		samplesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "turbine_samples_consumed_total",
			Help: "Telemetry samples folded into an aggregate.",
		}),
		aggregatesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "turbine_aggregates_created_total",
			Help: "Hourly aggregates persisted.",
		}),
		alertsRaised: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "turbine_alerts_raised_total",
			Help: "Health alerts raised, by severity.",
		}, []string{"severity"}),
		alertsResolved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "turbine_alerts_resolved_total",
			Help: "Health alerts resolved.",
		}),
		windowDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "turbine_window_duration_seconds",
			Help:    "Wall time to aggregate one window across all turbines.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
	}
	reg.MustRegister(p.samplesGenerated, p.samplesConsumed, p.aggregatesCreated,
		p.alertsRaised, p.alertsResolved, p.windowDuration)
	return p
}

func (p *Pipeline) AddSamplesGenerated(n int) {
	if p == nil {
		return
	}
	p.samplesGenerated.Add(float64(n))
}

func (p *Pipeline) AddSamplesConsumed(n int) {
	if p == nil {
		return
	}
	p.samplesConsumed.Add(float64(n))
}

func (p *Pipeline) AddAggregatesCreated(n int) {
	if p == nil {
		return
	}
	p.aggregatesCreated.Add(float64(n))
}

func (p *Pipeline) AlertRaised(severity string) {
	if p == nil {
		return
	}
	p.alertsRaised.WithLabelValues(severity).Inc()
}

func (p *Pipeline) AlertResolved() {
	if p == nil {
		return
	}
	p.alertsResolved.Inc()
}

func (p *Pipeline) ObserveWindow(seconds float64) {
	if p == nil {
		return
	}
	p.windowDuration.Observe(seconds)
}
