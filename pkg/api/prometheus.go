package api

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusObserver exports loop activity as Prometheus metrics.
type PrometheusObserver struct {
	running   prometheus.Gauge
	processed prometheus.Counter
	failed    prometheus.Counter
	discarded prometheus.Counter
	duration  prometheus.Histogram
}

// NewPrometheusObserver creates the collectors under namespace and registers
// them with reg. A nil reg uses prometheus.DefaultRegisterer.
func NewPrometheusObserver(reg prometheus.Registerer, namespace string) (*PrometheusObserver, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	o := &PrometheusObserver{
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "workloop",
			Name:      "running_loops",
			Help:      "Number of loops with a live consumer goroutine.",
		}),
		processed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workloop",
			Name:      "items_processed_total",
			Help:      "Items whose processing step returned successfully.",
		}),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workloop",
			Name:      "items_failed_total",
			Help:      "Items whose processing step returned an error or panicked.",
		}),
		discarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workloop",
			Name:      "items_discarded_total",
			Help:      "Pending items dropped by an abrupt shutdown.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "workloop",
			Name:      "process_duration_seconds",
			Help:      "Time spent in the processing step.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	for _, c := range []prometheus.Collector{o.running, o.processed, o.failed, o.discarded, o.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// Ensure PrometheusObserver implements Observer.
var _ Observer = (*PrometheusObserver)(nil)

func (o *PrometheusObserver) OnLoopStarted(ctx context.Context, loopID string) {
	o.running.Inc()
}

func (o *PrometheusObserver) OnLoopStopped(ctx context.Context, loopID string, policy ShutdownPolicy, drained, discarded int) {
	o.running.Dec()
}

func (o *PrometheusObserver) OnItemProcessed(ctx context.Context, loopID string, d time.Duration) {
	o.processed.Inc()
	o.duration.Observe(d.Seconds())
}

func (o *PrometheusObserver) OnItemFailed(ctx context.Context, loopID string, err error, d time.Duration) {
	o.failed.Inc()
	o.duration.Observe(d.Seconds())
}

func (o *PrometheusObserver) OnItemDiscarded(ctx context.Context, loopID string) {
	o.discarded.Inc()
}
