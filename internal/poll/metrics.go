package poll

import "github.com/prometheus/client_golang/prometheus"

// Prometheus metrics for the polling pipeline.
var (
	pollCyclesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fleetmon_poll_cycles_total",
		Help: "Total number of completed poll cycles.",
	})
	pollCyclesSkipped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fleetmon_poll_cycles_skipped_total",
		Help: "Poll cycles skipped because the previous cycle was still running.",
	})
	pollCycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "fleetmon_poll_cycle_duration_seconds",
		Help:    "Wall-clock duration of a full-fleet poll cycle.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})
	devicesPolled = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fleetmon_devices_polled_total",
		Help: "Total number of per-device polls performed.",
	})
	devicesAbandoned = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fleetmon_devices_abandoned_total",
		Help: "Device polls abandoned for exceeding the per-device deadline.",
	})
	metricFetchFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fleetmon_metric_fetch_failures_total",
		Help: "Metric fetches that returned no value, by metric name.",
	}, []string{"metric"})
	alertsTriggered = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fleetmon_alerts_triggered_total",
		Help: "Alert events produced by the evaluator.",
	})
	samplesPruned = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fleetmon_samples_pruned_total",
		Help: "Samples deleted by retention pruning.",
	})
)

func init() {
	prometheus.MustRegister(
		pollCyclesTotal,
		pollCyclesSkipped,
		pollCycleDuration,
		devicesPolled,
		devicesAbandoned,
		metricFetchFailures,
		alertsTriggered,
		samplesPruned,
	)
}
