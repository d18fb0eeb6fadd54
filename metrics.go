package pooler

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	Dispatches       prometheus.Counter
	DispatchDuration prometheus.Histogram
	CallbackPanics   prometheus.Counter
	WorkerCount      prometheus.Gauge
	WorkersBusy      prometheus.Gauge
}

func NewMetrics(namespace, subsystem string) *Metrics {
	m := &Metrics{
		Dispatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "dispatches_total",
			Help:      "Total number of dispatches run on the pool",
		}),
		DispatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "dispatch_duration_seconds",
			Help:      "Histogram of full dispatch duration, barrier to barrier",
			Buckets:   prometheus.DefBuckets,
		}),
		CallbackPanics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "callback_panics_total",
			Help:      "Total number of panics recovered from worker callbacks",
		}),
		WorkerCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "worker_count",
			Help:      "Number of workers in the pool",
		}),
		WorkersBusy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "workers_busy",
			Help:      "Number of workers currently executing a callback",
		}),
	}

	// Register metrics with Prometheus default registry
	prometheus.MustRegister(
		m.Dispatches,
		m.DispatchDuration,
		m.CallbackPanics,
		m.WorkerCount,
		m.WorkersBusy,
	)

	return m
}
