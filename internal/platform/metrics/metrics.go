// Package metrics holds the prometheus collectors and the /metrics handler
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "quickgithub"

// Submissions counts dispatcher outcomes: accepted, conflict, quota, not_found, upstream, queue_failed, invalid, error
var Submissions = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "indexing",
	Name:      "submissions_total",
	Help:      "Indexing submissions by outcome",
}, []string{"outcome"})

// StreamsActive is the number of open status streams
var StreamsActive = prometheus.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Subsystem: "indexing",
	Name:      "status_streams_active",
	Help:      "Open status streams",
})

// StreamsClosed counts finished status streams by the last status sent
var StreamsClosed = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "indexing",
	Name:      "status_streams_closed_total",
	Help:      "Closed status streams by final status",
}, []string{"final"})

// Reaped counts ledger rows the reaper marked failed
var Reaped = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "reaper",
	Name:      "reaped_total",
	Help:      "Stalled indexing jobs marked failed",
})

// EnqueueDuration observes queue handoff latency by transport
var EnqueueDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "queue",
	Name:      "enqueue_seconds",
	Help:      "Time to hand a job to the worker queue",
	Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
}, []string{"transport", "result"})

// NewRegistry returns a registry with every collector plus the go and process collectors
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		Submissions,
		StreamsActive,
		StreamsClosed,
		Reaped,
		EnqueueDuration,
	)
	return reg
}

// Handler serves reg in the text exposition format
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
