package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EvaluationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "propgate_evaluations_total",
		Help: "The total number of objective evaluations",
	}, []string{"account_type", "result"})

	AlertsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "propgate_alerts_emitted_total",
		Help: "Alerts emitted by the rules engine",
	}, []string{"type"})

	MetricsRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "propgate_metrics_refreshes_total",
		Help: "Cached-metrics refreshes by source",
	}, []string{"source"})

	UpstreamErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "propgate_upstream_errors_total",
		Help: "Errors talking to external providers",
	}, []string{"provider"})

	LatencyBucket = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "propgate_latency_bucket",
		Help:    "Request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
)
