// Package metrics provides Prometheus metrics collection for cloudbill.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds all Prometheus metrics for the billing service.
type Collector struct {
	ReportsTotal   *prometheus.CounterVec
	ReportDuration *prometheus.HistogramVec
	ReportErrors   *prometheus.CounterVec

	StateRecordsFetched prometheus.Histogram
}

// New creates a new metrics collector with all metrics registered.
func New() *Collector {
	return &Collector{
		ReportsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cloudbill",
				Name:      "reports_total",
				Help:      "Total number of reports computed",
			},
			[]string{"kind", "scope"},
		),
		ReportDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "cloudbill",
				Name:      "report_duration_seconds",
				Help:      "Report computation duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"kind"},
		),
		ReportErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cloudbill",
				Name:      "report_errors_total",
				Help:      "Total number of failed report computations",
			},
			[]string{"kind", "reason"},
		),
		StateRecordsFetched: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "cloudbill",
				Name:      "state_records_fetched",
				Help:      "State records fetched per report",
				Buckets:   prometheus.ExponentialBuckets(10, 4, 8),
			},
		),
	}
}
