// Package metrics exposes Prometheus collectors for an audit run.
package metrics

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	auditPagesFetchedTotal    *prometheus.CounterVec
	auditSitemapsFetchedTotal prometheus.Counter
	auditGateFailuresTotal    *prometheus.CounterVec
	auditReportRows           prometheus.Gauge
	auditExpectedURLs         prometheus.Gauge
	auditLastRunSuccess       prometheus.Gauge
	auditRateLimitDelay       prometheus.Histogram

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		auditPagesFetchedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "site_audit_pages_fetched_total",
				Help: "Total number of page fetches, labeled by status class.",
			},
			[]string{"status"},
		)

		auditSitemapsFetchedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "site_audit_sitemaps_fetched_total",
				Help: "Total number of sitemap documents fetched.",
			},
		)

		auditGateFailuresTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "site_audit_gate_failures_total",
				Help: "Total number of gate failures, labeled by rule.",
			},
			[]string{"rule"},
		)

		auditReportRows = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "site_audit_report_rows",
				Help: "Number of rows in the most recent report.",
			},
		)

		auditExpectedURLs = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "site_audit_expected_indexable_urls",
				Help: "Size of the expected indexable URL set in the most recent run.",
			},
		)

		auditLastRunSuccess = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "site_audit_last_run_success",
				Help: "1 when the most recent run passed the gate, 0 otherwise.",
			},
		)

		auditRateLimitDelay = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "site_audit_rate_limit_delay_seconds",
				Help:    "Time spent waiting on the fetch rate limiter.",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
			},
		)
	})
}

// StatusClass buckets an HTTP status into a low-cardinality label.
func StatusClass(status int) string {
	if status <= 0 {
		return "error"
	}
	if status < 100 || status > 599 {
		return "other"
	}
	return strconv.Itoa(status/100) + "xx"
}

// ObservePage counts one page fetch.
func ObservePage(status int) {
	Init()
	auditPagesFetchedTotal.WithLabelValues(StatusClass(status)).Inc()
}

// ObserveSitemap counts one sitemap document fetch.
func ObserveSitemap() {
	Init()
	auditSitemapsFetchedTotal.Inc()
}

// ObserveGateFailure counts one gate failure for rule.
func ObserveGateFailure(rule string) {
	Init()
	auditGateFailuresTotal.WithLabelValues(rule).Inc()
}

// ObserveRateLimitDelay records one rate limiter wait.
func ObserveRateLimitDelay(d time.Duration) {
	Init()
	auditRateLimitDelay.Observe(d.Seconds())
}

// ObserveRun records the run-level gauges.
func ObserveRun(rows, expected int, passed bool) {
	Init()
	auditReportRows.Set(float64(rows))
	auditExpectedURLs.Set(float64(expected))
	if passed {
		auditLastRunSuccess.Set(1)
	} else {
		auditLastRunSuccess.Set(0)
	}
}

// WriteTextfile writes every registered metric to path in the text format
// read by the node exporter textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
