// Package metrics defines the Prometheus collectors the proxy exports on
// /_ovp/metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/yougroupteam/openapi-validator-proxy/testcase"
)

// Testcase outcomes, used as the outcome label of TestcasesTotal.
const (
	OutcomePassed = "passed"
	OutcomeFailed = "failed"
)

var (
	// HTTP request metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ovp_http_requests_total",
			Help: "Total number of HTTP requests served by the proxy",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ovp_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds, including the upstream call",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status_code"},
	)

	// Upstream metrics
	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ovp_upstream_duration_seconds",
			Help:    "Upstream round trip time in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	UpstreamErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ovp_upstream_errors_total",
			Help: "Total number of upstream calls that failed without a response",
		},
		[]string{"method"},
	)

	// Conformance metrics
	TestcasesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ovp_testcases_total",
			Help: "Total number of recorded testcases by outcome",
		},
		[]string{"outcome"},
	)

	FailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ovp_failures_total",
			Help: "Total number of conformance failures by type",
		},
		[]string{"type"},
	)
)

// ObserveTestcase counts a recorded testcase and each of its failures.
func ObserveTestcase(tc testcase.Testcase) {
	outcome := OutcomePassed
	if tc.Failed() {
		outcome = OutcomeFailed
	}
	TestcasesTotal.WithLabelValues(outcome).Inc()

	for _, failure := range tc.Failures {
		FailuresTotal.WithLabelValues(failure.Type()).Inc()
	}
}
