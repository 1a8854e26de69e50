// Package metrics holds the Prometheus collectors for workflow outcomes,
// compensations and upstream calls.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "saas_billing"

var (
	WorkflowOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "workflow_outcomes_total",
		Help:      "Workflow executions by workflow and outcome.",
	}, []string{"workflow", "outcome"})

	Compensations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "compensations_total",
		Help:      "Compensating actions by action and result.",
	}, []string{"action", "result"})

	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_requests_total",
		Help:      "Calls to external systems by system, operation and result.",
	}, []string{"system", "operation", "result"})

	UpstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upstream_request_duration_seconds",
		Help:      "Latency of calls to external systems.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"system", "operation"})
)

// ObserveUpstream records one external call.
func ObserveUpstream(system, operation string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	UpstreamRequests.WithLabelValues(system, operation, result).Inc()
	UpstreamDuration.WithLabelValues(system, operation).Observe(time.Since(start).Seconds())
}

func Outcome(workflow, outcome string) {
	WorkflowOutcomes.WithLabelValues(workflow, outcome).Inc()
}

func Compensation(action string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	Compensations.WithLabelValues(action, result).Inc()
}
