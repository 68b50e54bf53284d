// Package metrics holds Prometheus collectors for the scheduling core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the application registry exposed at /metrics.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

// AssignmentsCreatedTotal counts persisted assignments by source (manual|auto).
var AssignmentsCreatedTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "scheduler",
	Name:      "assignments_created_total",
	Help:      "Schedule assignments created, by source",
}, []string{"source"})

// AssignmentsReusedTotal counts assignment requests answered by an existing triple.
var AssignmentsReusedTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "scheduler",
	Name:      "assignments_reused_total",
	Help:      "Assignment requests that matched an existing (ticket, worker, date) triple",
})

// AutoAssignRunsTotal counts auto-assignment runs by outcome (ok|error).
var AutoAssignRunsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "scheduler",
	Name:      "auto_assign_runs_total",
	Help:      "Auto-assignment runs, by outcome",
}, []string{"outcome"})

// AutoAssignUnplacedTotal counts backlog tickets that fit no day of the week.
var AutoAssignUnplacedTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "scheduler",
	Name:      "auto_assign_unplaced_total",
	Help:      "Backlog tickets left unassigned because no day had enough capacity",
})

// AutoAssignDurationSeconds tracks the time of a single auto-assignment run.
var AutoAssignDurationSeconds = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "scheduler",
	Name:      "auto_assign_duration_seconds",
	Help:      "Time taken by one auto-assignment run",
	Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
})

// AvailabilityWritesTotal counts availability mutations by operation.
var AvailabilityWritesTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "availability",
	Name:      "writes_total",
	Help:      "Availability mutations, by operation",
}, []string{"operation"})

// AvailabilityRejectedTotal counts availability requests rejected by validation.
var AvailabilityRejectedTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "availability",
	Name:      "rejected_total",
	Help:      "Availability requests rejected by validation, by operation",
}, []string{"operation"})
