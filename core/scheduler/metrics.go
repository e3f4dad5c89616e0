package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	runsTotal         *prometheus.CounterVec
	runDuration       prometheus.Histogram
	assignmentsPlaced *prometheus.CounterVec
	issuesRaised      *prometheus.CounterVec
	utilization       prometheus.Gauge
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, prometheus.Histogram, *prometheus.CounterVec, *prometheus.CounterVec, prometheus.Gauge) {
	runs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schedule_runs_total",
			Help: "Number of scheduling runs by outcome",
		},
		[]string{"outcome"},
	)
	dur := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "schedule_run_duration_seconds",
			Help:    "Wall time of scheduling runs",
			Buckets: prometheus.DefBuckets,
		},
	)
	placed := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schedule_assignments_total",
			Help: "Number of worker assignments placed",
		},
		[]string{"area_kind"},
	)
	issues := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schedule_issues_total",
			Help: "Number of issues raised by scheduling runs",
		},
		[]string{"class"},
	)
	util := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "schedule_worker_utilization_ratio",
			Help: "Share of available workers assigned in the last run",
		},
	)
	return runs, dur, placed, issues, util
}

func init() {
	runsTotal, runDuration, assignmentsPlaced, issuesRaised, utilization = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers scheduler metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(runsTotal, runDuration, assignmentsPlaced, issuesRaised, utilization)
}

// ResetMetrics reinitializes the collectors for testing purposes and
// registers them on reg if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	runsTotal, runDuration, assignmentsPlaced, issuesRaised, utilization = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
