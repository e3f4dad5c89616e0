package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/prodsched/core/metrics"
)

// PromSink exposes run summaries and worker loads as Prometheus metrics.
type PromSink struct {
	runs        *prometheus.CounterVec
	lastTasks   prometheus.Gauge
	lastIssues  *prometheus.GaugeVec
	lastRun     prometheus.Gauge
	workerHours *prometheus.GaugeVec
	transitions *prometheus.CounterVec
}

// NewPromSink registers run metrics on the default Prometheus registerer.
// The Prometheus server should be started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// register adds c to reg, reusing an identical collector registered earlier.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	var (
		s   PromSink
		err error
	)
	if s.runs, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_run_summaries_total",
		Help: "Scheduling runs by terminal state and feasibility",
	}, []string{"state", "feasible"})); err != nil {
		return nil, err
	}
	if s.lastTasks, err = register[prometheus.Gauge](reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "schedule_last_run_tasks",
		Help: "Number of assignments in the last run",
	})); err != nil {
		return nil, err
	}
	if s.lastIssues, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "schedule_last_run_issues",
		Help: "Issues of the last run by class",
	}, []string{"class"})); err != nil {
		return nil, err
	}
	if s.lastRun, err = register[prometheus.Gauge](reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "schedule_last_run_timestamp_seconds",
		Help: "Unix time the last run started",
	})); err != nil {
		return nil, err
	}
	if s.workerHours, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "schedule_worker_planned_hours",
		Help: "Planned hours per worker in the last run",
	}, []string{"worker_id"})); err != nil {
		return nil, err
	}
	if s.transitions, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_state_transitions_total",
		Help: "Run state transitions by target state",
	}, []string{"state"})); err != nil {
		return nil, err
	}
	return &s, nil
}

// RecordRun updates the run counters and last-run gauges.
func (s *PromSink) RecordRun(r coremetrics.RunSummary) error {
	s.runs.WithLabelValues(r.State, strconv.FormatBool(r.Feasible)).Inc()
	s.lastTasks.Set(float64(r.Tasks))
	s.lastIssues.Reset()
	for class, n := range r.IssuesByClass {
		s.lastIssues.WithLabelValues(class).Set(float64(n))
	}
	s.lastRun.Set(float64(r.StartedAt.Unix()))
	return nil
}

// RecordWorkerLoad replaces the planned hours of every worker.
func (s *PromSink) RecordWorkerLoad(loads []coremetrics.WorkerLoad) error {
	s.workerHours.Reset()
	for _, l := range loads {
		s.workerHours.WithLabelValues(l.WorkerID).Set(l.Hours)
	}
	return nil
}

// RecordTransition counts a state transition.
func (s *PromSink) RecordTransition(state string, _ time.Time) error {
	s.transitions.WithLabelValues(state).Inc()
	return nil
}
