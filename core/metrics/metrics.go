package metrics

import "time"

// RunSummary describes one scheduling run.
type RunSummary struct {
	RunID           string         `json:"run_id"`
	Date            time.Time      `json:"date"`
	StartedAt       time.Time      `json:"started_at"`
	Duration        time.Duration  `json:"duration"`
	State           string         `json:"state"`
	Feasible        bool           `json:"feasible"`
	Orders          int            `json:"orders"`
	Workers         int            `json:"workers"`
	Tasks           int            `json:"tasks"`
	Issues          int            `json:"issues"`
	IssuesByClass   map[string]int `json:"issues_by_class,omitempty"`
	Recommendations int            `json:"recommendations"`
	Utilization     float64        `json:"utilization"`
	Error           string         `json:"error,omitempty"`
}

// RunSink records scheduling runs.
type RunSink interface {
	RecordRun(s RunSummary) error
}

// WorkerLoad is the planned workload of one worker on one day.
type WorkerLoad struct {
	WorkerID string
	Date     time.Time
	Hours    float64
	Tasks    int
}

// WorkerLoadRecorder is implemented by sinks able to record worker loads.
type WorkerLoadRecorder interface {
	RecordWorkerLoad(loads []WorkerLoad) error
}

// NopSink implements RunSink and WorkerLoadRecorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordRun(RunSummary) error          { return nil }
func (NopSink) RecordWorkerLoad([]WorkerLoad) error   { return nil }

// TransitionRecorder is implemented by sinks tracking run state changes.
type TransitionRecorder interface {
	RecordTransition(state string, at time.Time) error
}
