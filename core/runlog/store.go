// Package runlog keeps the history of scheduling runs: one record per run
// with its summary and full result.
package runlog

import (
	"context"
	"time"

	"github.com/kilianp07/prodsched/core/metrics"
	"github.com/kilianp07/prodsched/core/model"
)

// Record captures one scheduling run.
type Record struct {
	Timestamp time.Time            `json:"timestamp"`
	Summary   metrics.RunSummary   `json:"summary"`
	Result    model.ScheduleResult `json:"result"`
}

// Query defines filters for retrieving records. Start and End bound the
// scheduled date, inclusive; zero values leave the bound open.
type Query struct {
	Start    time.Time
	End      time.Time
	Feasible *bool
	WorkerID string
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// Matches reports whether r passes every filter of q.
func (q Query) Matches(r Record) bool {
	d := r.Summary.Date
	if !q.Start.IsZero() && d.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && d.After(q.End) {
		return false
	}
	if q.Feasible != nil && r.Summary.Feasible != *q.Feasible {
		return false
	}
	if q.WorkerID != "" {
		for _, t := range r.Result.Tasks {
			if t.WorkerID == q.WorkerID {
				return true
			}
		}
		return false
	}
	return true
}
