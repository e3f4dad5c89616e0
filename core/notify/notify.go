// Package notify defines how finished schedules are announced to workers.
package notify

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/kilianp07/prodsched/core/model"
)

// ErrAckTimeout is returned when no acknowledgment is received before the timeout.
var ErrAckTimeout = errors.New("timeout waiting for ack")

// WorkerNotice is the message sent to one worker with their tasks of the day.
type WorkerNotice struct {
	MessageID string             `json:"message_id"`
	WorkerID  string             `json:"worker_id"`
	Date      string             `json:"date"`
	Tasks     []model.Assignment `json:"tasks"`
	SentAt    int64              `json:"sent_at"`
}

// ScheduleNotice summarises a run for supervisors.
type ScheduleNotice struct {
	MessageID       string   `json:"message_id"`
	Date            string   `json:"date"`
	Feasible        bool     `json:"feasible"`
	Tasks           int      `json:"tasks"`
	Issues          []string `json:"issues"`
	Recommendations []string `json:"recommendations"`
	SentAt          int64    `json:"sent_at"`
}

// Notifier announces a schedule result.
type Notifier interface {
	Notify(ctx context.Context, result model.ScheduleResult) error
}

// Nop discards every notification.
type Nop struct{}

func (Nop) Notify(context.Context, model.ScheduleResult) error { return nil }

// DateKey formats the production day used in topics and notices.
func DateKey(t time.Time) string { return t.Format(time.DateOnly) }

// GroupByWorker splits tasks per worker. Worker ids are returned sorted and
// each task list keeps the input order.
func GroupByWorker(tasks []model.Assignment) ([]string, map[string][]model.Assignment) {
	by := make(map[string][]model.Assignment)
	for _, t := range tasks {
		by[t.WorkerID] = append(by[t.WorkerID], t)
	}
	ids := make([]string, 0, len(by))
	for id := range by {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, by
}

// Recorder keeps notified results in memory.
type Recorder struct {
	mu      sync.Mutex
	Results []model.ScheduleResult
	Err     error
}

func (r *Recorder) Notify(_ context.Context, result model.ScheduleResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Results = append(r.Results, result)
	return nil
}

// Count returns the number of recorded results.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Results)
}
