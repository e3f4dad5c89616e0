package scheduler

import (
	"fmt"
	"time"

	"github.com/kilianp07/prodsched/core/model"
	"github.com/kilianp07/prodsched/core/timeutil"
)

type candidate struct {
	worker     model.Worker
	start, end float64 // hours of day
}

// Matcher finds the workers able to take a step at a given instant.
type Matcher struct {
	day  time.Time
	pool []candidate
	byID map[string]model.Worker
}

// NewMatcher prepares the worker pool for the production day of date.
// Pool order is kept: callers staff steps with the first matches.
func NewMatcher(date time.Time, workers []model.Worker) (*Matcher, error) {
	m := &Matcher{
		day:  timeutil.Day(date),
		byID: make(map[string]model.Worker, len(workers)),
	}
	for _, w := range workers {
		if err := w.Validate(); err != nil {
			return nil, fmt.Errorf("worker pool: %w", err)
		}
		start, end, _ := w.Hours()
		m.pool = append(m.pool, candidate{worker: w, start: start, end: end})
		m.byID[w.ID] = w
	}
	return m, nil
}

// Worker returns the pool entry with the given id.
func (m *Matcher) Worker(id string) (model.Worker, bool) {
	w, ok := m.byID[id]
	return w, ok
}

// Available returns the workers who are flagged available, hold every
// skill the step requires, have at inside their working window and have no
// placed assignment overlapping [at, at+d). Instants outside the
// production day match nobody.
func (m *Matcher) Available(step model.ProcessStep, at time.Time, d time.Duration, placed []model.Assignment) []model.Worker {
	if !timeutil.Day(at).Equal(m.day) {
		return nil
	}
	hour := timeutil.HourOfDay(at)
	end := at.Add(d)
	var out []model.Worker
	for _, c := range m.pool {
		if !c.worker.IsAvailable {
			continue
		}
		if !c.worker.HasSkills(step.RequiredSkills) {
			continue
		}
		if hour < c.start || hour > c.end {
			continue
		}
		if busy(c.worker.ID, at, end, placed) {
			continue
		}
		out = append(out, c.worker)
	}
	return out
}

func busy(workerID string, start, end time.Time, placed []model.Assignment) bool {
	for _, a := range placed {
		if a.WorkerID == workerID && model.IntervalsOverlap(start, end, a.Start, a.End) {
			return true
		}
	}
	return false
}
