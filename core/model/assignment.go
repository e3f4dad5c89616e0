package model

import "time"

// AssignmentStatus is the lifecycle state of an assignment.
type AssignmentStatus string

// StatusScheduled is the status of every assignment created by the scheduler.
const StatusScheduled AssignmentStatus = "scheduled"

// Assignment places one worker on one order step for a concrete interval.
type Assignment struct {
	ID              string           `json:"id" yaml:"id"`
	OrderID         string           `json:"order_id" yaml:"order_id"`
	OrderStepID     string           `json:"order_step_id" yaml:"order_step_id"`
	ProcessStepID   string           `json:"process_step_id" yaml:"process_step_id"`
	WorkerID        string           `json:"worker_id" yaml:"worker_id"`
	Start           time.Time        `json:"start" yaml:"start"`
	End             time.Time        `json:"end" yaml:"end"`
	DurationMinutes float64          `json:"duration_minutes" yaml:"duration_minutes"`
	AreaID          string           `json:"area_id" yaml:"area_id"`
	Status          AssignmentStatus `json:"status" yaml:"status"`
}

// Overlaps reports whether a and b share any instant, using the
// start-inside-span test in both directions.
func (a Assignment) Overlaps(b Assignment) bool {
	return IntervalsOverlap(a.Start, a.End, b.Start, b.End)
}

// IntervalsOverlap reports whether [s1,e1) and [s2,e2) conflict: one
// interval's start falls inside the other's span.
func IntervalsOverlap(s1, e1, s2, e2 time.Time) bool {
	inside := func(t, s, e time.Time) bool {
		return !t.Before(s) && t.Before(e)
	}
	return inside(s1, s2, e2) || inside(s2, s1, e1)
}

// ScheduleResult is the outcome of one scheduling run.
type ScheduleResult struct {
	Date            time.Time    `json:"date" yaml:"date"`
	Tasks           []Assignment `json:"tasks" yaml:"tasks"`
	Feasible        bool         `json:"feasible" yaml:"feasible"`
	Issues          []string     `json:"issues" yaml:"issues"`
	Recommendations []string     `json:"recommendations" yaml:"recommendations"`
}

// AlertType classifies alert records raised after a run.
type AlertType string

const (
	AlertWarning AlertType = "warning"
	AlertInfo    AlertType = "info"
)

// Alert summarises an issue (warning) or a recommendation (info).
type Alert struct {
	Type      AlertType `json:"type" yaml:"type"`
	Message   string    `json:"message" yaml:"message"`
	Date      time.Time `json:"date" yaml:"date"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}
