package model

import (
	"fmt"

	"github.com/kilianp07/prodsched/core/timeutil"
)

// TimeWindow is an extra availability window in "HH:MM" notation.
type TimeWindow struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

// WorkingTime describes when a worker can be scheduled on a production day.
type WorkingTime struct {
	StartTime    string  `json:"start_time" yaml:"start_time"` // "HH:MM"
	EndTime      string  `json:"end_time" yaml:"end_time"`     // "HH:MM"
	MaxHours     float64 `json:"max_hours" yaml:"max_hours"`
	BreakMinutes int     `json:"break_minutes" yaml:"break_minutes"`

	// Windows lists additional availability periods. The scheduler does
	// not read them yet.
	Windows []TimeWindow `json:"windows,omitempty" yaml:"windows,omitempty"`
}

// Worker is a member of the production staff pool.
type Worker struct {
	ID          string      `json:"id" yaml:"id"`
	Name        string      `json:"name" yaml:"name"`
	Skills      []string    `json:"skills" yaml:"skills"`
	WorkingTime WorkingTime `json:"working_time" yaml:"working_time"`
	IsAvailable bool        `json:"is_available" yaml:"is_available"`
}

// HasSkills reports whether the worker holds every skill in required.
func (w Worker) HasSkills(required []string) bool {
	if len(required) == 0 {
		return true
	}
	held := make(map[string]struct{}, len(w.Skills))
	for _, s := range w.Skills {
		held[s] = struct{}{}
	}
	for _, r := range required {
		if _, ok := held[r]; !ok {
			return false
		}
	}
	return true
}

// HasSkill reports whether the worker holds the given skill.
func (w Worker) HasSkill(skill string) bool {
	for _, s := range w.Skills {
		if s == skill {
			return true
		}
	}
	return false
}

// Hours returns the working window as fractional hours of the day.
func (w Worker) Hours() (start, end float64, err error) {
	start, err = timeutil.ParseHHMM(w.WorkingTime.StartTime)
	if err != nil {
		return 0, 0, fmt.Errorf("worker %s start time: %w", w.ID, err)
	}
	end, err = timeutil.ParseHHMM(w.WorkingTime.EndTime)
	if err != nil {
		return 0, 0, fmt.Errorf("worker %s end time: %w", w.ID, err)
	}
	return start, end, nil
}

// DisplayName returns the name if set and the identifier otherwise.
func (w Worker) DisplayName() string {
	if w.Name != "" {
		return w.Name
	}
	return w.ID
}

// Validate checks that the worker's working window is well formed.
func (w Worker) Validate() error {
	if w.ID == "" {
		return fmt.Errorf("worker id is required")
	}
	start, end, err := w.Hours()
	if err != nil {
		return err
	}
	if start > end {
		return fmt.Errorf("worker %s: start time %s after end time %s", w.ID, w.WorkingTime.StartTime, w.WorkingTime.EndTime)
	}
	if w.WorkingTime.MaxHours < 0 {
		return fmt.Errorf("worker %s: max hours must not be negative", w.ID)
	}
	return nil
}
