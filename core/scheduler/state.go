package scheduler

import (
	"time"

	"github.com/kilianp07/prodsched/core/model"
)

// State is a phase of a scheduling run.
type State int

const (
	StateIdle State = iota
	StateSequencing
	StatePreparation
	StateFilling
	StateValidating
	StateRecommending
	StatePersisting
	StateDone
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSequencing:
		return "sequencing"
	case StatePreparation:
		return "scheduling_preparation"
	case StateFilling:
		return "scheduling_filling"
	case StateValidating:
		return "validating"
	case StateRecommending:
		return "recommending"
	case StatePersisting:
		return "persisting"
	case StateDone:
		return "done"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool { return s == StateDone || s == StateErrored }

// StateEvent is published on every transition of a run. Result is set on
// the terminal transition only.
type StateEvent struct {
	Date   time.Time
	From   State
	To     State
	Err    error
	Result *model.ScheduleResult
	Time   time.Time
}
