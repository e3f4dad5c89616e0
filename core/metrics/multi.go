package metrics

import (
	"errors"
	"time"
)

// MultiSink fans run records out to several sinks.
type MultiSink struct {
	Sinks []RunSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...RunSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordRun forwards s to every sink and joins their errors.
func (m *MultiSink) RecordRun(s RunSummary) error {
	var errs []error
	for _, sink := range m.Sinks {
		if err := sink.RecordRun(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordWorkerLoad forwards loads to the sinks that record them.
func (m *MultiSink) RecordWorkerLoad(loads []WorkerLoad) error {
	var errs []error
	for _, sink := range m.Sinks {
		if rec, ok := sink.(WorkerLoadRecorder); ok {
			if err := rec.RecordWorkerLoad(loads); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// RecordTransition forwards state changes to the sinks that record them.
func (m *MultiSink) RecordTransition(state string, at time.Time) error {
	var errs []error
	for _, sink := range m.Sinks {
		if rec, ok := sink.(TransitionRecorder); ok {
			if err := rec.RecordTransition(state, at); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
