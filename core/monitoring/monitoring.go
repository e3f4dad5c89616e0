// Package monitoring forwards failures of scheduling runs to an error
// reporting backend.
package monitoring

import "time"

// Monitor defines methods used for error reporting.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	CapturePanic(value any, tags map[string]string)
	Flush(timeout time.Duration)
}

type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) CapturePanic(any, map[string]string)      {}
func (NopMonitor) Flush(time.Duration)                      {}

var current Monitor = NopMonitor{}

// Init sets the global monitor implementation.
func Init(m Monitor) {
	if m != nil {
		current = m
	}
}

// Reset restores the no-op monitor.
func Reset() { current = NopMonitor{} }

// CaptureException records the error with optional tags.
func CaptureException(err error, tags map[string]string) {
	if current != nil && err != nil {
		current.CaptureException(err, tags)
	}
}

// CapturePanic records a recovered panic value. It does not re-panic.
func CapturePanic(value any, tags map[string]string) {
	if current != nil && value != nil {
		current.CapturePanic(value, tags)
	}
}

// Flush flushes buffered events.
func Flush(d time.Duration) {
	if current != nil {
		current.Flush(d)
	}
}
