package metrics

import (
	"context"

	coremetrics "github.com/kilianp07/prodsched/core/metrics"
	"github.com/kilianp07/prodsched/core/scheduler"
	"github.com/kilianp07/prodsched/internal/eventbus"
)

// StartEventCollector subscribes to the run state bus and forwards every
// transition to sink when it records transitions. It stops when the
// context is canceled or the bus is closed.
func StartEventCollector(ctx context.Context, bus *eventbus.Bus[scheduler.StateEvent], sink coremetrics.RunSink) {
	if bus == nil || sink == nil {
		return
	}
	rec, ok := sink.(coremetrics.TransitionRecorder)
	if !ok {
		return
	}
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				_ = rec.RecordTransition(ev.To.String(), ev.Time)
			}
		}
	}()
}
