package scheduler

import (
	"fmt"
	"sort"

	"github.com/kilianp07/prodsched/core/model"
)

// ValidateSchedule reports double bookings and max-hours violations per
// worker. It never changes the schedule, and the same input always yields
// the same issues: workers are visited in pool order, then any unknown
// worker ids in lexical order.
//
// A worker without a positive MaxHours has no hours cap.
func ValidateSchedule(tasks []model.Assignment, workers []model.Worker) []Issue {
	byWorker := make(map[string][]model.Assignment)
	for _, t := range tasks {
		byWorker[t.WorkerID] = append(byWorker[t.WorkerID], t)
	}

	order := make([]model.Worker, 0, len(byWorker))
	known := make(map[string]bool, len(workers))
	for _, w := range workers {
		known[w.ID] = true
		if _, ok := byWorker[w.ID]; ok {
			order = append(order, w)
		}
	}
	var unknown []string
	for id := range byWorker {
		if !known[id] {
			unknown = append(unknown, id)
		}
	}
	sort.Strings(unknown)
	for _, id := range unknown {
		order = append(order, model.Worker{ID: id})
	}

	var issues []Issue
	for _, w := range order {
		list := append([]model.Assignment(nil), byWorker[w.ID]...)
		sort.SliceStable(list, func(i, j int) bool { return list[i].Start.Before(list[j].Start) })

		hours := 0.0
		for i, a := range list {
			hours += a.DurationMinutes / 60
			if i == 0 {
				continue
			}
			prev := list[i-1]
			if a.Start.Before(prev.End) {
				issues = append(issues, Issue{
					Class: IssueOverlap,
					Message: fmt.Sprintf("worker %q has overlapping tasks: %s-%s (order %s) and %s-%s (order %s)",
						w.DisplayName(),
						prev.Start.Format("15:04"), prev.End.Format("15:04"), prev.OrderID,
						a.Start.Format("15:04"), a.End.Format("15:04"), a.OrderID),
				})
			}
		}
		if limit := w.WorkingTime.MaxHours; limit > 0 && hours > limit {
			issues = append(issues, Issue{
				Class:   IssueMaxHours,
				Message: fmt.Sprintf("worker %q exceeds max hours: %.2fh > %.2fh", w.DisplayName(), hours, limit),
			})
		}
	}
	return issues
}
