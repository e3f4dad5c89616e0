package scheduler

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/prodsched/core/model"
)

// Utilization is the share of available workers holding at least one
// assignment. It is zero when nobody is available.
func Utilization(tasks []model.Assignment, workers []model.Worker) float64 {
	available := 0
	for _, w := range workers {
		if w.IsAvailable {
			available++
		}
	}
	if available == 0 {
		return 0
	}
	assigned := make(map[string]struct{})
	for _, t := range tasks {
		assigned[t.WorkerID] = struct{}{}
	}
	return float64(len(assigned)) / float64(available)
}

// Recommend derives advisories from a finished schedule. Advisories never
// affect feasibility.
func Recommend(tasks []model.Assignment, workers []model.Worker, templates []model.ProcessStep, orderCount int, th Thresholds) []string {
	var recs []string
	if orderCount == 0 {
		recs = append(recs, "no production orders scheduled for this date")
	}

	if orderCount > 0 && hasAvailable(workers) {
		u := Utilization(tasks, workers)
		switch {
		case u < th.LowUtilization:
			recs = append(recs, fmt.Sprintf("low worker utilization (%.0f%%): consider optimizing assignments", u*100))
		case u > th.HighUtilization:
			recs = append(recs, fmt.Sprintf("high worker utilization (%.0f%%): consider adding staff", u*100))
		}
	}

	for _, skill := range missingSkills(workers, templates) {
		recs = append(recs, fmt.Sprintf("skill gap: no available worker has skill %q", skill))
	}

	if len(tasks) > 0 {
		durations := make([]float64, len(tasks))
		for i, t := range tasks {
			durations[i] = t.DurationMinutes
		}
		if mean := stat.Mean(durations, nil); mean > th.LongTaskMinutes {
			recs = append(recs, fmt.Sprintf("average task duration %.0f minutes exceeds %.0f: consider splitting long tasks", mean, th.LongTaskMinutes))
		}
	}
	return recs
}

func hasAvailable(workers []model.Worker) bool {
	for _, w := range workers {
		if w.IsAvailable {
			return true
		}
	}
	return false
}

// missingSkills lists, sorted, the skills required by any template that no
// available worker holds.
func missingSkills(workers []model.Worker, templates []model.ProcessStep) []string {
	held := make(map[string]bool)
	for _, w := range workers {
		if !w.IsAvailable {
			continue
		}
		for _, s := range w.Skills {
			held[s] = true
		}
	}
	seen := make(map[string]bool)
	var out []string
	for _, t := range templates {
		for _, s := range t.RequiredSkills {
			if !held[s] && !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	sort.Strings(out)
	return out
}
