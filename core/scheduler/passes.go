package scheduler

import (
	"fmt"
	"time"

	"github.com/kilianp07/prodsched/core/logger"
	"github.com/kilianp07/prodsched/core/model"
	"github.com/kilianp07/prodsched/core/timeutil"
)

// anchors are the fixed instants the two passes start from.
type anchors struct {
	prep     time.Time
	fill     time.Time
	prepArea map[string]time.Time
	fillArea map[string]time.Time
}

// resolveAnchors reads the configured anchors for date. The first
// preparation area carrying a start time and the first filling area
// carrying an end time override the configured values; every area that
// carries its own anchor also seeds its per-area clock.
func resolveAnchors(cfg Config, date time.Time, areas []model.ProductionArea) (anchors, error) {
	prepH, err := timeutil.ParseHHMM(cfg.PreparationStart)
	if err != nil {
		return anchors{}, fmt.Errorf("preparation start: %w", err)
	}
	fillH, err := timeutil.ParseHHMM(cfg.FillingEnd)
	if err != nil {
		return anchors{}, fmt.Errorf("filling end: %w", err)
	}
	a := anchors{
		prep:     timeutil.AtHours(date, prepH),
		fill:     timeutil.AtHours(date, fillH),
		prepArea: map[string]time.Time{},
		fillArea: map[string]time.Time{},
	}
	for _, ar := range areas {
		switch {
		case ar.Kind == model.AreaPreparation && ar.StartTime != "":
			h, err := timeutil.ParseHHMM(ar.StartTime)
			if err != nil {
				return anchors{}, fmt.Errorf("area %s start time: %w", ar.ID, err)
			}
			if len(a.prepArea) == 0 {
				a.prep = timeutil.AtHours(date, h)
			}
			a.prepArea[ar.ID] = timeutil.AtHours(date, h)
		case ar.Kind == model.AreaFilling && ar.EndTime != "":
			h, err := timeutil.ParseHHMM(ar.EndTime)
			if err != nil {
				return anchors{}, fmt.Errorf("area %s end time: %w", ar.ID, err)
			}
			if len(a.fillArea) == 0 {
				a.fill = timeutil.AtHours(date, h)
			}
			a.fillArea[ar.ID] = timeutil.AtHours(date, h)
		}
	}
	return a, nil
}

// timeline is the clock owned by one pass. In shared mode every area reads
// and moves the same clock.
type timeline struct {
	perArea bool
	anchor  time.Time
	seeds   map[string]time.Time
	clocks  map[string]time.Time
}

func newTimeline(mode ClockMode, anchor time.Time, seeds map[string]time.Time) *timeline {
	return &timeline{
		perArea: mode == ClockPerArea,
		anchor:  anchor,
		seeds:   seeds,
		clocks:  map[string]time.Time{},
	}
}

func (t *timeline) key(area string) string {
	if t.perArea {
		return area
	}
	return ""
}

func (t *timeline) now(area string) time.Time {
	k := t.key(area)
	if c, ok := t.clocks[k]; ok {
		return c
	}
	if s, ok := t.seeds[k]; ok {
		return s
	}
	return t.anchor
}

func (t *timeline) set(area string, v time.Time) {
	t.clocks[t.key(area)] = v
}

// planner runs the two placement passes of one scheduling run.
type planner struct {
	matcher *Matcher
	dep     DependencyChecker
	clock   ClockMode
	anchors anchors
	newID   func() string
	log     logger.Logger
}

// forward places preparation steps from the preparation anchor onward,
// orders in sequence and steps in step sequence. An understaffed step is
// reported and skipped without consuming time.
func (p *planner) forward(orders []model.OrderWithSteps) ([]model.Assignment, []Issue) {
	tl := newTimeline(p.clock, p.anchors.prep, p.anchors.prepArea)
	var (
		tasks  []model.Assignment
		issues []Issue
	)
	for _, o := range orders {
		for _, st := range o.StepsOfKind(model.AreaPreparation) {
			minutes := st.Template.DurationMinutes(o.Order.TotalQuantity)
			d := timeutil.Minutes(minutes)
			start := tl.now(st.Area.ID)
			need := headcount(st.Template)
			found := p.matcher.Available(st.Template, start, d, tasks)
			if len(found) < need {
				issues = append(issues, staffingIssue(o, st, need, len(found)))
				p.log.Warnf("preparation step %s of order %s skipped: need %d, found %d", st.Template.ID, o.Order.ID, need, len(found))
				continue
			}
			tasks = append(tasks, p.place(o, st, found[:need], start, start.Add(d), minutes)...)
			tl.set(st.Area.ID, start.Add(d))
		}
	}
	return tasks, issues
}

// backward places filling steps from the filling anchor backward, orders
// in reverse sequence and steps in reverse step sequence. prepared is the
// forward pass output; it feeds both the dependency check and the
// conflict check.
func (p *planner) backward(orders []model.OrderWithSteps, prepared []model.Assignment) ([]model.Assignment, []Issue) {
	tl := newTimeline(p.clock, p.anchors.fill, p.anchors.fillArea)
	var (
		tasks  []model.Assignment
		issues []Issue
	)
	for i := len(orders) - 1; i >= 0; i-- {
		o := orders[i]
		steps := o.StepsOfKind(model.AreaFilling)
		for j := len(steps) - 1; j >= 0; j-- {
			st := steps[j]
			minutes := st.Template.DurationMinutes(o.Order.TotalQuantity)
			d := timeutil.Minutes(minutes)
			end := tl.now(st.Area.ID)
			start := end.Add(-d)
			if reason := p.dep.Check(o, st, prepared); reason != "" {
				issues = append(issues, Issue{
					Class:   IssueDependency,
					Message: fmt.Sprintf("dependency not met for step %q in order %q: %s", st.Template.Name, o.Order.DisplayName(), reason),
				})
				p.log.Warnf("filling step %s of order %s skipped: %s", st.Template.ID, o.Order.ID, reason)
				continue
			}
			occupied := make([]model.Assignment, 0, len(prepared)+len(tasks))
			occupied = append(append(occupied, prepared...), tasks...)
			need := headcount(st.Template)
			found := p.matcher.Available(st.Template, start, d, occupied)
			if len(found) < need {
				issues = append(issues, staffingIssue(o, st, need, len(found)))
				p.log.Warnf("filling step %s of order %s skipped: need %d, found %d", st.Template.ID, o.Order.ID, need, len(found))
				continue
			}
			tasks = append(tasks, p.place(o, st, found[:need], start, end, minutes)...)
			tl.set(st.Area.ID, start)
		}
	}
	return tasks, issues
}

// place creates one assignment per worker over [start, end).
func (p *planner) place(o model.OrderWithSteps, st model.PlannedStep, workers []model.Worker, start, end time.Time, minutes float64) []model.Assignment {
	out := make([]model.Assignment, 0, len(workers))
	ids := make([]string, 0, len(workers))
	for _, w := range workers {
		out = append(out, model.Assignment{
			ID:              p.newID(),
			OrderID:         o.Order.ID,
			OrderStepID:     st.ID,
			ProcessStepID:   st.Template.ID,
			WorkerID:        w.ID,
			Start:           start,
			End:             end,
			DurationMinutes: minutes,
			AreaID:          st.Area.ID,
			Status:          model.StatusScheduled,
		})
		ids = append(ids, w.ID)
	}
	p.log.Debugw("step placed", map[string]any{
		"order":   o.Order.ID,
		"step":    st.Template.ID,
		"area":    st.Area.ID,
		"start":   start.Format("15:04"),
		"end":     end.Format("15:04"),
		"workers": ids,
	})
	return out
}

// headcount is the number of workers a step needs; at least one.
func headcount(s model.ProcessStep) int {
	if s.RequiredEmployees < 1 {
		return 1
	}
	return s.RequiredEmployees
}

func staffingIssue(o model.OrderWithSteps, st model.PlannedStep, need, found int) Issue {
	return Issue{
		Class: IssueStaffing,
		Message: fmt.Sprintf("insufficient skilled staff for step %q in order %q: need %d, found %d",
			st.Template.Name, o.Order.DisplayName(), need, found),
	}
}
