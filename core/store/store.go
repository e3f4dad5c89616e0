// Package store defines the data-access collaborator of the scheduling
// core and the boundary that turns raw rows into the typed order view.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/kilianp07/prodsched/core/model"
)

var (
	// ErrMissingTemplate is returned when an order step references an
	// unknown process step.
	ErrMissingTemplate = errors.New("missing process step template")
	// ErrMissingArea is returned when a process step references an
	// unknown production area.
	ErrMissingArea = errors.New("missing production area")
)

// Reader exposes the inputs of a scheduling run.
type Reader interface {
	ListWorkers(ctx context.Context) ([]model.Worker, error)
	ListAreas(ctx context.Context) ([]model.ProductionArea, error)
	ListProcessSteps(ctx context.Context) ([]model.ProcessStep, error)
	// ListOrders returns the orders scheduled on date and their steps.
	ListOrders(ctx context.Context, date time.Time) ([]model.ProductionOrder, []model.OrderStep, error)
}

// Writer receives the outputs of a scheduling run.
type Writer interface {
	// SaveAssignments replaces the assignments stored for date.
	SaveAssignments(ctx context.Context, date time.Time, tasks []model.Assignment) error
	RaiseAlerts(ctx context.Context, alerts []model.Alert) error
}

// Store is the full data-access collaborator.
type Store interface {
	Reader
	Writer
}

// LoadOrdersWithSteps builds the typed order view for date. Steps are
// sorted by sequence; a dangling template or area reference is an error.
func LoadOrdersWithSteps(ctx context.Context, r Reader, date time.Time, templates []model.ProcessStep, areas []model.ProductionArea) ([]model.OrderWithSteps, error) {
	orders, steps, err := r.ListOrders(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return BuildOrderView(orders, steps, templates, areas)
}

// BuildOrderView joins raw orders and order steps with their templates
// and areas. Orders keep their input order.
func BuildOrderView(orders []model.ProductionOrder, steps []model.OrderStep, templates []model.ProcessStep, areas []model.ProductionArea) ([]model.OrderWithSteps, error) {
	tmplByID := make(map[string]model.ProcessStep, len(templates))
	for _, t := range templates {
		tmplByID[t.ID] = t
	}
	areaByID := make(map[string]model.ProductionArea, len(areas))
	for _, a := range areas {
		areaByID[a.ID] = a
	}
	stepsByOrder := make(map[string][]model.OrderStep)
	for _, s := range steps {
		stepsByOrder[s.OrderID] = append(stepsByOrder[s.OrderID], s)
	}

	out := make([]model.OrderWithSteps, 0, len(orders))
	for _, o := range orders {
		if err := o.Validate(); err != nil {
			return nil, err
		}
		view := model.OrderWithSteps{Order: o}
		for _, s := range stepsByOrder[o.ID] {
			tmpl, ok := tmplByID[s.ProcessStepID]
			if !ok {
				return nil, fmt.Errorf("order %s step %s: %w %q", o.ID, s.ID, ErrMissingTemplate, s.ProcessStepID)
			}
			if tmpl.TimePerKg <= 0 {
				return nil, fmt.Errorf("process step %s: time per kg must be positive", tmpl.ID)
			}
			area, ok := areaByID[tmpl.AreaID]
			if !ok {
				return nil, fmt.Errorf("process step %s: %w %q", tmpl.ID, ErrMissingArea, tmpl.AreaID)
			}
			view.Steps = append(view.Steps, model.PlannedStep{OrderStep: s, Template: tmpl, Area: area})
		}
		sort.SliceStable(view.Steps, func(i, j int) bool {
			return view.Steps[i].Sequence < view.Steps[j].Sequence
		})
		out = append(out, view)
	}
	return out, nil
}
