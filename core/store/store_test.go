package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/prodsched/core/model"
)

func TestBuildOrderView_SortsStepsAndJoins(t *testing.T) {
	areas := []model.ProductionArea{{ID: "p", Kind: model.AreaPreparation}, {ID: "f", Kind: model.AreaFilling}}
	tmpls := []model.ProcessStep{{ID: "cut", AreaID: "p", TimePerKg: 1}, {ID: "fill", AreaID: "f", TimePerKg: 1}}
	orders := []model.ProductionOrder{{ID: "o1", TotalQuantity: 10}}
	steps := []model.OrderStep{
		{ID: "s2", OrderID: "o1", ProcessStepID: "fill", Sequence: 2},
		{ID: "s1", OrderID: "o1", ProcessStepID: "cut", Sequence: 1},
	}
	view, err := BuildOrderView(orders, steps, tmpls, areas)
	require.NoError(t, err)
	require.Len(t, view, 1)
	require.Len(t, view[0].Steps, 2)
	assert.Equal(t, "s1", view[0].Steps[0].ID)
	assert.Equal(t, model.AreaPreparation, view[0].Steps[0].Area.Kind)
	assert.Equal(t, "fill", view[0].Steps[1].Template.ID)
}

func TestBuildOrderView_MissingReferences(t *testing.T) {
	orders := []model.ProductionOrder{{ID: "o1", TotalQuantity: 10}}
	steps := []model.OrderStep{{ID: "s1", OrderID: "o1", ProcessStepID: "ghost", Sequence: 1}}
	_, err := BuildOrderView(orders, steps, nil, nil)
	assert.True(t, errors.Is(err, ErrMissingTemplate), "got %v", err)

	tmpls := []model.ProcessStep{{ID: "ghost", AreaID: "nowhere", TimePerKg: 1}}
	_, err = BuildOrderView(orders, steps, tmpls, nil)
	assert.True(t, errors.Is(err, ErrMissingArea), "got %v", err)
}

func TestBuildOrderView_RejectsNonPositiveQuantity(t *testing.T) {
	_, err := BuildOrderView([]model.ProductionOrder{{ID: "o1"}}, nil, nil, nil)
	assert.Error(t, err)
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	require.NoError(t, s.Seed(ctx, DemoDataset(date)))

	orders, steps, err := s.ListOrders(ctx, date.Add(13*time.Hour))
	require.NoError(t, err)
	assert.Len(t, orders, 3)
	assert.Len(t, steps, 9)

	other, _, err := s.ListOrders(ctx, date.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, other)

	tasks := []model.Assignment{{ID: "a1", WorkerID: "w-anna"}}
	require.NoError(t, s.SaveAssignments(ctx, date, tasks))
	require.NoError(t, s.SaveAssignments(ctx, date, tasks))
	assert.Len(t, s.Assignments(date), 1)

	require.NoError(t, s.RaiseAlerts(ctx, []model.Alert{{Type: model.AlertInfo, Message: "hi"}}))
	assert.Len(t, s.Alerts(), 1)
}

func TestDemoDataset_Estimates(t *testing.T) {
	d := DemoDataset(time.Now())
	for _, s := range d.OrderSteps {
		if s.EstimatedDuration <= 0 {
			t.Fatalf("step %s has no estimate", s.ID)
		}
	}
}

func TestLoadDataset_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plant.yaml")
	data := `
workers:
  - id: w1
    name: Anna
    skills: [cutting]
    is_available: true
    working_time: {start_time: "06:00", end_time: "14:00", max_hours: 8}
areas:
  - {id: p, name: Kitchen, kind: preparation, start_time: "06:00"}
process_steps:
  - {id: cut, name: Cutting, required_skills: [cutting], time_per_kg: 2, required_employees: 1, area_id: p}
orders:
  - {id: o1, product_name: Soup, total_quantity: 100, priority: high, scheduled_date: 2025-06-02T00:00:00Z}
order_steps:
  - {id: s1, order_id: o1, process_step_id: cut, sequence: 1}
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	d, err := LoadDataset(path)
	require.NoError(t, err)
	require.Len(t, d.Workers, 1)
	assert.Equal(t, "14:00", d.Workers[0].WorkingTime.EndTime)
	assert.Equal(t, model.AreaPreparation, d.Areas[0].Kind)
	assert.InDelta(t, 200, d.OrderSteps[0].EstimatedDuration, 1e-9)
}
