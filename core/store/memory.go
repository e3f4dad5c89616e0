package store

import (
	"context"
	"sync"
	"time"

	"github.com/kilianp07/prodsched/core/model"
	"github.com/kilianp07/prodsched/core/timeutil"
)

// MemoryStore keeps scheduling data in memory for tests or lightweight usage.
type MemoryStore struct {
	mu          sync.RWMutex
	workers     []model.Worker
	areas       []model.ProductionArea
	templates   []model.ProcessStep
	orders      []model.ProductionOrder
	orderSteps  []model.OrderStep
	assignments map[time.Time][]model.Assignment
	alerts      []model.Alert
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{assignments: map[time.Time][]model.Assignment{}}
}

// Seed replaces the stored master data and orders.
func (s *MemoryStore) Seed(_ context.Context, d Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workers = append([]model.Worker(nil), d.Workers...)
	s.areas = append([]model.ProductionArea(nil), d.Areas...)
	s.templates = append([]model.ProcessStep(nil), d.ProcessSteps...)
	s.orders = append([]model.ProductionOrder(nil), d.Orders...)
	s.orderSteps = append([]model.OrderStep(nil), d.OrderSteps...)
	return nil
}

func (s *MemoryStore) ListWorkers(context.Context) ([]model.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Worker(nil), s.workers...), nil
}

func (s *MemoryStore) ListAreas(context.Context) ([]model.ProductionArea, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.ProductionArea(nil), s.areas...), nil
}

func (s *MemoryStore) ListProcessSteps(context.Context) ([]model.ProcessStep, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.ProcessStep(nil), s.templates...), nil
}

// ListOrders returns the orders whose scheduled date falls on the calendar
// day of date.
func (s *MemoryStore) ListOrders(_ context.Context, date time.Time) ([]model.ProductionOrder, []model.OrderStep, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	day := DayKey(date)
	var orders []model.ProductionOrder
	ids := map[string]bool{}
	for _, o := range s.orders {
		if DayKey(o.ScheduledDate).Equal(day) {
			orders = append(orders, o)
			ids[o.ID] = true
		}
	}
	var steps []model.OrderStep
	for _, st := range s.orderSteps {
		if ids[st.OrderID] {
			steps = append(steps, st)
		}
	}
	return orders, steps, nil
}

func (s *MemoryStore) SaveAssignments(_ context.Context, date time.Time, tasks []model.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments[DayKey(date)] = append([]model.Assignment(nil), tasks...)
	return nil
}

func (s *MemoryStore) RaiseAlerts(_ context.Context, alerts []model.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, alerts...)
	return nil
}

// Assignments returns the assignments saved for date.
func (s *MemoryStore) Assignments(date time.Time) []model.Assignment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Assignment(nil), s.assignments[DayKey(date)]...)
}

// Alerts returns every alert raised so far.
func (s *MemoryStore) Alerts() []model.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Alert(nil), s.alerts...)
}

// DayKey is the UTC midnight of the calendar day of t, used to key
// per-day records.
func DayKey(t time.Time) time.Time {
	d := timeutil.Day(t)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}
