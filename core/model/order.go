package model

import (
	"fmt"
	"time"
)

// Priority of a production order.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank orders priorities from most to least urgent. Unknown values sort last.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// ProcessStep is a reusable work template shared by every order using it.
type ProcessStep struct {
	ID                string   `json:"id" yaml:"id"`
	Name              string   `json:"name" yaml:"name"`
	RequiredSkills    []string `json:"required_skills" yaml:"required_skills"`
	TimePerKg         float64  `json:"time_per_kg" yaml:"time_per_kg"` // minutes per kilogram
	RequiredEmployees int      `json:"required_employees" yaml:"required_employees"`
	AreaID            string   `json:"area_id" yaml:"area_id"`
}

// DurationMinutes returns the time the step takes for quantity kilograms.
func (s ProcessStep) DurationMinutes(quantity float64) float64 {
	return s.TimePerKg * quantity
}

// ProductionOrder is a batch of product to make on a given date.
type ProductionOrder struct {
	ID            string    `json:"id" yaml:"id"`
	ProductName   string    `json:"product_name" yaml:"product_name"`
	TotalQuantity float64   `json:"total_quantity" yaml:"total_quantity"` // kg
	Priority      Priority  `json:"priority" yaml:"priority"`
	Status        string    `json:"status" yaml:"status"`
	ScheduledDate time.Time `json:"scheduled_date" yaml:"scheduled_date"`
}

// Validate checks the order quantity.
func (o ProductionOrder) Validate() error {
	if o.TotalQuantity <= 0 {
		return fmt.Errorf("order %s: total quantity must be positive", o.ID)
	}
	return nil
}

// DisplayName returns the product name if set and the identifier otherwise.
func (o ProductionOrder) DisplayName() string {
	if o.ProductName != "" {
		return o.ProductName
	}
	return o.ID
}

// OrderStep is one order's instantiation of a process step.
type OrderStep struct {
	ID                string  `json:"id" yaml:"id"`
	OrderID           string  `json:"order_id" yaml:"order_id"`
	ProcessStepID     string  `json:"process_step_id" yaml:"process_step_id"`
	Sequence          int     `json:"sequence" yaml:"sequence"`
	EstimatedDuration float64 `json:"estimated_duration" yaml:"estimated_duration"` // minutes
}

// PlannedStep joins an order step with its template and owning area.
type PlannedStep struct {
	OrderStep
	Template ProcessStep
	Area     ProductionArea
}

// OrderWithSteps is the read-only view of an order consumed by the
// scheduling passes. Steps are sorted by sequence.
type OrderWithSteps struct {
	Order ProductionOrder
	Steps []PlannedStep
}

// StepsOfKind returns the steps whose area is of kind k, in sequence order.
func (o OrderWithSteps) StepsOfKind(k AreaKind) []PlannedStep {
	var out []PlannedStep
	for _, s := range o.Steps {
		if s.Area.Kind == k {
			out = append(out, s)
		}
	}
	return out
}
