package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/prodsched/core/model"
)

// Dataset is a complete set of scheduling inputs, used to seed stores.
type Dataset struct {
	Workers      []model.Worker          `json:"workers" yaml:"workers"`
	Areas        []model.ProductionArea  `json:"areas" yaml:"areas"`
	ProcessSteps []model.ProcessStep     `json:"process_steps" yaml:"process_steps"`
	Orders       []model.ProductionOrder `json:"orders" yaml:"orders"`
	OrderSteps   []model.OrderStep       `json:"order_steps" yaml:"order_steps"`
}

// Seeder is implemented by stores that can be filled from a Dataset.
type Seeder interface {
	Seed(ctx context.Context, d Dataset) error
}

// LoadDataset reads a Dataset from a JSON or YAML file.
func LoadDataset(path string) (Dataset, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Dataset{}, err
	}
	var d Dataset
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &d)
	case ".json":
		err = json.Unmarshal(b, &d)
	default:
		return Dataset{}, fmt.Errorf("unsupported dataset format: %s", filepath.Ext(path))
	}
	if err != nil {
		return Dataset{}, fmt.Errorf("decode dataset %s: %w", path, err)
	}
	d.fillEstimates()
	return d, nil
}

// fillEstimates computes missing order-step duration estimates.
func (d *Dataset) fillEstimates() {
	tmpl := make(map[string]model.ProcessStep, len(d.ProcessSteps))
	for _, t := range d.ProcessSteps {
		tmpl[t.ID] = t
	}
	qty := make(map[string]float64, len(d.Orders))
	for _, o := range d.Orders {
		qty[o.ID] = o.TotalQuantity
	}
	for i, s := range d.OrderSteps {
		if s.EstimatedDuration == 0 {
			d.OrderSteps[i].EstimatedDuration = tmpl[s.ProcessStepID].DurationMinutes(qty[s.OrderID])
		}
	}
}

// DemoDataset returns a small plant with two areas, four process steps,
// five workers and three orders scheduled on date.
func DemoDataset(date time.Time) Dataset {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	wt := func(start, end string, maxHours float64) model.WorkingTime {
		return model.WorkingTime{StartTime: start, EndTime: end, MaxHours: maxHours, BreakMinutes: 30}
	}
	d := Dataset{
		Workers: []model.Worker{
			{ID: "w-anna", Name: "Anna", Skills: []string{"cutting", "washing"}, WorkingTime: wt("06:00", "14:00", 8), IsAvailable: true},
			{ID: "w-ben", Name: "Ben", Skills: []string{"cutting", "cooking"}, WorkingTime: wt("06:00", "14:00", 8), IsAvailable: true},
			{ID: "w-cara", Name: "Cara", Skills: []string{"cooking"}, WorkingTime: wt("07:00", "15:00", 8), IsAvailable: true},
			{ID: "w-dan", Name: "Dan", Skills: []string{"filling", "packing"}, WorkingTime: wt("09:00", "17:00", 8), IsAvailable: true},
			{ID: "w-eva", Name: "Eva", Skills: []string{"filling"}, WorkingTime: wt("09:00", "17:00", 8), IsAvailable: true},
		},
		Areas: []model.ProductionArea{
			{ID: "a-prep", Name: "Kitchen", Kind: model.AreaPreparation, StartTime: "06:00"},
			{ID: "a-fill", Name: "Filling line", Kind: model.AreaFilling, EndTime: "17:00"},
		},
		ProcessSteps: []model.ProcessStep{
			{ID: "ps-cut", Name: "Cutting & Washing", RequiredSkills: []string{"cutting", "washing"}, TimePerKg: 0.5, RequiredEmployees: 1, AreaID: "a-prep"},
			{ID: "ps-cook", Name: "Cooking", RequiredSkills: []string{"cooking"}, TimePerKg: 0.4, RequiredEmployees: 1, AreaID: "a-prep"},
			{ID: "ps-fill", Name: "Filling", RequiredSkills: []string{"filling"}, TimePerKg: 0.3, RequiredEmployees: 2, AreaID: "a-fill"},
			{ID: "ps-pack", Name: "Packing", RequiredSkills: []string{"packing", "labelling"}, TimePerKg: 0.2, RequiredEmployees: 1, AreaID: "a-fill"},
		},
		Orders: []model.ProductionOrder{
			{ID: "o-soup", ProductName: "Tomato soup", TotalQuantity: 200, Priority: model.PriorityMedium, Status: "planned", ScheduledDate: day},
			{ID: "o-stew", ProductName: "Beef stew", TotalQuantity: 120, Priority: model.PriorityHigh, Status: "planned", ScheduledDate: day},
			{ID: "o-sauce", ProductName: "Pesto", TotalQuantity: 60, Priority: model.PriorityLow, Status: "planned", ScheduledDate: day},
		},
	}
	seq := 0
	add := func(order, step string, sequence int) {
		seq++
		d.OrderSteps = append(d.OrderSteps, model.OrderStep{
			ID: fmt.Sprintf("os-%d", seq), OrderID: order, ProcessStepID: step, Sequence: sequence,
		})
	}
	add("o-soup", "ps-cut", 1)
	add("o-soup", "ps-cook", 2)
	add("o-soup", "ps-fill", 3)
	add("o-stew", "ps-cut", 1)
	add("o-stew", "ps-cook", 2)
	add("o-stew", "ps-fill", 3)
	add("o-stew", "ps-pack", 4)
	add("o-sauce", "ps-cook", 1)
	add("o-sauce", "ps-fill", 2)
	d.fillEstimates()
	return d
}
