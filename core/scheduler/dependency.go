package scheduler

import (
	"fmt"

	"github.com/kilianp07/prodsched/core/model"
)

// DependencyChecker gates filling steps on preparation work of the same
// order.
type DependencyChecker struct {
	Mode DependencyMode
}

// Check returns an empty string when step may be placed and the reason
// otherwise. Non-filling steps always pass.
//
// Loose mode passes as soon as any preparation assignment exists for the
// order. Strict mode requires every preparation step of the order with a
// lower sequence than step to have at least one assignment; an order
// without such steps passes.
func (d DependencyChecker) Check(order model.OrderWithSteps, step model.PlannedStep, prepared []model.Assignment) string {
	if step.Area.Kind != model.AreaFilling {
		return ""
	}
	if d.Mode == DependencyStrict {
		done := make(map[string]bool)
		for _, a := range prepared {
			if a.OrderID == order.Order.ID {
				done[a.OrderStepID] = true
			}
		}
		for _, p := range order.StepsOfKind(model.AreaPreparation) {
			if p.Sequence < step.Sequence && !done[p.ID] {
				return fmt.Sprintf("preparation step %q not completed", p.Template.Name)
			}
		}
		return ""
	}
	for _, a := range prepared {
		if a.OrderID == order.Order.ID {
			return ""
		}
	}
	return "no completed preparation work"
}

// Met reports whether step may be placed.
func (d DependencyChecker) Met(order model.OrderWithSteps, step model.PlannedStep, prepared []model.Assignment) bool {
	return d.Check(order, step, prepared) == ""
}
