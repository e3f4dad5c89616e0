package scheduler

import (
	"cmp"
	"slices"

	"github.com/kilianp07/prodsched/core/model"
)

// SequenceOrders returns the orders in processing order. Equal keys keep
// their input order and the input slice is left untouched.
func SequenceOrders(orders []model.OrderWithSteps, policy SequencePolicy) []model.OrderWithSteps {
	out := slices.Clone(orders)
	byQuantity := func(a, b model.OrderWithSteps) int {
		return cmp.Compare(a.Order.TotalQuantity, b.Order.TotalQuantity)
	}
	switch policy {
	case SequenceByPriority:
		slices.SortStableFunc(out, func(a, b model.OrderWithSteps) int {
			if c := cmp.Compare(a.Order.Priority.Rank(), b.Order.Priority.Rank()); c != 0 {
				return c
			}
			return byQuantity(a, b)
		})
	default:
		slices.SortStableFunc(out, byQuantity)
	}
	return out
}
