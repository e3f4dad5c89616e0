// Package scheduler assigns a production day's process steps to skilled
// workers.
//
// A run is a single deterministic greedy pass. Orders are sequenced, then
// preparation steps are placed forward from a fixed start time and filling
// steps backward from a fixed end time. Each step takes
// timePerKg x quantity minutes and is staffed by the first qualified,
// available and conflict-free workers of the pool. Steps that cannot be
// staffed, or filling steps whose order has no preparation work, are
// skipped and reported as issues. A validator then reports double
// bookings and max-hours violations, and an advisory stage derives
// recommendations from the finished schedule.
//
// Engine.GenerateSchedule is the entry point.
package scheduler
