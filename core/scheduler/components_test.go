package scheduler

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/prodsched/core/logger"
	"github.com/kilianp07/prodsched/core/model"
)

func view(id string, qty float64, p model.Priority) model.OrderWithSteps {
	return model.OrderWithSteps{Order: model.ProductionOrder{ID: id, TotalQuantity: qty, Priority: p}}
}

func ids(orders []model.OrderWithSteps) []string {
	out := make([]string, len(orders))
	for i, o := range orders {
		out[i] = o.Order.ID
	}
	return out
}

func TestSequenceOrders(t *testing.T) {
	in := []model.OrderWithSteps{
		view("a", 300, model.PriorityLow),
		view("b", 50, model.PriorityMedium),
		view("c", 120, model.PriorityHigh),
		view("d", 50, model.PriorityHigh),
		view("e", 10, "urgent"),
	}
	assert.Equal(t, []string{"e", "b", "d", "c", "a"}, ids(SequenceOrders(in, SequenceByQuantity)))
	assert.Equal(t, []string{"d", "c", "b", "a", "e"}, ids(SequenceOrders(in, SequenceByPriority)))
	assert.Equal(t, "a", in[0].Order.ID, "input must not be reordered")
}

func TestMatcher_Available(t *testing.T) {
	off := worker("off", "06:00", "17:00", "cutting")
	off.IsAvailable = false
	workers := []model.Worker{
		worker("early", "06:00", "10:00", "cutting"),
		worker("late", "12:00", "17:00", "cutting"),
		worker("cook", "06:00", "17:00", "cooking"),
		worker("both", "06:00", "17:00", "cutting", "cooking"),
		off,
	}
	m, err := NewMatcher(day, workers)
	require.NoError(t, err)

	step := model.ProcessStep{ID: "cut", RequiredSkills: []string{"cutting"}}
	names := func(ws []model.Worker) []string {
		var out []string
		for _, w := range ws {
			out = append(out, w.ID)
		}
		return out
	}
	assert.Equal(t, []string{"early", "both"}, names(m.Available(step, at(8, 0), time.Hour, nil)))
	assert.Equal(t, []string{"early", "both"}, names(m.Available(step, at(10, 0), time.Hour, nil)), "window end is inclusive")
	assert.Equal(t, []string{"late", "both"}, names(m.Available(step, at(13, 0), time.Hour, nil)))

	placed := []model.Assignment{{WorkerID: "both", Start: at(7, 30), End: at(8, 30)}}
	assert.Equal(t, []string{"early"}, names(m.Available(step, at(8, 0), time.Hour, placed)))
	assert.Equal(t, []string{"early", "both"}, names(m.Available(step, at(8, 30), time.Hour, placed)), "touching intervals do not overlap")

	multi := model.ProcessStep{RequiredSkills: []string{"cutting", "cooking"}}
	assert.Equal(t, []string{"both"}, names(m.Available(multi, at(8, 0), time.Hour, nil)))
	assert.Empty(t, m.Available(step, day.AddDate(0, 0, 1).Add(8*time.Hour), time.Hour, nil))

	w, ok := m.Worker("late")
	assert.True(t, ok)
	assert.Equal(t, "12:00", w.WorkingTime.StartTime)
}

func TestNewMatcher_InvalidWorker(t *testing.T) {
	_, err := NewMatcher(day, []model.Worker{worker("w", "9am", "17:00")})
	require.Error(t, err)
}

func TestDependencyChecker(t *testing.T) {
	cut := model.PlannedStep{OrderStep: model.OrderStep{ID: "s1", Sequence: 1}, Template: model.ProcessStep{Name: "Cut"}, Area: prepArea}
	cook := model.PlannedStep{OrderStep: model.OrderStep{ID: "s2", Sequence: 2}, Template: model.ProcessStep{Name: "Cook"}, Area: prepArea}
	fill := model.PlannedStep{OrderStep: model.OrderStep{ID: "s3", Sequence: 3}, Template: model.ProcessStep{Name: "Fill"}, Area: fillArea}
	order := model.OrderWithSteps{Order: model.ProductionOrder{ID: "o1"}, Steps: []model.PlannedStep{cut, cook, fill}}
	onlyCut := []model.Assignment{{OrderID: "o1", OrderStepID: "s1"}}
	other := []model.Assignment{{OrderID: "o2", OrderStepID: "x"}}

	loose := DependencyChecker{Mode: DependencyLoose}
	assert.True(t, loose.Met(order, fill, onlyCut))
	assert.Equal(t, "no completed preparation work", loose.Check(order, fill, other))
	assert.True(t, loose.Met(order, cook, nil), "preparation steps always pass")

	strict := DependencyChecker{Mode: DependencyStrict}
	assert.Equal(t, `preparation step "Cook" not completed`, strict.Check(order, fill, onlyCut))
	assert.True(t, strict.Met(order, fill, append(onlyCut, model.Assignment{OrderID: "o1", OrderStepID: "s2"})))

	fillOnly := model.OrderWithSteps{Order: model.ProductionOrder{ID: "o3"}, Steps: []model.PlannedStep{fill}}
	assert.True(t, strict.Met(fillOnly, fill, nil))
	assert.False(t, loose.Met(fillOnly, fill, nil))
}

func TestValidateSchedule(t *testing.T) {
	w1 := worker("w1", "06:00", "17:00")
	w1.WorkingTime.MaxHours = 2
	w2 := worker("w2", "06:00", "17:00")
	w2.WorkingTime.MaxHours = 0
	tasks := []model.Assignment{
		{WorkerID: "w1", OrderID: "o1", Start: at(6, 0), End: at(7, 30), DurationMinutes: 90},
		{WorkerID: "w1", OrderID: "o2", Start: at(7, 0), End: at(8, 0), DurationMinutes: 60},
		{WorkerID: "w2", OrderID: "o1", Start: at(6, 0), End: at(16, 0), DurationMinutes: 600},
		{WorkerID: "ghost", OrderID: "o3", Start: at(6, 0), End: at(7, 0), DurationMinutes: 60},
	}
	issues := ValidateSchedule(tasks, []model.Worker{w1, w2})
	require.Len(t, issues, 2)
	assert.Equal(t, IssueOverlap, issues[0].Class)
	assert.Contains(t, issues[0].Message, `worker "w1" has overlapping tasks`)
	assert.Equal(t, IssueMaxHours, issues[1].Class)
	assert.Equal(t, `worker "w1" exceeds max hours: 2.50h > 2.00h`, issues[1].Message)

	again := ValidateSchedule(tasks, []model.Worker{w1, w2})
	assert.True(t, reflect.DeepEqual(issues, again), "validation must be deterministic")
	assert.Len(t, tasks, 4, "validation must not change the schedule")
}

func TestValidateSchedule_Clean(t *testing.T) {
	tasks := []model.Assignment{
		{WorkerID: "w1", Start: at(6, 0), End: at(7, 0), DurationMinutes: 60},
		{WorkerID: "w1", Start: at(7, 0), End: at(8, 0), DurationMinutes: 60},
	}
	assert.Empty(t, ValidateSchedule(tasks, []model.Worker{worker("w1", "06:00", "17:00")}))
}

func TestRecommend(t *testing.T) {
	th := DefaultConfig().Thresholds
	workers := []model.Worker{
		worker("w1", "06:00", "17:00", "cutting"),
		worker("w2", "06:00", "17:00", "cutting"),
		worker("w3", "06:00", "17:00", "cutting"),
	}
	templates := []model.ProcessStep{{ID: "pack", RequiredSkills: []string{"packing", "cutting", "labelling"}}}
	low := []model.Assignment{{WorkerID: "w1", DurationMinutes: 300}}

	recs := Recommend(low, workers, templates, 1, th)
	assert.Equal(t, []string{
		"low worker utilization (33%): consider optimizing assignments",
		`skill gap: no available worker has skill "labelling"`,
		`skill gap: no available worker has skill "packing"`,
		"average task duration 300 minutes exceeds 240: consider splitting long tasks",
	}, recs)

	full := []model.Assignment{{WorkerID: "w1", DurationMinutes: 30}, {WorkerID: "w2", DurationMinutes: 30}, {WorkerID: "w3", DurationMinutes: 30}}
	assert.Equal(t, []string{"high worker utilization (100%): consider adding staff"}, Recommend(full, workers, nil, 1, th))

	mid := full[:1]
	wide := Thresholds{LowUtilization: 0.1, HighUtilization: 0.9, LongTaskMinutes: 240}
	assert.Empty(t, Recommend(mid, workers, nil, 1, wide))

	none := Recommend(nil, workers, nil, 0, th)
	assert.Equal(t, []string{"no production orders scheduled for this date"}, none)
}

func TestUtilization(t *testing.T) {
	off := worker("off", "06:00", "17:00")
	off.IsAvailable = false
	assert.Equal(t, 0.0, Utilization(nil, []model.Worker{off}))
	tasks := []model.Assignment{{WorkerID: "w1"}, {WorkerID: "w1"}}
	assert.Equal(t, 0.5, Utilization(tasks, []model.Worker{worker("w1", "06:00", "17:00"), worker("w2", "06:00", "17:00")}))
}

func testPlanner(t *testing.T, cfg Config, areas []model.ProductionArea, workers ...model.Worker) *planner {
	t.Helper()
	cfg.SetDefaults()
	m, err := NewMatcher(day, workers)
	require.NoError(t, err)
	a, err := resolveAnchors(cfg, day, areas)
	require.NoError(t, err)
	return &planner{matcher: m, dep: DependencyChecker{Mode: cfg.Dependency}, clock: cfg.Clock, anchors: a, newID: seqIDs(), log: logger.Nop{}}
}

func planned(order string, seq int, area model.ProductionArea, perKg float64, skills ...string) model.PlannedStep {
	return model.PlannedStep{
		OrderStep: model.OrderStep{ID: order + "-" + area.ID, OrderID: order, Sequence: seq},
		Template:  model.ProcessStep{ID: area.ID + "-step", Name: area.ID, TimePerKg: perKg, RequiredEmployees: 1, RequiredSkills: skills, AreaID: area.ID},
		Area:      area,
	}
}

func TestPlanner_PerAreaClocks(t *testing.T) {
	kitchen := model.ProductionArea{ID: "kitchen", Kind: model.AreaPreparation}
	bakery := model.ProductionArea{ID: "bakery", Kind: model.AreaPreparation, StartTime: "07:00"}
	areas := []model.ProductionArea{kitchen, bakery}
	orders := []model.OrderWithSteps{
		{Order: model.ProductionOrder{ID: "o1", TotalQuantity: 60}, Steps: []model.PlannedStep{planned("o1", 1, kitchen, 1)}},
		{Order: model.ProductionOrder{ID: "o2", TotalQuantity: 60}, Steps: []model.PlannedStep{planned("o2", 1, bakery, 1)}},
	}
	workers := []model.Worker{worker("w1", "06:00", "17:00"), worker("w2", "06:00", "17:00")}

	shared := testPlanner(t, Config{}, areas, workers...)
	tasks, issues := shared.forward(orders)
	require.Empty(t, issues)
	require.Len(t, tasks, 2)
	assert.Equal(t, at(7, 0), tasks[0].Start, "bakery anchor overrides the shared preparation start")
	assert.Equal(t, at(8, 0), tasks[1].Start)

	perArea := testPlanner(t, Config{Clock: ClockPerArea}, areas, workers...)
	tasks, issues = perArea.forward(orders)
	require.Empty(t, issues)
	require.Len(t, tasks, 2)
	assert.Equal(t, at(7, 0), tasks[0].Start, "kitchen uses the resolved preparation anchor")
	assert.Equal(t, at(7, 0), tasks[1].Start, "bakery keeps its own clock")
	assert.NotEqual(t, tasks[0].WorkerID, tasks[1].WorkerID)
}

func TestPlanner_SkippedStepDoesNotAdvanceClock(t *testing.T) {
	areas := []model.ProductionArea{prepArea}
	orders := []model.OrderWithSteps{
		{Order: model.ProductionOrder{ID: "o1", TotalQuantity: 30}, Steps: []model.PlannedStep{planned("o1", 1, prepArea, 1, "rare")}},
		{Order: model.ProductionOrder{ID: "o2", TotalQuantity: 30}, Steps: []model.PlannedStep{planned("o2", 1, prepArea, 1)}},
	}
	p := testPlanner(t, Config{}, areas, worker("w1", "06:00", "17:00"))
	tasks, issues := p.forward(orders)
	require.Len(t, issues, 1)
	assert.Equal(t, IssueStaffing, issues[0].Class)
	require.Len(t, tasks, 1)
	assert.Equal(t, at(6, 0), tasks[0].Start)
}

func TestPlanner_BackwardAvoidsPreparedWork(t *testing.T) {
	areas := []model.ProductionArea{prepArea, fillArea}
	orders := []model.OrderWithSteps{{
		Order: model.ProductionOrder{ID: "o1", TotalQuantity: 60},
		Steps: []model.PlannedStep{planned("o1", 1, prepArea, 1), planned("o1", 2, fillArea, 1)},
	}}
	cfg := Config{PreparationStart: "15:30"}
	p := testPlanner(t, cfg, areas, worker("w1", "06:00", "17:00"), worker("w2", "06:00", "17:00"))
	prep, issues := p.forward(orders)
	require.Empty(t, issues)
	fill, issues := p.backward(orders, prep)
	require.Empty(t, issues)
	require.Len(t, fill, 1)
	assert.NotEqual(t, prep[0].WorkerID, fill[0].WorkerID)
	assert.Equal(t, at(17, 0), fill[0].End)
}

func TestResolveAnchors_InvalidAreaTime(t *testing.T) {
	cfg := DefaultConfig()
	_, err := resolveAnchors(cfg, day, []model.ProductionArea{{ID: "a", Kind: model.AreaPreparation, StartTime: "25:00"}})
	require.Error(t, err)
}

func TestConfig_Defaults(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "06:00", cfg.PreparationStart)
	assert.Equal(t, "17:00", cfg.FillingEnd)
	assert.Equal(t, SequenceByQuantity, cfg.Sequencing)
	assert.Equal(t, DependencyLoose, cfg.Dependency)
	assert.Equal(t, ClockShared, cfg.Clock)
	assert.True(t, cfg.Enabled(StagePersist))
	assert.False(t, cfg.Enabled(StageNotify))
	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	bad := []Config{
		{PreparationStart: "6am"},
		{Sequencing: "random"},
		{Dependency: "maybe"},
		{Stages: []Stage{"archive"}},
		{Thresholds: Thresholds{LowUtilization: 0.99, HighUtilization: 0.5}},
	}
	for i, c := range bad {
		c.SetDefaults()
		assert.Error(t, c.Validate(), "case %d", i)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scheduler.yaml")
	data := `preparation_start: "05:30"
sequencing: priority
dependency: strict
clock: per_area
stages: [persist, notify]
thresholds:
  long_task_minutes: 120
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "05:30", cfg.PreparationStart)
	assert.Equal(t, "17:00", cfg.FillingEnd)
	assert.Equal(t, SequenceByPriority, cfg.Sequencing)
	assert.Equal(t, DependencyStrict, cfg.Dependency)
	assert.Equal(t, ClockPerArea, cfg.Clock)
	assert.True(t, cfg.Enabled(StageNotify))
	assert.False(t, cfg.Enabled(StageRecommend))
	assert.Equal(t, 120.0, cfg.Thresholds.LongTaskMinutes)
	assert.Equal(t, 0.70, cfg.Thresholds.LowUtilization)

	_, err = LoadConfig(filepath.Join(dir, "scheduler.toml"))
	require.Error(t, err)
}

func TestDecodeConfig(t *testing.T) {
	cfg, err := DecodeConfig(strings.NewReader(`{"filling_end":"18:00","clock":"shared"}`), "json")
	require.NoError(t, err)
	assert.Equal(t, "18:00", cfg.FillingEnd)

	_, err = DecodeConfig(strings.NewReader(`{"clock":"hourly"}`), "json")
	require.Error(t, err)
	_, err = DecodeConfig(strings.NewReader(``), "ini")
	require.Error(t, err)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "scheduling_preparation", StatePreparation.String())
	assert.Equal(t, "errored", StateErrored.String())
	assert.True(t, StateDone.Terminal())
	assert.False(t, StatePersisting.Terminal())
}
