package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/prodsched/core/logger"
	"github.com/kilianp07/prodsched/core/metrics"
	"github.com/kilianp07/prodsched/core/model"
	"github.com/kilianp07/prodsched/core/monitoring"
	"github.com/kilianp07/prodsched/core/notify"
	"github.com/kilianp07/prodsched/core/runlog"
	"github.com/kilianp07/prodsched/core/store"
	"github.com/kilianp07/prodsched/core/timeutil"
	"github.com/kilianp07/prodsched/internal/eventbus"
)

// Engine generates daily schedules. Each call to GenerateSchedule is an
// independent run owning its own state; an Engine may serve concurrent runs
// as long as its collaborators are safe for concurrent use.
type Engine struct {
	cfg      Config
	store    store.Store
	log      logger.Logger
	sink     metrics.RunSink
	runs     runlog.Store
	notifier notify.Notifier
	bus      *eventbus.Bus[StateEvent]
	newID    func() string
	now      func() time.Time
}

// Option customises an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithSink sets the sink receiving a summary of every run.
func WithSink(s metrics.RunSink) Option { return func(e *Engine) { e.sink = s } }

// WithRunLog sets the store recording every run.
func WithRunLog(s runlog.Store) Option { return func(e *Engine) { e.runs = s } }

// WithNotifier sets the notifier used by the notify stage.
func WithNotifier(n notify.Notifier) Option { return func(e *Engine) { e.notifier = n } }

// WithEventBus publishes every state transition on b.
func WithEventBus(b *eventbus.Bus[StateEvent]) Option { return func(e *Engine) { e.bus = b } }

// WithIDGenerator overrides the assignment and run identifier source.
func WithIDGenerator(f func() string) Option {
	return func(e *Engine) {
		if f != nil {
			e.newID = f
		}
	}
}

// WithClock overrides the wall clock used for timestamps.
func WithClock(f func() time.Time) Option {
	return func(e *Engine) {
		if f != nil {
			e.now = f
		}
	}
}

// NewEngine validates cfg and returns an engine reading from and writing to st.
func NewEngine(cfg Config, st store.Store, opts ...Option) (*Engine, error) {
	if st == nil {
		return nil, errors.New("scheduler: store is required")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:      cfg,
		store:    st,
		log:      logger.Nop{},
		sink:     metrics.NopSink{},
		notifier: notify.Nop{},
		newID:    uuid.NewString,
		now:      time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.cfg }

// GenerateSchedule builds the schedule for the calendar day of date. It
// never returns an error: a failed run yields an infeasible result with
// no tasks and a single issue describing the cause.
func (e *Engine) GenerateSchedule(ctx context.Context, date time.Time) (res model.ScheduleResult) {
	r := &run{e: e, id: e.newID(), date: timeutil.Day(date), started: e.now()}
	defer func() {
		if v := recover(); v != nil {
			monitoring.CapturePanic(v, r.tags())
			res = r.fail(fmt.Errorf("panic: %v", v))
		}
		r.finish(ctx, res)
	}()
	if err := r.execute(ctx); err != nil {
		monitoring.CaptureException(err, r.tags())
		return r.fail(err)
	}
	return r.done()
}

// run holds the state of one scheduling run.
type run struct {
	e       *Engine
	id      string
	date    time.Time
	started time.Time
	state   State
	err     error

	workers   []model.Worker
	templates []model.ProcessStep
	orders    []model.OrderWithSteps
	planner   *planner

	prep   []model.Assignment
	fill   []model.Assignment
	issues []Issue
	recs   []string
}

func (r *run) tags() map[string]string {
	return map[string]string{
		"module": "scheduler",
		"run_id": r.id,
		"date":   r.date.Format(time.DateOnly),
		"state":  r.state.String(),
	}
}

func (r *run) execute(ctx context.Context) error {
	phases := []struct {
		state State
		fn    func(context.Context) error
	}{
		{StateSequencing, r.sequence},
		{StatePreparation, r.prepare},
		{StateFilling, r.fillPass},
		{StateValidating, r.validate},
		{StateRecommending, r.recommend},
		{StatePersisting, r.persist},
	}
	for _, p := range phases {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("run cancelled: %w", err)
		}
		r.transition(p.state, nil, nil)
		if err := p.fn(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) transition(to State, err error, res *model.ScheduleResult) {
	from := r.state
	r.state = to
	r.e.log.Debugf("run %s %s -> %s", r.id, from, to)
	if r.e.bus != nil {
		r.e.bus.Publish(StateEvent{Date: r.date, From: from, To: to, Err: err, Result: res, Time: r.e.now()})
	}
}

func (r *run) sequence(ctx context.Context) error {
	st := r.e.store
	workers, err := st.ListWorkers(ctx)
	if err != nil {
		return fmt.Errorf("list workers: %w", err)
	}
	areas, err := st.ListAreas(ctx)
	if err != nil {
		return fmt.Errorf("list areas: %w", err)
	}
	for _, a := range areas {
		if err := a.Validate(); err != nil {
			return err
		}
	}
	templates, err := st.ListProcessSteps(ctx)
	if err != nil {
		return fmt.Errorf("list process steps: %w", err)
	}
	orders, err := store.LoadOrdersWithSteps(ctx, st, r.date, templates, areas)
	if err != nil {
		return err
	}
	matcher, err := NewMatcher(r.date, workers)
	if err != nil {
		return err
	}
	anch, err := resolveAnchors(r.e.cfg, r.date, areas)
	if err != nil {
		return err
	}
	r.workers = workers
	r.templates = templates
	r.orders = SequenceOrders(orders, r.e.cfg.Sequencing)
	r.planner = &planner{
		matcher: matcher,
		dep:     DependencyChecker{Mode: r.e.cfg.Dependency},
		clock:   r.e.cfg.Clock,
		anchors: anch,
		newID:   r.e.newID,
		log:     r.e.log,
	}
	r.e.log.Infof("scheduling %d orders with %d workers for %s", len(r.orders), len(workers), r.date.Format(time.DateOnly))
	return nil
}

func (r *run) prepare(context.Context) error {
	tasks, issues := r.planner.forward(r.orders)
	r.prep = tasks
	r.issues = append(r.issues, issues...)
	return nil
}

func (r *run) fillPass(context.Context) error {
	tasks, issues := r.planner.backward(r.orders, r.prep)
	r.fill = tasks
	r.issues = append(r.issues, issues...)
	return nil
}

func (r *run) tasks() []model.Assignment {
	out := make([]model.Assignment, 0, len(r.prep)+len(r.fill))
	return append(append(out, r.prep...), r.fill...)
}

func (r *run) validate(context.Context) error {
	r.issues = append(r.issues, ValidateSchedule(r.tasks(), r.workers)...)
	return nil
}

func (r *run) recommend(context.Context) error {
	if !r.e.cfg.Enabled(StageRecommend) {
		return nil
	}
	r.recs = Recommend(r.tasks(), r.workers, r.templates, len(r.orders), r.e.cfg.Thresholds)
	return nil
}

func (r *run) persist(ctx context.Context) error {
	if r.e.cfg.Enabled(StagePersist) {
		if err := r.e.store.SaveAssignments(ctx, r.date, r.tasks()); err != nil {
			return fmt.Errorf("persist assignments: %w", err)
		}
	}
	// Assignments are already stored at this point, so a failed alert
	// batch is reported without failing the run.
	if r.e.cfg.Enabled(StageAlerts) {
		if alerts := r.alerts(); len(alerts) > 0 {
			if err := r.e.store.RaiseAlerts(ctx, alerts); err != nil {
				err = fmt.Errorf("raise alerts: %w", err)
				monitoring.CaptureException(err, r.tags())
				r.e.log.Warnf("run %s: %v", r.id, err)
			}
		}
	}
	return nil
}

// alerts turns every issue into a warning and every recommendation into
// an info record.
func (r *run) alerts() []model.Alert {
	now := r.e.now()
	out := make([]model.Alert, 0, len(r.issues)+len(r.recs))
	for _, i := range r.issues {
		out = append(out, model.Alert{Type: model.AlertWarning, Message: i.Message, Date: r.date, CreatedAt: now})
	}
	for _, m := range r.recs {
		out = append(out, model.Alert{Type: model.AlertInfo, Message: m, Date: r.date, CreatedAt: now})
	}
	return out
}

func (r *run) done() model.ScheduleResult {
	recs := r.recs
	if recs == nil {
		recs = []string{}
	}
	res := model.ScheduleResult{
		Date:            r.date,
		Tasks:           r.tasks(),
		Feasible:        len(r.issues) == 0,
		Issues:          messages(r.issues),
		Recommendations: recs,
	}
	r.transition(StateDone, nil, &res)
	return res
}

func (r *run) fail(err error) model.ScheduleResult {
	r.err = err
	msg := "schedule generation failed: " + err.Error()
	r.issues = []Issue{{Class: IssueFatal, Message: msg}}
	r.e.log.Errorf("run %s for %s failed in %s: %v", r.id, r.date.Format(time.DateOnly), r.state, err)
	res := model.ScheduleResult{
		Date:            r.date,
		Tasks:           []model.Assignment{},
		Feasible:        false,
		Issues:          []string{msg},
		Recommendations: []string{},
	}
	r.transition(StateErrored, err, &res)
	return res
}

// finish reports the run to metrics, the run log and the notifier. None
// of these affect the returned result.
func (r *run) finish(ctx context.Context, res model.ScheduleResult) {
	ctx = context.WithoutCancel(ctx)
	elapsed := r.e.now().Sub(r.started)
	util := Utilization(res.Tasks, r.workers)

	outcome := "infeasible"
	switch {
	case r.state == StateErrored:
		outcome = "errored"
	case res.Feasible:
		outcome = "feasible"
	}
	runsTotal.WithLabelValues(outcome).Inc()
	runDuration.Observe(elapsed.Seconds())
	byClass := map[string]int{}
	for _, i := range r.issues {
		issuesRaised.WithLabelValues(string(i.Class)).Inc()
		byClass[string(i.Class)]++
	}
	if r.state == StateDone {
		assignmentsPlaced.WithLabelValues(string(model.AreaPreparation)).Add(float64(len(r.prep)))
		assignmentsPlaced.WithLabelValues(string(model.AreaFilling)).Add(float64(len(r.fill)))
		utilization.Set(util)
	}

	summary := metrics.RunSummary{
		RunID:           r.id,
		Date:            r.date,
		StartedAt:       r.started,
		Duration:        elapsed,
		State:           r.state.String(),
		Feasible:        res.Feasible,
		Orders:          len(r.orders),
		Workers:         len(r.workers),
		Tasks:           len(res.Tasks),
		Issues:          len(res.Issues),
		IssuesByClass:   byClass,
		Recommendations: len(res.Recommendations),
		Utilization:     util,
	}
	if r.err != nil {
		summary.Error = r.err.Error()
	}
	r.e.log.Infof("run %s for %s finished: state=%s feasible=%t tasks=%d issues=%d",
		r.id, r.date.Format(time.DateOnly), r.state, res.Feasible, len(res.Tasks), len(res.Issues))

	if r.e.sink != nil {
		if err := r.e.sink.RecordRun(summary); err != nil {
			r.e.log.Warnf("record run: %v", err)
		}
		if rec, ok := r.e.sink.(metrics.WorkerLoadRecorder); ok && r.state == StateDone {
			if err := rec.RecordWorkerLoad(WorkerLoads(r.date, res.Tasks)); err != nil {
				r.e.log.Warnf("record worker load: %v", err)
			}
		}
	}
	if r.e.runs != nil {
		if err := r.e.runs.Append(ctx, runlog.Record{Timestamp: r.e.now(), Summary: summary, Result: res}); err != nil {
			r.e.log.Warnf("append run log: %v", err)
		}
	}
	if r.state == StateDone && r.e.cfg.Enabled(StageNotify) && r.e.notifier != nil {
		if err := r.e.notifier.Notify(ctx, res); err != nil {
			monitoring.CaptureException(err, r.tags())
			r.e.log.Warnf("notify schedule: %v", err)
		}
	}
}

// WorkerLoads sums the planned hours of every worker with tasks on date.
// Workers are returned in order of first appearance.
func WorkerLoads(date time.Time, tasks []model.Assignment) []metrics.WorkerLoad {
	var (
		out   []metrics.WorkerLoad
		index = map[string]int{}
	)
	for _, t := range tasks {
		i, ok := index[t.WorkerID]
		if !ok {
			i = len(out)
			index[t.WorkerID] = i
			out = append(out, metrics.WorkerLoad{WorkerID: t.WorkerID, Date: date})
		}
		out[i].Hours += t.End.Sub(t.Start).Hours()
		out[i].Tasks++
	}
	return out
}
