// Package tracker ties the ledgers, the event log and the stopwatch together
// behind the calls a host makes.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rpggio/psptrack/internal/domain/defect"
	"github.com/rpggio/psptrack/internal/domain/event"
	"github.com/rpggio/psptrack/internal/domain/phase"
	"github.com/rpggio/psptrack/internal/duration"
	"github.com/rpggio/psptrack/internal/metrics"
	"github.com/rpggio/psptrack/internal/stopwatch"
)

// Config contains the tracker dependencies. Host and Metrics may be nil.
type Config struct {
	Phases         phase.Repository
	Defects        defect.Repository
	EventLog       event.Appender
	Host           Host
	Metrics        *metrics.Metrics
	Logger         *slog.Logger
	DefaultComment string
	Clock          func() time.Time
}

// Status is a snapshot of the tracker for display.
type Status struct {
	State               string             `json:"state"`
	Phase               phase.Phase        `json:"phase"`
	SelectedDefect      string             `json:"selected_defect,omitempty"`
	InterruptionSeconds int64              `json:"interruption_seconds"`
	Progress            stopwatch.Progress `json:"progress"`
}

// Tracker owns the selected phase and defect and drives the stopwatch. It
// is not safe for concurrent use; Runner serializes access.
type Tracker struct {
	phases  *phase.Service
	defects *defect.Service
	events  *countingEvents
	sw      *stopwatch.Stopwatch
	host    Host
	metrics *metrics.Metrics
	logger  *slog.Logger

	phase    phase.Phase
	selected string
	progress stopwatch.Progress
}

// New wires the services and an idle stopwatch.
func New(cfg Config) *Tracker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	t := &Tracker{
		host:    cfg.Host,
		metrics: cfg.Metrics,
		logger:  logger,
	}

	var opts []event.Option
	if cfg.Clock != nil {
		opts = append(opts, event.WithClock(cfg.Clock))
	}
	phases := event.PhaseSourceFunc(func() string { return t.phase.String() })
	t.events = &countingEvents{
		next:    event.NewService(cfg.EventLog, phases, logger, opts...),
		metrics: cfg.Metrics,
	}
	t.phases = phase.NewService(cfg.Phases, logger)
	t.defects = defect.NewService(cfg.Defects, t.events, logger)
	t.sw = stopwatch.New(t.phases, t.defects, t.events, stopwatchHost{t: t}, logger,
		stopwatch.WithDefaultComment(cfg.DefaultComment))

	return t
}

// State returns the stopwatch state.
func (t *Tracker) State() stopwatch.State {
	return t.sw.State()
}

// Phase returns the selected phase.
func (t *Tracker) Phase() phase.Phase {
	return t.phase
}

// SelectedDefect returns the id of the defect accruing fix time, or "".
func (t *Tracker) SelectedDefect() string {
	return t.selected
}

// Start starts the stopwatch.
func (t *Tracker) Start(ctx context.Context) error {
	return t.check(t.sw.Start(ctx))
}

// Pause interrupts the stopwatch or resumes it.
func (t *Tracker) Pause(ctx context.Context) error {
	return t.check(t.sw.Pause(ctx))
}

// Stop stops the stopwatch.
func (t *Tracker) Stop(ctx context.Context) error {
	err := t.check(t.sw.Stop(ctx))
	if t.sw.State() == stopwatch.Idle {
		t.progress = stopwatch.Progress{}
	}
	return err
}

// OnTick counts one second. Runner calls it once per interval.
func (t *Tracker) OnTick(ctx context.Context) (stopwatch.Progress, error) {
	state := t.sw.State()
	progress, err := t.sw.OnTick(ctx)
	if err == nil && state != stopwatch.Idle && progress.Phase != phase.None {
		t.metrics.ObserveTick(progress.Phase.String(), state == stopwatch.Interrupted)
		t.progress = progress
	}
	return progress, t.check(err)
}

// SelectPhase changes the phase time is counted against. phase.None clears
// the selection.
func (t *Tracker) SelectPhase(p phase.Phase) error {
	if p != phase.None && !p.Valid() {
		return phase.ErrUnknownPhase
	}
	if p != t.phase {
		t.logger.Debug("phase selected", "phase", p)
		t.progress = stopwatch.Progress{}
	}
	t.phase = p
	return nil
}

// SelectDefect makes a defect the fix time target and moves the host to
// its source location.
func (t *Tracker) SelectDefect(ctx context.Context, id string) (*defect.Defect, error) {
	d, err := t.defects.Activate(ctx, id)
	if d != nil {
		t.selected = d.ID
		if t.host != nil && !d.Location.IsZero() {
			t.host.GotoSource(ctx, d.Location)
		}
	}
	return d, t.check(err)
}

// ClearDefect stops accruing fix time.
func (t *Tracker) ClearDefect() {
	t.selected = ""
}

// CreateDefect records a defect entered by the user. The inject phase
// defaults to the selected phase.
func (t *Tracker) CreateDefect(ctx context.Context, req defect.CreateRequest) (*defect.Defect, error) {
	if req.InjectPhase == phase.None {
		req.InjectPhase = t.phase
	}
	d, err := t.defects.Create(ctx, req)
	return t.created(ctx, d, err)
}

// ReportDefect records a defect raised by the host against the selected
// phase.
func (t *Tracker) ReportDefect(ctx context.Context, req defect.ReportRequest) (*defect.Defect, error) {
	d, err := t.defects.Report(ctx, req, t.phase)
	return t.created(ctx, d, err)
}

// CheckDefect sets or clears the fixed flag of a defect.
func (t *Tracker) CheckDefect(ctx context.Context, id string, checked bool) (*defect.Defect, error) {
	d, err := t.defects.ToggleChecked(ctx, id, checked, t.phase)
	return d, t.check(err)
}

// SetPlan parses input such as "1.5h" and stores it as the plan of p.
func (t *Tracker) SetPlan(ctx context.Context, p phase.Phase, input string) (int64, error) {
	seconds, err := t.phases.SetPlanInput(ctx, p, input)
	return seconds, t.check(err)
}

// Summary returns the plan summary for all phases.
func (t *Tracker) Summary(ctx context.Context) ([]phase.Times, error) {
	summary, err := t.phases.Summary(ctx)
	return summary, t.check(err)
}

// Defects returns the defect recording log in creation order.
func (t *Tracker) Defects(ctx context.Context) ([]defect.Defect, error) {
	defects, err := t.defects.List(ctx)
	return defects, t.check(err)
}

// Status returns a snapshot of the selection and the stopwatch.
func (t *Tracker) Status() Status {
	return Status{
		State:               t.sw.State().String(),
		Phase:               t.phase,
		SelectedDefect:      t.selected,
		InterruptionSeconds: t.sw.Delta(),
		Progress:            t.progress,
	}
}

func (t *Tracker) created(ctx context.Context, d *defect.Defect, err error) (*defect.Defect, error) {
	if d != nil {
		t.metrics.ObserveDefect()
		if t.host != nil {
			t.host.DefectCreated(ctx, d)
		}
	}
	return d, t.check(err)
}

// check passes domain errors through and wraps everything else as a
// persistence failure.
func (t *Tracker) check(err error) error {
	if err == nil || isDomainError(err) {
		return err
	}
	t.metrics.ObservePersistenceError()
	t.logger.Warn("persistence failure", "error", err)
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}

func isDomainError(err error) bool {
	for _, target := range []error{
		stopwatch.ErrInvalidTransition,
		phase.ErrUnknownPhase,
		phase.ErrInvalidInput,
		defect.ErrDefectNotFound,
		defect.ErrInvalidType,
		defect.ErrInvalidInput,
		duration.ErrInvalidDuration,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// countingEvents counts successfully written events.
type countingEvents struct {
	next    *event.Service
	metrics *metrics.Metrics
}

func (c *countingEvents) Log(ctx context.Context, name, uuid, comment string) error {
	if err := c.next.Log(ctx, name, uuid, comment); err != nil {
		return err
	}
	c.metrics.ObserveEvent(name)
	return nil
}
