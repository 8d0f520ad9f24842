package stopwatch_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rpggio/psptrack/internal/domain/defect"
	"github.com/rpggio/psptrack/internal/domain/phase"
	"github.com/rpggio/psptrack/internal/stopwatch"
	"github.com/stretchr/testify/require"
)

type ledger struct {
	actual       map[phase.Phase]int64
	interruption map[phase.Phase]int64
	plan         map[phase.Phase]int64
	comments     []phase.Comment
	err          error
	commentErr   error
}

func newLedger() *ledger {
	return &ledger{
		actual:       map[phase.Phase]int64{},
		interruption: map[phase.Phase]int64{},
		plan:         map[phase.Phase]int64{},
	}
}

func (l *ledger) Tick(_ context.Context, p phase.Phase, interruption bool) (float64, bool, error) {
	if l.err != nil {
		return 0, false, l.err
	}
	if interruption {
		l.interruption[p]++
	} else {
		l.actual[p]++
	}
	plan := l.plan[p]
	if plan == 0 {
		return 0, false, nil
	}
	return 100 * float64(l.actual[p]) / float64(plan), true, nil
}

func (l *ledger) RecordComment(_ context.Context, _ phase.Phase, text string, seconds int64) error {
	if l.commentErr != nil {
		return l.commentErr
	}
	l.comments = append(l.comments, phase.Comment{Text: text, Duration: seconds})
	return nil
}

type defects struct {
	fixTime map[string]int64
}

func (d *defects) AccrueFixTime(_ context.Context, id string) (*defect.Defect, error) {
	d.fixTime[id]++
	return &defect.Defect{ID: id, FixTime: d.fixTime[id]}, nil
}

type logged struct {
	name    string
	comment string
}

type events struct {
	lines []logged
}

func (e *events) Log(_ context.Context, name, _ string, comment string) error {
	e.lines = append(e.lines, logged{name: name, comment: comment})
	return nil
}

func (e *events) names() []string {
	names := make([]string, 0, len(e.lines))
	for _, l := range e.lines {
		names = append(names, l.name)
	}
	return names
}

type host struct {
	phase    phase.Phase
	selected string
	reply    string
	cancel   bool
	prompts  []string
}

func (h *host) CurrentPhase() phase.Phase { return h.phase }
func (h *host) SelectedDefect() string    { return h.selected }

func (h *host) PromptComment(_ context.Context, _ string, def string) (string, bool) {
	h.prompts = append(h.prompts, def)
	if h.cancel {
		return "", false
	}
	if h.reply != "" {
		return h.reply, true
	}
	return def, true
}

type fixture struct {
	ledger  *ledger
	defects *defects
	events  *events
	host    *host
	sw      *stopwatch.Stopwatch
}

func newFixture(p phase.Phase, opts ...stopwatch.Option) *fixture {
	f := &fixture{
		ledger:  newLedger(),
		defects: &defects{fixTime: map[string]int64{}},
		events:  &events{},
		host:    &host{phase: p},
	}
	f.sw = stopwatch.New(f.ledger, f.defects, f.events, f.host, nil, opts...)
	return f
}

func (f *fixture) tick(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := f.sw.OnTick(context.Background())
		require.NoError(t, err)
	}
}

func TestStopwatch_RunningCountsActual(t *testing.T) {
	ctx := context.Background()
	f := newFixture(phase.Code)

	require.NoError(t, f.sw.Start(ctx))
	f.tick(t, 2)
	require.NoError(t, f.sw.Stop(ctx))

	require.Equal(t, int64(2), f.ledger.actual[phase.Code])
	require.Zero(t, f.ledger.interruption[phase.Code])
	require.Equal(t, []string{"start", "stop"}, f.events.names())
	require.Equal(t, stopwatch.Idle, f.sw.State())
}

func TestStopwatch_InterruptionScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(phase.Code)

	require.NoError(t, f.sw.Start(ctx))
	require.NoError(t, f.sw.Pause(ctx))
	f.tick(t, 2)
	require.Equal(t, int64(2), f.sw.Delta())
	require.NoError(t, f.sw.Pause(ctx))
	f.tick(t, 1)
	require.NoError(t, f.sw.Stop(ctx))

	require.Equal(t, int64(1), f.ledger.actual[phase.Code])
	require.Equal(t, int64(2), f.ledger.interruption[phase.Code])
	require.Equal(t, []phase.Comment{{Text: "phone call", Duration: 2}}, f.ledger.comments)
	require.Equal(t, []string{"start", "pausing", "resuming", "stop"}, f.events.names())
	require.Equal(t, "phone call", f.events.lines[2].comment)
	require.Zero(t, f.sw.Delta())
}

func TestStopwatch_StopWhileInterruptedResumesFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(phase.Test)
	f.host.reply = "meeting"

	require.NoError(t, f.sw.Start(ctx))
	require.NoError(t, f.sw.Pause(ctx))
	f.tick(t, 3)
	require.NoError(t, f.sw.Stop(ctx))

	require.Equal(t, []string{"start", "pausing", "resuming", "stop"}, f.events.names())
	require.Equal(t, []phase.Comment{{Text: "meeting", Duration: 3}}, f.ledger.comments)
	require.Equal(t, stopwatch.Idle, f.sw.State())
}

func TestStopwatch_CancelledCommentClearsDelta(t *testing.T) {
	ctx := context.Background()
	f := newFixture(phase.Code)
	f.host.cancel = true

	require.NoError(t, f.sw.Start(ctx))
	require.NoError(t, f.sw.Pause(ctx))
	f.tick(t, 4)
	require.NoError(t, f.sw.Pause(ctx))

	require.Equal(t, stopwatch.Running, f.sw.State())
	require.Zero(t, f.sw.Delta())
	require.Empty(t, f.ledger.comments)
	require.Equal(t, []string{"start", "pausing"}, f.events.names())
}

func TestStopwatch_DefaultCommentOption(t *testing.T) {
	ctx := context.Background()
	f := newFixture(phase.Code, stopwatch.WithDefaultComment("coffee"))

	require.NoError(t, f.sw.Start(ctx))
	require.NoError(t, f.sw.Pause(ctx))
	require.NoError(t, f.sw.Pause(ctx))
	require.Equal(t, []string{"coffee"}, f.host.prompts)
}

func TestStopwatch_InvalidTransitions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(phase.Code)

	require.ErrorIs(t, f.sw.Pause(ctx), stopwatch.ErrInvalidTransition)
	require.ErrorIs(t, f.sw.Stop(ctx), stopwatch.ErrInvalidTransition)
	require.Equal(t, stopwatch.Idle, f.sw.State())

	require.NoError(t, f.sw.Start(ctx))
	require.ErrorIs(t, f.sw.Start(ctx), stopwatch.ErrInvalidTransition)
	require.Equal(t, stopwatch.Running, f.sw.State())

	require.NoError(t, f.sw.Pause(ctx))
	require.ErrorIs(t, f.sw.Start(ctx), stopwatch.ErrInvalidTransition)
	require.Equal(t, stopwatch.Interrupted, f.sw.State())

	require.Equal(t, []string{"start", "pausing"}, f.events.names())
}

func TestStopwatch_IdleTickIsNoop(t *testing.T) {
	f := newFixture(phase.Code)

	progress, err := f.sw.OnTick(context.Background())
	require.NoError(t, err)
	require.Equal(t, stopwatch.Progress{}, progress)
	require.Empty(t, f.ledger.actual)
}

func TestStopwatch_NoPhaseSkipsLedger(t *testing.T) {
	ctx := context.Background()
	f := newFixture(phase.None)
	f.host.selected = "d1"

	require.NoError(t, f.sw.Start(ctx))
	f.tick(t, 3)
	require.Empty(t, f.ledger.actual)
	require.Empty(t, f.defects.fixTime)

	// Delta still counts while interrupted without a phase
	require.NoError(t, f.sw.Pause(ctx))
	f.tick(t, 2)
	require.Equal(t, int64(2), f.sw.Delta())
}

func TestStopwatch_ProgressPercent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(phase.Design)
	f.ledger.plan[phase.Design] = 4

	require.NoError(t, f.sw.Start(ctx))
	progress, err := f.sw.OnTick(ctx)
	require.NoError(t, err)
	require.Equal(t, phase.Design, progress.Phase)
	require.True(t, progress.HasPercent)
	require.InDelta(t, 25.0, progress.Percent, 1e-9)

	f.ledger.plan[phase.Design] = 0
	progress, err = f.sw.OnTick(ctx)
	require.NoError(t, err)
	require.False(t, progress.HasPercent)
}

func TestStopwatch_FixTimeAccruesOnlyWhileRunning(t *testing.T) {
	ctx := context.Background()
	f := newFixture(phase.Test)
	f.host.selected = "d1"

	require.NoError(t, f.sw.Start(ctx))
	f.tick(t, 2)
	require.NoError(t, f.sw.Pause(ctx))
	f.tick(t, 5)
	require.NoError(t, f.sw.Pause(ctx))
	f.tick(t, 1)

	require.Equal(t, int64(3), f.defects.fixTime["d1"])
}

func TestStopwatch_LedgerErrorKeepsState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(phase.Code)
	f.ledger.err = errors.New("disk full")

	require.NoError(t, f.sw.Start(ctx))
	require.NoError(t, f.sw.Pause(ctx))
	_, err := f.sw.OnTick(ctx)
	require.ErrorIs(t, err, f.ledger.err)
	require.Equal(t, stopwatch.Interrupted, f.sw.State())
	require.Equal(t, int64(1), f.sw.Delta())
}

func TestStopwatch_StopLogsStopWhenResumeFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(phase.Code)
	f.ledger.commentErr = errors.New("disk full")

	require.NoError(t, f.sw.Start(ctx))
	require.NoError(t, f.sw.Pause(ctx))
	err := f.sw.Stop(ctx)
	require.ErrorIs(t, err, f.ledger.commentErr)
	require.Equal(t, stopwatch.Idle, f.sw.State())
	require.Equal(t, []string{"start", "pausing", "stop"}, f.events.names())
}
