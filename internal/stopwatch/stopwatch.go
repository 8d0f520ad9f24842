// Package stopwatch implements the PSP timing state machine.
package stopwatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rpggio/psptrack/internal/domain/event"
	"github.com/rpggio/psptrack/internal/domain/phase"
)

// State of the stopwatch.
type State int

const (
	Idle State = iota
	Running
	Interrupted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Interrupted:
		return "interrupted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// DefaultComment is offered when an interruption ends.
const DefaultComment = "phone call"

// Progress is the result of one tick.
type Progress struct {
	Phase      phase.Phase `json:"phase"`
	Percent    float64     `json:"percent"`
	HasPercent bool        `json:"has_percent"`
}

// Stopwatch tracks running and interrupted time for the selected phase. It
// is not safe for concurrent use.
type Stopwatch struct {
	phases  PhaseLedger
	defects DefectLedger
	events  EventLogger
	host    Host
	logger  *slog.Logger

	state          State
	delta          int64
	defaultComment string
}

// Option configures a Stopwatch.
type Option func(*Stopwatch)

// WithDefaultComment overrides the comment offered on resume.
func WithDefaultComment(comment string) Option {
	return func(s *Stopwatch) {
		if comment != "" {
			s.defaultComment = comment
		}
	}
}

// New creates an idle stopwatch.
func New(phases PhaseLedger, defects DefectLedger, events EventLogger, host Host, logger *slog.Logger, opts ...Option) *Stopwatch {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Stopwatch{
		phases:         phases,
		defects:        defects,
		events:         events,
		host:           host,
		logger:         logger,
		defaultComment: DefaultComment,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current state.
func (s *Stopwatch) State() State {
	return s.state
}

// Delta returns the seconds counted in the current interruption.
func (s *Stopwatch) Delta() int64 {
	return s.delta
}

// Start moves Idle to Running.
func (s *Stopwatch) Start(ctx context.Context) error {
	if s.state != Idle {
		return fmt.Errorf("%w: start while %s", ErrInvalidTransition, s.state)
	}
	s.state = Running
	s.logger.Debug("stopwatch started", "phase", s.host.CurrentPhase())
	return s.log(ctx, event.NameStart, "")
}

// Pause interrupts a running stopwatch, or resumes an interrupted one.
func (s *Stopwatch) Pause(ctx context.Context) error {
	switch s.state {
	case Running:
		s.state = Interrupted
		s.delta = 0
		s.logger.Debug("stopwatch paused", "phase", s.host.CurrentPhase())
		return s.log(ctx, event.NamePausing, "")
	case Interrupted:
		return s.resume(ctx)
	default:
		return fmt.Errorf("%w: pause while %s", ErrInvalidTransition, s.state)
	}
}

// Stop moves the stopwatch to Idle, resuming first when interrupted. The
// stop event is logged even when the resume fails.
func (s *Stopwatch) Stop(ctx context.Context) error {
	var resumeErr error
	switch s.state {
	case Running:
	case Interrupted:
		resumeErr = s.resume(ctx)
	default:
		return fmt.Errorf("%w: stop while %s", ErrInvalidTransition, s.state)
	}
	s.state = Idle
	s.logger.Debug("stopwatch stopped", "phase", s.host.CurrentPhase())
	return errors.Join(resumeErr, s.log(ctx, event.NameStop, ""))
}

// OnTick counts one elapsed second. It does nothing while idle, and returns
// a zero Progress when no phase is selected.
func (s *Stopwatch) OnTick(ctx context.Context) (Progress, error) {
	if s.state == Idle {
		return Progress{}, nil
	}
	interrupted := s.state == Interrupted
	if interrupted {
		s.delta++
	}

	p := s.host.CurrentPhase()
	if p == phase.None {
		return Progress{}, nil
	}

	percent, ok, err := s.phases.Tick(ctx, p, interrupted)
	if err != nil {
		return Progress{Phase: p}, err
	}
	progress := Progress{Phase: p, Percent: percent, HasPercent: ok}

	if !interrupted && s.defects != nil {
		if id := s.host.SelectedDefect(); id != "" {
			if _, err := s.defects.AccrueFixTime(ctx, id); err != nil {
				return progress, err
			}
		}
	}
	return progress, nil
}

// resume ends an interruption. The delta is cleared whether or not the
// host supplies a comment.
func (s *Stopwatch) resume(ctx context.Context) error {
	delta := s.delta
	s.state = Running
	s.delta = 0

	text, ok := s.host.PromptComment(ctx, "Interruption comment", s.defaultComment)
	if !ok {
		s.logger.Debug("interruption comment cancelled", "seconds", delta)
		return nil
	}

	p := s.host.CurrentPhase()
	if p != phase.None {
		if err := s.phases.RecordComment(ctx, p, text, delta); err != nil {
			return err
		}
	}
	return s.log(ctx, event.NameResuming, text)
}

func (s *Stopwatch) log(ctx context.Context, name, comment string) error {
	if s.events == nil {
		return nil
	}
	return s.events.Log(ctx, name, "", comment)
}
