package phase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rpggio/psptrack/internal/duration"
)

// Service handles plan summary operations.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new phase ledger service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, logger: logger}
}

// SetPlan stores the planned seconds for a phase.
func (s *Service) SetPlan(ctx context.Context, p Phase, seconds int64) error {
	if !p.Valid() {
		return ErrUnknownPhase
	}
	if seconds < 0 {
		return ErrInvalidInput
	}
	if err := s.repo.SetPlan(ctx, p, seconds); err != nil {
		return fmt.Errorf("setting plan: %w", err)
	}
	s.logger.Debug("plan set", "phase", p, "seconds", seconds)
	return nil
}

// SetPlanInput parses user input such as "1.5h" and stores it as the plan.
// Nothing is written when the input does not parse.
func (s *Service) SetPlanInput(ctx context.Context, p Phase, input string) (int64, error) {
	seconds, err := duration.Seconds(input)
	if err != nil {
		return 0, err
	}
	if err := s.SetPlan(ctx, p, seconds); err != nil {
		return 0, err
	}
	return seconds, nil
}

// Get returns the ledger row for a phase.
func (s *Service) Get(ctx context.Context, p Phase) (*Times, error) {
	if !p.Valid() {
		return nil, ErrUnknownPhase
	}
	times, err := s.repo.Get(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("loading phase times: %w", err)
	}
	return times, nil
}

// Summary returns one row per phase in process order, including phases that
// were never written.
func (s *Service) Summary(ctx context.Context) ([]Times, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing phase times: %w", err)
	}
	byPhase := make(map[Phase]Times, len(rows))
	for _, row := range rows {
		byPhase[row.Phase] = row
	}
	summary := make([]Times, 0, len(All))
	for _, p := range All {
		row, ok := byPhase[p]
		if !ok {
			row = Times{Phase: p}
		}
		summary = append(summary, row)
	}
	return summary, nil
}

// Tick counts one elapsed second against a phase. It returns the actual
// time as a percentage of plan; ok is false when the phase has no plan.
func (s *Service) Tick(ctx context.Context, p Phase, interruption bool) (percent float64, ok bool, err error) {
	if !p.Valid() {
		return 0, false, ErrUnknownPhase
	}
	times, err := s.repo.Increment(ctx, p, interruption)
	if err != nil {
		return 0, false, fmt.Errorf("counting phase time: %w", err)
	}
	percent, ok = times.PercentOfPlan()
	return percent, ok, nil
}

// RecordComment appends an interruption comment to a phase.
func (s *Service) RecordComment(ctx context.Context, p Phase, text string, seconds int64) error {
	if !p.Valid() {
		return ErrUnknownPhase
	}
	if err := s.repo.AddComment(ctx, p, Comment{Text: text, Duration: seconds}); err != nil {
		return fmt.Errorf("recording comment: %w", err)
	}
	s.logger.Debug("interruption recorded", "phase", p, "seconds", seconds)
	return nil
}

// FormatComments renders comments as "text 5 m; other 42 s".
func FormatComments(comments []Comment) string {
	parts := make([]string, 0, len(comments))
	for _, c := range comments {
		parts = append(parts, fmt.Sprintf("%s %s", c.Text, duration.Format(c.Duration)))
	}
	return strings.Join(parts, "; ")
}
