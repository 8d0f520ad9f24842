package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Service writes the chronological event log.
type Service struct {
	out    Appender
	phases PhaseSource
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the wall clock used to stamp entries.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new event log service.
func NewService(out Appender, phases PhaseSource, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Service{out: out, phases: phases, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Log appends one event stamped with the current time and phase. uuid may
// be empty.
func (s *Service) Log(ctx context.Context, name, uuid, comment string) error {
	entry := Entry{
		Timestamp: s.now(),
		UUID:      uuid,
		Event:     name,
		Comment:   comment,
	}
	if s.phases != nil {
		entry.Phase = s.phases.CurrentPhase()
	}
	line := entry.Format()
	s.logger.Info("psp event", "event", name, "uuid", entry.UUID, "phase", entry.Phase, "comment", comment)
	if err := s.out.Append(ctx, line); err != nil {
		return fmt.Errorf("appending event: %w", err)
	}
	return nil
}
