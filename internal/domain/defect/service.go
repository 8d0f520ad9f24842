package defect

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/psptrack/internal/domain/phase"
	"github.com/rpggio/psptrack/internal/repository"
)

// Event names written to the event log.
const (
	EventNew       = "new_defect"
	EventActivate  = "activate_defect"
	EventChecked   = "checked_defect"
	EventUnchecked = "unchecked_defect"
)

// Service handles defect recording log operations.
type Service struct {
	repo   Repository
	events EventLogger
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new defect service. events may be nil.
func NewService(repo Repository, events EventLogger, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, events: events, logger: logger, now: time.Now}
}

// CreateRequest defines defect creation inputs.
type CreateRequest struct {
	Description string
	Type        Type
	InjectPhase phase.Phase
	RemovePhase phase.Phase
	FixTime     int64
	FixDefect   string
	Location    Location
}

// ReportRequest is a defect reported by the host, e.g. from a failed build.
type ReportRequest struct {
	Description string
	Type        Type
	Location    Location
}

// Create stores a new defect and logs it.
//
// Number is the count of existing defects plus one. Two writers creating
// defects at the same time can both observe the same count.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Defect, error) {
	if err := ValidateCreateInput(req); err != nil {
		return nil, err
	}
	if req.Type == 0 {
		req.Type = TypeSyntax
	}

	count, err := s.repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting defects: %w", err)
	}

	now := s.now()
	d := &Defect{
		ID:          uuid.NewString(),
		Number:      strconv.Itoa(count + 1),
		Description: req.Description,
		Type:        req.Type,
		InjectPhase: req.InjectPhase,
		RemovePhase: req.RemovePhase,
		FixTime:     req.FixTime,
		FixDefect:   req.FixDefect,
		Location:    req.Location,
		Date:        now.Format(DateLayout),
		CreatedAt:   now,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("creating defect: %w", err)
	}

	if err := s.logEvent(ctx, EventNew, d.ID, summarize(d)); err != nil {
		return d, err
	}
	s.logger.Info("defect created", "id", d.ID, "number", d.Number, "type", int(d.Type))
	return d, nil
}

// Report records a defect raised by the host while working in activePhase.
func (s *Service) Report(ctx context.Context, req ReportRequest, activePhase phase.Phase) (*Defect, error) {
	return s.Create(ctx, CreateRequest{
		Description: req.Description,
		Type:        req.Type,
		InjectPhase: activePhase,
		Location:    req.Location,
	})
}

// Get returns a defect by ID.
func (s *Service) Get(ctx context.Context, id string) (*Defect, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDefectNotFound
		}
		return nil, fmt.Errorf("loading defect: %w", err)
	}
	return d, nil
}

// List returns all defects in creation order.
func (s *Service) List(ctx context.Context) ([]Defect, error) {
	defects, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing defects: %w", err)
	}
	return defects, nil
}

// Activate marks a defect as the one being worked on and logs it. The
// caller owns the selection.
func (s *Service) Activate(ctx context.Context, id string) (*Defect, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.logEvent(ctx, EventActivate, d.ID, ""); err != nil {
		return d, err
	}
	return d, nil
}

// ToggleChecked sets the fixed flag. The first time a defect is checked its
// remove phase is set to activePhase unless one was already recorded.
func (s *Service) ToggleChecked(ctx context.Context, id string, checked bool, activePhase phase.Phase) (*Defect, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Checked == checked {
		return d, nil
	}

	name := EventUnchecked
	if checked {
		name = EventChecked
		if d.RemovePhase == phase.None {
			d.RemovePhase = activePhase
		}
	}
	d.Checked = checked

	if err := s.repo.Update(ctx, d); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDefectNotFound
		}
		return nil, fmt.Errorf("updating defect: %w", err)
	}
	if err := s.logEvent(ctx, name, d.ID, ""); err != nil {
		return d, err
	}
	return d, nil
}

// AccrueFixTime adds one second of fix time to an unchecked defect. Checked
// defects are returned unchanged.
func (s *Service) AccrueFixTime(ctx context.Context, id string) (*Defect, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Checked {
		return d, nil
	}
	updated, err := s.repo.AddFixTime(ctx, id, 1)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDefectNotFound
		}
		return nil, fmt.Errorf("accruing fix time: %w", err)
	}
	return updated, nil
}

func (s *Service) logEvent(ctx context.Context, name, id, comment string) error {
	if s.events == nil {
		return nil
	}
	if err := s.events.Log(ctx, name, id, comment); err != nil {
		return fmt.Errorf("logging %s: %w", name, err)
	}
	return nil
}

func summarize(d *Defect) string {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Sprintf("#%s %s", d.Number, d.Description)
	}
	return string(data)
}
