package mocks

import (
	"context"

	"github.com/rpggio/psptrack/internal/domain/defect"
	"github.com/rpggio/psptrack/internal/domain/phase"
	"github.com/stretchr/testify/mock"
)

// PhaseRepository is a mock for phase.Repository.
type PhaseRepository struct {
	mock.Mock
}

func (m *PhaseRepository) Get(ctx context.Context, p phase.Phase) (*phase.Times, error) {
	args := m.Called(ctx, p)
	if times, ok := args.Get(0).(*phase.Times); ok {
		return times, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *PhaseRepository) List(ctx context.Context) ([]phase.Times, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]phase.Times); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *PhaseRepository) SetPlan(ctx context.Context, p phase.Phase, seconds int64) error {
	args := m.Called(ctx, p, seconds)
	return args.Error(0)
}

func (m *PhaseRepository) Increment(ctx context.Context, p phase.Phase, interruption bool) (*phase.Times, error) {
	args := m.Called(ctx, p, interruption)
	if times, ok := args.Get(0).(*phase.Times); ok {
		return times, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *PhaseRepository) AddComment(ctx context.Context, p phase.Phase, c phase.Comment) error {
	args := m.Called(ctx, p, c)
	return args.Error(0)
}

// DefectRepository is a mock for defect.Repository.
type DefectRepository struct {
	mock.Mock
}

func (m *DefectRepository) Create(ctx context.Context, d *defect.Defect) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *DefectRepository) Get(ctx context.Context, id string) (*defect.Defect, error) {
	args := m.Called(ctx, id)
	if d, ok := args.Get(0).(*defect.Defect); ok {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *DefectRepository) Update(ctx context.Context, d *defect.Defect) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *DefectRepository) AddFixTime(ctx context.Context, id string, seconds int64) (*defect.Defect, error) {
	args := m.Called(ctx, id, seconds)
	if d, ok := args.Get(0).(*defect.Defect); ok {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *DefectRepository) List(ctx context.Context) ([]defect.Defect, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]defect.Defect); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *DefectRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// EventLogger is a mock for defect.EventLogger.
type EventLogger struct {
	mock.Mock
}

func (m *EventLogger) Log(ctx context.Context, name, uuid, comment string) error {
	args := m.Called(ctx, name, uuid, comment)
	return args.Error(0)
}

// EventAppender is a mock for event.Appender.
type EventAppender struct {
	mock.Mock
}

func (m *EventAppender) Append(ctx context.Context, line string) error {
	args := m.Called(ctx, line)
	return args.Error(0)
}
