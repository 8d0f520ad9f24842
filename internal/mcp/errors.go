package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/psptrack/internal/domain/defect"
	"github.com/rpggio/psptrack/internal/domain/phase"
	"github.com/rpggio/psptrack/internal/duration"
	"github.com/rpggio/psptrack/internal/eventlog"
	"github.com/rpggio/psptrack/internal/stopwatch"
	"github.com/rpggio/psptrack/internal/tracker"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	if e.RecoveryHint != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.RecoveryHint)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes. Unknown errors map to nil.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, phase.ErrUnknownPhase):
		return &APIError{Code: "UNKNOWN_PHASE", Message: "unknown phase", RecoveryHint: "Use planning, design, code, compile, test or postmortem"}
	case errors.Is(err, duration.ErrInvalidDuration):
		return &APIError{Code: "INVALID_DURATION", Message: err.Error(), RecoveryHint: "Use values like 90, 5m, 1.5h or 1,5 h"}
	case errors.Is(err, defect.ErrDefectNotFound):
		return &APIError{Code: "DEFECT_NOT_FOUND", Message: "defect not found", RecoveryHint: "Call list_defects for valid ids"}
	case errors.Is(err, defect.ErrInvalidType):
		return &APIError{Code: "INVALID_DEFECT_TYPE", Message: "unknown defect type", RecoveryHint: "Read psp://docs/defect-types"}
	case errors.Is(err, defect.ErrInvalidInput), errors.Is(err, phase.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error()}
	case errors.Is(err, stopwatch.ErrInvalidTransition):
		return &APIError{Code: "INVALID_TRANSITION", Message: err.Error(), RecoveryHint: "Check psp_status first"}
	case errors.Is(err, tracker.ErrPersistence):
		return &APIError{Code: "PERSISTENCE", Message: err.Error(), RecoveryHint: "Tracking continues in memory; check disk space and the database path"}
	case errors.Is(err, eventlog.ErrUnreadable):
		return &APIError{Code: "EVENT_LOG_UNREADABLE", Message: err.Error(), RecoveryHint: "Check the event log path and its contents"}
	case errors.Is(err, tracker.ErrClosed):
		return &APIError{Code: "UNAVAILABLE", Message: "tracker is shutting down"}
	default:
		return nil
	}
}

// toolError returns the coded form of err when one exists.
func toolError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
