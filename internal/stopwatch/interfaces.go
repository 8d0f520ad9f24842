package stopwatch

import (
	"context"

	"github.com/rpggio/psptrack/internal/domain/defect"
	"github.com/rpggio/psptrack/internal/domain/phase"
)

// PhaseLedger counts time against phases.
type PhaseLedger interface {
	Tick(ctx context.Context, p phase.Phase, interruption bool) (float64, bool, error)
	RecordComment(ctx context.Context, p phase.Phase, text string, seconds int64) error
}

// DefectLedger accrues fix time on the selected defect.
type DefectLedger interface {
	AccrueFixTime(ctx context.Context, id string) (*defect.Defect, error)
}

// EventLogger appends to the event log.
type EventLogger interface {
	Log(ctx context.Context, name, uuid, comment string) error
}

// Host exposes the selection state and the comment prompt.
type Host interface {
	CurrentPhase() phase.Phase
	// SelectedDefect returns the id of the selected defect or "".
	SelectedDefect() string
	// PromptComment asks for an interruption comment. ok is false when the
	// user cancels.
	PromptComment(ctx context.Context, title, def string) (text string, ok bool)
}
