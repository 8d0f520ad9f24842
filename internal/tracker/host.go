package tracker

import (
	"context"

	"github.com/rpggio/psptrack/internal/domain/defect"
	"github.com/rpggio/psptrack/internal/domain/phase"
)

// Host is implemented by the embedding environment.
type Host interface {
	// PromptComment asks for an interruption comment. ok is false when the
	// user cancels.
	PromptComment(ctx context.Context, title, def string) (text string, ok bool)
	// GotoSource moves the editor to a defect location.
	GotoSource(ctx context.Context, loc defect.Location)
	// DefectCreated is called after a defect has been stored.
	DefectCreated(ctx context.Context, d *defect.Defect)
}

// stopwatchHost exposes the tracker selection to the stopwatch.
type stopwatchHost struct {
	t *Tracker
}

func (h stopwatchHost) CurrentPhase() phase.Phase {
	return h.t.phase
}

func (h stopwatchHost) SelectedDefect() string {
	return h.t.selected
}

func (h stopwatchHost) PromptComment(ctx context.Context, title, def string) (string, bool) {
	if h.t.host == nil {
		return def, true
	}
	return h.t.host.PromptComment(ctx, title, def)
}
