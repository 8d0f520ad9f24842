package mcp

import (
	"context"
	"log/slog"
	"sync"

	"github.com/rpggio/psptrack/internal/domain/defect"
)

// Host answers tracker callbacks for an agent session. Comments are passed
// with the pause and stop tools instead of a dialog.
type Host struct {
	mu         sync.Mutex
	pending    string
	hasPending bool
	location   defect.Location
	hasGoto    bool
	logger     *slog.Logger
}

// NewHost creates a host with no pending comment.
func NewHost(logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Host{logger: logger}
}

// SetComment queues text for the next interruption prompt.
func (h *Host) SetComment(text string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pending = text
	h.hasPending = true
}

// ClearComment drops a comment that no prompt consumed.
func (h *Host) ClearComment() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pending, h.hasPending = "", false
}

// PromptComment returns the queued comment, or def when none was queued.
func (h *Host) PromptComment(_ context.Context, _ string, def string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.hasPending {
		text := h.pending
		h.pending, h.hasPending = "", false
		return text, true
	}
	return def, true
}

// GotoSource records the location so the tool result can return it.
func (h *Host) GotoSource(_ context.Context, loc defect.Location) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.location = loc
	h.hasGoto = true
}

// DefectCreated logs the new defect.
func (h *Host) DefectCreated(_ context.Context, d *defect.Defect) {
	h.logger.Debug("defect created", "id", d.ID, "number", d.Number)
}

// TakeLocation returns and clears the last goto-source request.
func (h *Host) TakeLocation() (defect.Location, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	loc, ok := h.location, h.hasGoto
	h.location, h.hasGoto = defect.Location{}, false
	return loc, ok
}
