package mcp

import (
	"context"
	"log/slog"
	"strings"

	"github.com/rpggio/psptrack/internal/domain/defect"
	"github.com/rpggio/psptrack/internal/domain/event"
	"github.com/rpggio/psptrack/internal/domain/phase"
	"github.com/rpggio/psptrack/internal/duration"
	"github.com/rpggio/psptrack/internal/eventlog"
	"github.com/rpggio/psptrack/internal/stopwatch"
	"github.com/rpggio/psptrack/internal/tracker"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const defaultEventLimit = 20

// Runner serializes access to the tracker.
type Runner interface {
	Do(ctx context.Context, fn func(context.Context, *tracker.Tracker) error) error
}

// Handler implements the PSP tools.
type Handler struct {
	runner   Runner
	host     *Host
	eventLog string
	logger   *slog.Logger
}

// NewHandler creates a new MCP handler. eventLogPath may be empty when the
// event_log tool should report no entries.
func NewHandler(runner Runner, host *Host, eventLogPath string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if host == nil {
		host = NewHost(logger)
	}
	return &Handler{
		runner:   runner,
		host:     host,
		eventLog: eventLogPath,
		logger:   logger,
	}
}

func (h *Handler) status(ctx context.Context, _ *sdkmcp.CallToolRequest, _ StatusParams) (*sdkmcp.CallToolResult, any, error) {
	var result StatusResult
	err := h.runner.Do(ctx, func(_ context.Context, t *tracker.Tracker) error {
		result.Status = t.Status()
		return nil
	})
	if err != nil {
		return nil, nil, toolError(err)
	}
	return nil, result, nil
}

func (h *Handler) start(ctx context.Context, _ *sdkmcp.CallToolRequest, in StartParams) (*sdkmcp.CallToolResult, any, error) {
	var p phase.Phase
	if strings.TrimSpace(in.Phase) != "" {
		parsed, err := phase.Parse(in.Phase)
		if err != nil {
			return nil, nil, toolError(err)
		}
		p = parsed
	}

	return h.transition(ctx, "start", "", func(ctx context.Context, t *tracker.Tracker) error {
		// A rejected start leaves the selection alone
		if p != phase.None && t.State() == stopwatch.Idle {
			if err := t.SelectPhase(p); err != nil {
				return err
			}
		}
		return t.Start(ctx)
	})
}

func (h *Handler) pause(ctx context.Context, _ *sdkmcp.CallToolRequest, in CommentParams) (*sdkmcp.CallToolResult, any, error) {
	return h.transition(ctx, "pause", in.Comment, func(ctx context.Context, t *tracker.Tracker) error {
		return t.Pause(ctx)
	})
}

func (h *Handler) stop(ctx context.Context, _ *sdkmcp.CallToolRequest, in CommentParams) (*sdkmcp.CallToolResult, any, error) {
	return h.transition(ctx, "stop", in.Comment, func(ctx context.Context, t *tracker.Tracker) error {
		return t.Stop(ctx)
	})
}

// transition runs fn and reports the resulting status. comment answers an
// interruption prompt raised by fn and is dropped afterwards if unused. A
// persistence failure still reports the status because the state already
// changed.
func (h *Handler) transition(ctx context.Context, name, comment string, fn func(context.Context, *tracker.Tracker) error) (*sdkmcp.CallToolResult, any, error) {
	var result StatusResult
	var opErr error
	err := h.runner.Do(ctx, func(ctx context.Context, t *tracker.Tracker) error {
		if comment != "" {
			h.host.SetComment(comment)
		}
		opErr = fn(ctx, t)
		h.host.ClearComment()
		result.Status = t.Status()
		return nil
	})
	if err != nil {
		return nil, nil, toolError(err)
	}
	if opErr != nil {
		h.logger.Info("stopwatch command failed", "command", name, "error", opErr)
		return nil, nil, toolError(opErr)
	}
	result.StateChange = name
	return nil, result, nil
}

func (h *Handler) selectPhase(ctx context.Context, _ *sdkmcp.CallToolRequest, in SelectPhaseParams) (*sdkmcp.CallToolResult, any, error) {
	p := phase.None
	if strings.TrimSpace(in.Phase) != "" {
		parsed, err := phase.Parse(in.Phase)
		if err != nil {
			return nil, nil, toolError(err)
		}
		p = parsed
	}

	var result StatusResult
	err := h.runner.Do(ctx, func(_ context.Context, t *tracker.Tracker) error {
		if err := t.SelectPhase(p); err != nil {
			return err
		}
		result.Status = t.Status()
		return nil
	})
	if err != nil {
		return nil, nil, toolError(err)
	}
	return nil, result, nil
}

func (h *Handler) setPlan(ctx context.Context, _ *sdkmcp.CallToolRequest, in SetPlanParams) (*sdkmcp.CallToolResult, any, error) {
	p, err := phase.Parse(in.Phase)
	if err != nil {
		return nil, nil, toolError(err)
	}

	var seconds int64
	err = h.runner.Do(ctx, func(ctx context.Context, t *tracker.Tracker) error {
		var err error
		seconds, err = t.SetPlan(ctx, p, in.Value)
		return err
	})
	if err != nil {
		return nil, nil, toolError(err)
	}
	return nil, SetPlanResult{Phase: p, Seconds: seconds, Display: duration.Format(seconds)}, nil
}

func (h *Handler) planSummary(ctx context.Context, _ *sdkmcp.CallToolRequest, _ PlanSummaryParams) (*sdkmcp.CallToolResult, any, error) {
	var summary []phase.Times
	err := h.runner.Do(ctx, func(ctx context.Context, t *tracker.Tracker) error {
		var err error
		summary, err = t.Summary(ctx)
		return err
	})
	if err != nil {
		return nil, nil, toolError(err)
	}

	result := PlanSummaryResult{Phases: make([]PlanRow, 0, len(summary))}
	for _, row := range summary {
		result.Phases = append(result.Phases, newPlanRow(row))
	}
	return nil, result, nil
}

func (h *Handler) createDefect(ctx context.Context, _ *sdkmcp.CallToolRequest, in CreateDefectParams) (*sdkmcp.CallToolResult, any, error) {
	req := defect.CreateRequest{
		Description: in.Description,
		FixDefect:   in.FixDefect,
		Location:    defect.Location{Filename: in.Filename, Line: in.Line, Offset: in.Offset},
	}

	var err error
	if req.Type, err = parseType(in.Type); err != nil {
		return nil, nil, toolError(err)
	}
	if req.InjectPhase, err = parseOptionalPhase(in.InjectPhase); err != nil {
		return nil, nil, toolError(err)
	}
	if req.RemovePhase, err = parseOptionalPhase(in.RemovePhase); err != nil {
		return nil, nil, toolError(err)
	}
	if in.FixTime != "" {
		if req.FixTime, err = duration.Seconds(in.FixTime); err != nil {
			return nil, nil, toolError(err)
		}
	}

	var created *defect.Defect
	err = h.runner.Do(ctx, func(ctx context.Context, t *tracker.Tracker) error {
		var err error
		created, err = t.CreateDefect(ctx, req)
		return err
	})
	if err != nil {
		return nil, nil, toolError(err)
	}
	return nil, newDefectResult(created), nil
}

func (h *Handler) reportDefect(ctx context.Context, _ *sdkmcp.CallToolRequest, in ReportDefectParams) (*sdkmcp.CallToolResult, any, error) {
	typ, err := parseType(in.Type)
	if err != nil {
		return nil, nil, toolError(err)
	}
	req := defect.ReportRequest{
		Description: in.Description,
		Type:        typ,
		Location:    defect.Location{Filename: in.Filename, Line: in.Line, Offset: in.Offset},
	}

	var created *defect.Defect
	err = h.runner.Do(ctx, func(ctx context.Context, t *tracker.Tracker) error {
		var err error
		created, err = t.ReportDefect(ctx, req)
		return err
	})
	if err != nil {
		return nil, nil, toolError(err)
	}
	return nil, newDefectResult(created), nil
}

func (h *Handler) listDefects(ctx context.Context, _ *sdkmcp.CallToolRequest, _ ListDefectsParams) (*sdkmcp.CallToolResult, any, error) {
	var defects []defect.Defect
	err := h.runner.Do(ctx, func(ctx context.Context, t *tracker.Tracker) error {
		var err error
		defects, err = t.Defects(ctx)
		return err
	})
	if err != nil {
		return nil, nil, toolError(err)
	}
	if defects == nil {
		defects = []defect.Defect{}
	}
	return nil, DefectListResult{Defects: defects, Count: len(defects)}, nil
}

func (h *Handler) selectDefect(ctx context.Context, _ *sdkmcp.CallToolRequest, in SelectDefectParams) (*sdkmcp.CallToolResult, any, error) {
	if strings.TrimSpace(in.ID) == "" {
		var result StatusResult
		err := h.runner.Do(ctx, func(_ context.Context, t *tracker.Tracker) error {
			t.ClearDefect()
			result.Status = t.Status()
			return nil
		})
		if err != nil {
			return nil, nil, toolError(err)
		}
		return nil, result, nil
	}

	var selected *defect.Defect
	var loc defect.Location
	var moved bool
	err := h.runner.Do(ctx, func(ctx context.Context, t *tracker.Tracker) error {
		var err error
		selected, err = t.SelectDefect(ctx, in.ID)
		loc, moved = h.host.TakeLocation()
		return err
	})
	if err != nil {
		return nil, nil, toolError(err)
	}

	result := newDefectResult(selected)
	if moved {
		result.Goto = &loc
	}
	return nil, result, nil
}

func (h *Handler) checkDefect(ctx context.Context, _ *sdkmcp.CallToolRequest, in CheckDefectParams) (*sdkmcp.CallToolResult, any, error) {
	var updated *defect.Defect
	err := h.runner.Do(ctx, func(ctx context.Context, t *tracker.Tracker) error {
		var err error
		updated, err = t.CheckDefect(ctx, in.ID, in.Checked)
		return err
	})
	if err != nil {
		return nil, nil, toolError(err)
	}
	return nil, newDefectResult(updated), nil
}

func (h *Handler) eventLogTail(_ context.Context, _ *sdkmcp.CallToolRequest, in EventLogParams) (*sdkmcp.CallToolResult, any, error) {
	result := EventLogResult{Entries: []event.Entry{}}
	if h.eventLog == "" {
		return nil, result, nil
	}
	limit := in.Limit
	if limit <= 0 {
		limit = defaultEventLimit
	}
	entries, err := eventlog.Tail(h.eventLog, limit)
	if err != nil {
		return nil, nil, toolError(err)
	}
	if entries != nil {
		result.Entries = entries
	}
	return nil, result, nil
}

func parseType(value string) (defect.Type, error) {
	if strings.TrimSpace(value) == "" {
		return 0, nil
	}
	return defect.ParseType(value)
}

func parseOptionalPhase(value string) (phase.Phase, error) {
	if strings.TrimSpace(value) == "" {
		return phase.None, nil
	}
	return phase.Parse(value)
}
