package mcp

import (
	"github.com/rpggio/psptrack/internal/domain/defect"
	"github.com/rpggio/psptrack/internal/domain/event"
	"github.com/rpggio/psptrack/internal/domain/phase"
	"github.com/rpggio/psptrack/internal/duration"
	"github.com/rpggio/psptrack/internal/tracker"
)

type StatusParams struct{}

type StartParams struct {
	Phase string `json:"phase,omitempty" jsonschema:"phase to select before starting"`
}

type CommentParams struct {
	Comment string `json:"comment,omitempty" jsonschema:"interruption comment used when the call ends an interruption"`
}

type SelectPhaseParams struct {
	Phase string `json:"phase" jsonschema:"planning, design, code, compile, test or postmortem; empty clears the selection"`
}

type SetPlanParams struct {
	Phase string `json:"phase" jsonschema:"phase to plan"`
	Value string `json:"value" jsonschema:"planned time such as 90, 45m, 1.5h or 1,5 h"`
}

type PlanSummaryParams struct{}

type CreateDefectParams struct {
	Description string `json:"description" jsonschema:"what is wrong"`
	Type        string `json:"type,omitempty" jsonschema:"defect type code or name, default 20 (Syntax)"`
	InjectPhase string `json:"inject_phase,omitempty" jsonschema:"phase the defect was injected in, default the selected phase"`
	RemovePhase string `json:"remove_phase,omitempty" jsonschema:"phase the defect was removed in"`
	FixTime     string `json:"fix_time,omitempty" jsonschema:"time already spent fixing, such as 5m"`
	FixDefect   string `json:"fix_defect,omitempty" jsonschema:"number of the defect whose fix injected this one"`
	Filename    string `json:"filename,omitempty" jsonschema:"source file"`
	Line        int    `json:"line,omitempty" jsonschema:"source line"`
	Offset      int    `json:"offset,omitempty" jsonschema:"column offset"`
}

type ReportDefectParams struct {
	Description string `json:"description" jsonschema:"error message or summary"`
	Type        string `json:"type,omitempty" jsonschema:"defect type code or name, default 20 (Syntax)"`
	Filename    string `json:"filename,omitempty" jsonschema:"source file"`
	Line        int    `json:"line,omitempty" jsonschema:"source line"`
	Offset      int    `json:"offset,omitempty" jsonschema:"column offset"`
}

type ListDefectsParams struct{}

type SelectDefectParams struct {
	ID string `json:"id" jsonschema:"defect uuid; empty clears the selection"`
}

type CheckDefectParams struct {
	ID      string `json:"id" jsonschema:"defect uuid"`
	Checked bool   `json:"checked" jsonschema:"true when the defect is fixed"`
}

type EventLogParams struct {
	Limit int `json:"limit,omitempty" jsonschema:"number of most recent entries, default 20"`
}

type StatusResult struct {
	tracker.Status
	StateChange string `json:"state_change,omitempty"`
}

// PlanRow is one phase of the plan summary with display strings.
type PlanRow struct {
	phase.Times
	PlanText         string   `json:"plan_text"`
	ActualText       string   `json:"actual_text"`
	InterruptionText string   `json:"interruption_text"`
	CommentsText     string   `json:"comments_text,omitempty"`
	PercentOfPlan    *float64 `json:"percent_of_plan,omitempty"`
}

type PlanSummaryResult struct {
	Phases []PlanRow `json:"phases"`
}

type SetPlanResult struct {
	Phase   phase.Phase `json:"phase"`
	Seconds int64       `json:"seconds"`
	Display string      `json:"display"`
}

type DefectResult struct {
	Defect   *defect.Defect   `json:"defect"`
	TypeName string           `json:"type_name"`
	Goto     *defect.Location `json:"goto,omitempty"`
}

type DefectListResult struct {
	Defects []defect.Defect `json:"defects"`
	Count   int             `json:"count"`
}

type EventLogResult struct {
	Entries []event.Entry `json:"entries"`
}

func newPlanRow(t phase.Times) PlanRow {
	row := PlanRow{
		Times:            t,
		PlanText:         duration.Format(t.Plan),
		ActualText:       duration.Format(t.Actual),
		InterruptionText: duration.Format(t.Interruption),
		CommentsText:     phase.FormatComments(t.Comments),
	}
	if percent, ok := t.PercentOfPlan(); ok {
		row.PercentOfPlan = &percent
	}
	return row
}

func newDefectResult(d *defect.Defect) DefectResult {
	return DefectResult{Defect: d, TypeName: d.Type.Name()}
}
