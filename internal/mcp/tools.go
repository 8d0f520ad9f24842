package mcp

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// registerTools adds every PSP tool to server.
func registerTools(server *sdkmcp.Server, h *Handler) {
	// Stopwatch
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "psp_status",
		Description: "Show the stopwatch state, selected phase and defect, and progress against plan",
	}, h.status)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "psp_start",
		Description: "Start the stopwatch, optionally selecting a phase first",
	}, h.start)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "psp_pause",
		Description: "Begin an interruption, or end it and record the comment against the phase",
	}, h.pause)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "psp_stop",
		Description: "Stop the stopwatch; an open interruption is closed with the comment first",
	}, h.stop)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "select_phase",
		Description: "Select the phase that time is counted against",
	}, h.selectPhase)

	// Plan summary
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "set_plan",
		Description: "Set the planned time of a phase",
	}, h.setPlan)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "plan_summary",
		Description: "Plan, actual and interruption time for every phase",
	}, h.planSummary)

	// Defect recording log
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "create_defect",
		Description: "Record a defect found by the developer",
	}, h.createDefect)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "report_defect",
		Description: "Record a defect raised by a tool, such as a compiler error, against the selected phase",
	}, h.reportDefect)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_defects",
		Description: "List the defect recording log in creation order",
	}, h.listDefects)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "select_defect",
		Description: "Select the defect that accrues fix time and return its source location",
	}, h.selectDefect)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "check_defect",
		Description: "Mark a defect fixed or not fixed",
	}, h.checkDefect)

	// Event log
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "event_log",
		Description: "Most recent lines of the chronological event log",
	}, h.eventLogTail)
}
