package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rpggio/psptrack/internal/eventlog"
	"github.com/rpggio/psptrack/internal/metrics"
	"github.com/rpggio/psptrack/internal/sqlite"
	"github.com/rpggio/psptrack/internal/tracker"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

type testSession struct {
	session *sdkmcp.ClientSession
	runner  *tracker.Runner
	logPath string
}

func newTestSession(t *testing.T) *testSession {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { db.Close() })

	logPath := filepath.Join(t.TempDir(), "events.log")
	events, err := eventlog.Open(logPath)
	require.NoError(t, err)
	t.Cleanup(func() { events.Close() })

	host := NewHost(nil)
	tr := tracker.New(tracker.Config{
		Phases:         sqlite.NewPhaseRepository(db),
		Defects:        sqlite.NewDefectRepository(db),
		EventLog:       events,
		Host:           host,
		Metrics:        metrics.New(),
		DefaultComment: "phone call",
	})
	runner := tracker.NewRunner(tr, tracker.WithInterval(time.Hour))
	t.Cleanup(func() { runner.Close() })

	server := NewServer(Config{
		Runner:        runner,
		Host:          host,
		EventLogPath:  logPath,
		TransportMode: "stdio",
	})

	serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { serverSession.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })

	return &testSession{session: session, runner: runner, logPath: logPath}
}

func (s *testSession) call(t *testing.T, name string, args map[string]any) *sdkmcp.CallToolResult {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := s.session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	require.NoError(t, err, "CallTool %s failed", name)
	return result
}

func (s *testSession) callTool(t *testing.T, name string, args map[string]any, out any) {
	t.Helper()
	result := s.call(t, name, args)
	require.False(t, result.IsError, "tool %s returned error: %s", name, resultText(result))
	require.NoError(t, json.Unmarshal([]byte(resultText(result)), out))
}

func (s *testSession) callToolError(t *testing.T, name string, args map[string]any) string {
	t.Helper()
	result := s.call(t, name, args)
	require.True(t, result.IsError, "tool %s should fail", name)
	return resultText(result)
}

// tick advances the stopwatch as the runner's ticker would.
func (s *testSession) tick(t *testing.T, n int) {
	t.Helper()
	require.NoError(t, s.runner.Do(context.Background(), func(ctx context.Context, tr *tracker.Tracker) error {
		for i := 0; i < n; i++ {
			if _, err := tr.OnTick(ctx); err != nil {
				return err
			}
		}
		return nil
	}))
}

func resultText(result *sdkmcp.CallToolResult) string {
	for _, content := range result.Content {
		if text, ok := content.(*sdkmcp.TextContent); ok {
			return text.Text
		}
	}
	return ""
}

type statusOut struct {
	State               string `json:"state"`
	Phase               string `json:"phase"`
	SelectedDefect      string `json:"selected_defect"`
	InterruptionSeconds int64  `json:"interruption_seconds"`
	StateChange         string `json:"state_change"`
}

type defectOut struct {
	Defect struct {
		ID          string `json:"uuid"`
		Number      string `json:"number"`
		Type        int    `json:"type"`
		InjectPhase string `json:"inject_phase"`
		RemovePhase string `json:"remove_phase"`
		FixTime     int64  `json:"fix_time"`
		Checked     bool   `json:"checked"`
	} `json:"defect"`
	TypeName string `json:"type_name"`
	Goto     *struct {
		Filename string `json:"filename"`
		Line     int    `json:"lineno"`
	} `json:"goto"`
}

func TestServer_ListTools(t *testing.T) {
	s := newTestSession(t)

	result, err := s.session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, tool := range result.Tools {
		names[tool.Name] = true
	}
	for _, name := range []string{
		"psp_status", "psp_start", "psp_pause", "psp_stop", "select_phase",
		"set_plan", "plan_summary", "create_defect", "report_defect",
		"list_defects", "select_defect", "check_defect", "event_log",
	} {
		require.True(t, names[name], "missing tool %s", name)
	}
}

func TestServer_StopwatchWorkflow(t *testing.T) {
	s := newTestSession(t)

	var plan SetPlanResult
	s.callTool(t, "set_plan", map[string]any{"phase": "code", "value": "1,5 m"}, &plan)
	require.Equal(t, int64(90), plan.Seconds)
	require.Equal(t, "1.50 m", plan.Display)

	var status statusOut
	s.callTool(t, "psp_start", map[string]any{"phase": "Code"}, &status)
	require.Equal(t, "running", status.State)
	require.Equal(t, "code", status.Phase)
	require.Equal(t, "start", status.StateChange)

	s.tick(t, 3)

	s.callTool(t, "psp_pause", nil, &status)
	require.Equal(t, "interrupted", status.State)
	s.tick(t, 2)
	s.callTool(t, "psp_stop", map[string]any{"comment": "standup"}, &status)
	require.Equal(t, "idle", status.State)

	var summary PlanSummaryResult
	s.callTool(t, "plan_summary", nil, &summary)
	require.Len(t, summary.Phases, 6)
	code := summary.Phases[2]
	require.Equal(t, int64(3), code.Actual)
	require.Equal(t, int64(2), code.Interruption)
	require.Equal(t, "standup 2 s", code.CommentsText)
	require.NotNil(t, code.PercentOfPlan)

	var log EventLogResult
	s.callTool(t, "event_log", map[string]any{"limit": 10}, &log)
	var names []string
	for _, e := range log.Entries {
		names = append(names, e.Event)
	}
	require.Equal(t, []string{"start", "pausing", "resuming", "stop"}, names)
	require.Equal(t, "standup", log.Entries[2].Comment)
}

func TestServer_InvalidTransition(t *testing.T) {
	s := newTestSession(t)

	text := s.callToolError(t, "psp_pause", nil)
	require.True(t, strings.HasPrefix(text, "INVALID_TRANSITION"), text)

	text = s.callToolError(t, "psp_start", map[string]any{"phase": "review"})
	require.True(t, strings.HasPrefix(text, "UNKNOWN_PHASE"), text)

	text = s.callToolError(t, "set_plan", map[string]any{"phase": "test", "value": "abc"})
	require.True(t, strings.HasPrefix(text, "INVALID_DURATION"), text)
}

func TestServer_DefectWorkflow(t *testing.T) {
	s := newTestSession(t)

	var status statusOut
	s.callTool(t, "select_phase", map[string]any{"phase": "compile"}, &status)

	var reported defectOut
	s.callTool(t, "report_defect", map[string]any{
		"description": "undefined: foo",
		"type":        "build",
		"filename":    "main.go",
		"line":        12,
	}, &reported)
	require.Equal(t, "1", reported.Defect.Number)
	require.Equal(t, 30, reported.Defect.Type)
	require.Equal(t, "Build", reported.TypeName)
	require.Equal(t, "compile", reported.Defect.InjectPhase)

	var created defectOut
	s.callTool(t, "create_defect", map[string]any{
		"description": "wrong loop bound",
		"fix_time":    "2m",
	}, &created)
	require.Equal(t, "2", created.Defect.Number)
	require.Equal(t, 20, created.Defect.Type)
	require.Equal(t, int64(120), created.Defect.FixTime)

	var selected defectOut
	s.callTool(t, "select_defect", map[string]any{"id": reported.Defect.ID}, &selected)
	require.NotNil(t, selected.Goto)
	require.Equal(t, "main.go", selected.Goto.Filename)
	require.Equal(t, 12, selected.Goto.Line)

	s.callTool(t, "psp_start", nil, &status)
	require.Equal(t, reported.Defect.ID, status.SelectedDefect)
	s.tick(t, 4)

	s.callTool(t, "select_phase", map[string]any{"phase": "test"}, &status)
	var checked defectOut
	s.callTool(t, "check_defect", map[string]any{"id": reported.Defect.ID, "checked": true}, &checked)
	require.True(t, checked.Defect.Checked)
	require.Equal(t, "test", checked.Defect.RemovePhase)
	require.Equal(t, int64(4), checked.Defect.FixTime)

	var list DefectListResult
	s.callTool(t, "list_defects", nil, &list)
	require.Equal(t, 2, list.Count)
	require.Equal(t, reported.Defect.ID, list.Defects[0].ID)

	text := s.callToolError(t, "select_defect", map[string]any{"id": "missing"})
	require.True(t, strings.HasPrefix(text, "DEFECT_NOT_FOUND"), text)

	text = s.callToolError(t, "create_defect", map[string]any{"description": "x", "type": "25"})
	require.True(t, strings.HasPrefix(text, "INVALID_DEFECT_TYPE"), text)
}

func TestServer_ReadDocs(t *testing.T) {
	s := newTestSession(t)

	result, err := s.session.ReadResource(context.Background(), &sdkmcp.ReadResourceParams{
		URI: "psp://docs/defect-types",
	})
	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	require.Contains(t, result.Contents[0].Text, "| 100 | Environment |")
}

func TestHost_PromptComment(t *testing.T) {
	ctx := context.Background()
	h := NewHost(nil)

	text, ok := h.PromptComment(ctx, "title", "phone call")
	require.True(t, ok)
	require.Equal(t, "phone call", text)

	h.SetComment("lunch")
	text, _ = h.PromptComment(ctx, "title", "phone call")
	require.Equal(t, "lunch", text)

	// The queued comment is used once
	text, _ = h.PromptComment(ctx, "title", "phone call")
	require.Equal(t, "phone call", text)
}

func TestMapError_Unknown(t *testing.T) {
	require.Nil(t, MapError(nil))
	require.Nil(t, MapError(context.Canceled))
	require.Equal(t, context.Canceled, toolError(context.Canceled))
}

func TestServer_UnusedCommentIsDropped(t *testing.T) {
	s := newTestSession(t)

	text := s.callToolError(t, "psp_pause", map[string]any{"comment": "lunch"})
	require.True(t, strings.HasPrefix(text, "INVALID_TRANSITION"), text)

	var status statusOut
	s.callTool(t, "psp_start", map[string]any{"phase": "code"}, &status)
	// Entering an interruption does not prompt, so this comment is unused too
	s.callTool(t, "psp_pause", map[string]any{"comment": "standup"}, &status)
	require.Equal(t, "interrupted", status.State)
	s.callTool(t, "psp_pause", nil, &status)
	require.Equal(t, "running", status.State)

	var log EventLogResult
	s.callTool(t, "event_log", nil, &log)
	require.Len(t, log.Entries, 3)
	require.Equal(t, "resuming", log.Entries[2].Event)
	require.Equal(t, "phone call", log.Entries[2].Comment)
}

func TestServer_RejectedStartKeepsPhase(t *testing.T) {
	s := newTestSession(t)

	var status statusOut
	s.callTool(t, "psp_start", map[string]any{"phase": "code"}, &status)

	text := s.callToolError(t, "psp_start", map[string]any{"phase": "test"})
	require.True(t, strings.HasPrefix(text, "INVALID_TRANSITION"), text)

	s.callTool(t, "psp_status", nil, &status)
	require.Equal(t, "running", status.State)
	require.Equal(t, "code", status.Phase)
}

func TestHandler_EventLogUnreadable(t *testing.T) {
	dir := t.TempDir()
	require.DirExists(t, dir)
	h := NewHandler(nil, nil, dir, nil)

	_, _, err := h.eventLogTail(context.Background(), nil, EventLogParams{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "EVENT_LOG_UNREADABLE", apiErr.Code)

	path := filepath.Join(dir, "events.log")
	require.NoError(t, os.WriteFile(path, []byte("garbage\r\n"), 0o644))
	h = NewHandler(nil, nil, path, nil)
	_, _, err = h.eventLogTail(context.Background(), nil, EventLogParams{})
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "EVENT_LOG_UNREADABLE", apiErr.Code)
}
