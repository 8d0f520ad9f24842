package testserver_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/rpggio/psptrack/internal/eventlog"
	"github.com/rpggio/psptrack/internal/testserver"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

func callTool(t *testing.T, session *sdkmcp.ClientSession, name string, args map[string]any, out any) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.False(t, result.IsError, "tool %s failed", name)
	if out == nil {
		return
	}
	text, ok := result.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok)
	require.NoError(t, json.Unmarshal([]byte(text.Text), out))
}

func TestHTTP_StopwatchOverMCP(t *testing.T) {
	ts := testserver.New(t)
	session := ts.Connect(t)

	callTool(t, session, "set_plan", map[string]any{"phase": "design", "value": "20"}, nil)
	callTool(t, session, "psp_start", map[string]any{"phase": "design"}, nil)
	ts.Tick(t, 5)

	var status struct {
		State    string `json:"state"`
		Progress struct {
			Percent float64 `json:"percent"`
		} `json:"progress"`
	}
	callTool(t, session, "psp_status", nil, &status)
	require.Equal(t, "running", status.State)
	require.InDelta(t, 25.0, status.Progress.Percent, 1e-9)

	callTool(t, session, "psp_stop", nil, nil)

	entries, err := eventlog.ReadEntries(ts.EventLogPath)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "design", entries[0].Phase)

	resp, err := http.Get(ts.Server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `psp_ticks_total{kind="actual",phase="design"} 5`)
}

func TestHTTP_Health(t *testing.T) {
	ts := testserver.New(t)

	resp, err := http.Get(ts.Server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Status  string `json:"status"`
		Tracker struct {
			State string `json:"state"`
		} `json:"tracker"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "ok", body.Status)
	require.Equal(t, "idle", body.Tracker.State)
}
