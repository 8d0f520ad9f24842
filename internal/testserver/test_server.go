// Package testserver runs the full HTTP stack against in-memory stores for
// end-to-end tests.
package testserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rpggio/psptrack/internal/eventlog"
	"github.com/rpggio/psptrack/internal/mcp"
	"github.com/rpggio/psptrack/internal/metrics"
	"github.com/rpggio/psptrack/internal/sqlite"
	"github.com/rpggio/psptrack/internal/tracker"
	"github.com/rpggio/psptrack/internal/transport"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

type TestServer struct {
	Server       *httptest.Server
	DB           *sqlite.DB
	Runner       *tracker.Runner
	Metrics      *metrics.Metrics
	EventLogPath string
}

// New starts a server whose runner never ticks on its own. Use Tick to
// advance the stopwatch.
func New(t *testing.T) *TestServer {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	logPath := filepath.Join(t.TempDir(), "events.log")
	events, err := eventlog.Open(logPath)
	require.NoError(t, err)

	m := metrics.New()
	host := mcp.NewHost(nil)
	tr := tracker.New(tracker.Config{
		Phases:         sqlite.NewPhaseRepository(db),
		Defects:        sqlite.NewDefectRepository(db),
		EventLog:       events,
		Host:           host,
		Metrics:        m,
		DefaultComment: "phone call",
	})
	runner := tracker.NewRunner(tr, tracker.WithInterval(time.Hour))

	mcpServer := mcp.NewServer(mcp.Config{
		Runner:        runner,
		Host:          host,
		EventLogPath:  logPath,
		TransportMode: "http",
	})
	server := httptest.NewServer(transport.NewServer(transport.Options{
		MCP:     mcp.NewHTTPHandler(mcpServer),
		Metrics: m.Handler(),
		Status: func(r *http.Request) (any, error) {
			var status tracker.Status
			err := runner.Do(r.Context(), func(_ context.Context, t *tracker.Tracker) error {
				status = t.Status()
				return nil
			})
			return status, err
		},
	}))

	ts := &TestServer{
		Server:       server,
		DB:           db,
		Runner:       runner,
		Metrics:      m,
		EventLogPath: logPath,
	}

	t.Cleanup(func() {
		server.Close()
		_ = runner.Close()
		_ = events.Close()
		_ = db.Close()
	})

	return ts
}

// Connect opens an MCP client session over streamable HTTP.
func (ts *TestServer) Connect(t *testing.T) *sdkmcp.ClientSession {
	t.Helper()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)
	session, err := client.Connect(context.Background(), &sdkmcp.StreamableClientTransport{
		Endpoint: ts.Server.URL + "/mcp",
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })
	return session
}

// Tick advances the stopwatch n seconds.
func (ts *TestServer) Tick(t *testing.T, n int) {
	t.Helper()
	require.NoError(t, ts.Runner.Do(context.Background(), func(ctx context.Context, tr *tracker.Tracker) error {
		for i := 0; i < n; i++ {
			if _, err := tr.OnTick(ctx); err != nil {
				return err
			}
		}
		return nil
	}))
}
