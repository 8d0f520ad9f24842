package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rpggio/psptrack/internal/config"
	"github.com/rpggio/psptrack/internal/eventlog"
	"github.com/rpggio/psptrack/internal/mcp"
	"github.com/rpggio/psptrack/internal/metrics"
	"github.com/rpggio/psptrack/internal/sqlite"
	"github.com/rpggio/psptrack/internal/tracker"
)

func version() string {
	return mcp.Version
}

// app holds the stores shared by every command.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	db      *sqlite.DB
	events  *eventlog.File
	metrics *metrics.Metrics
	logFile *os.File
}

// loadConfig reads the config file and applies command line overrides.
func (o *rootOptions) loadConfig() (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("config error: %w", err)
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	return cfg, nil
}

// openApp opens the database and the event log. Logs go to logWriter unless
// PSP_LOG_PATH names a file.
func openApp(cfg config.Config, logWriter io.Writer) (*app, error) {
	a := &app{cfg: cfg, metrics: metrics.New()}

	if logPath := os.Getenv("PSP_LOG_PATH"); logPath != "" {
		fileWriter, file, err := newLogFileWriter(logPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			a.logFile = file
			logWriter = fileWriter
		}
	}
	a.logger = slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		a.Close()
		return nil, fmt.Errorf("prepare database path: %w", err)
	}
	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.db = db
	if err := db.RunMigrations(); err != nil {
		a.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	events, err := eventlog.Open(cfg.Events.Path)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open event log: %w", err)
	}
	a.events = events

	a.logger.Debug("stores opened", "db", cfg.DB.Path, "events", cfg.Events.Path)
	return a, nil
}

// newTracker builds a tracker over the app stores.
func (a *app) newTracker(host tracker.Host) *tracker.Tracker {
	return tracker.New(tracker.Config{
		Phases:         sqlite.NewPhaseRepository(a.db),
		Defects:        sqlite.NewDefectRepository(a.db),
		EventLog:       a.events,
		Host:           host,
		Metrics:        a.metrics,
		Logger:         a.logger,
		DefaultComment: a.cfg.Tracker.DefaultComment,
	})
}

func (a *app) newRunner(t *tracker.Tracker, opts ...tracker.RunnerOption) *tracker.Runner {
	opts = append([]tracker.RunnerOption{
		tracker.WithInterval(a.cfg.Tracker.TickInterval.Duration),
		tracker.WithLogger(a.logger),
	}, opts...)
	return tracker.NewRunner(t, opts...)
}

// Close releases the stores in reverse order of opening.
func (a *app) Close() error {
	var errs []error
	if a.events != nil {
		errs = append(errs, a.events.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	if a.logFile != nil {
		errs = append(errs, a.logFile.Close())
	}
	return errors.Join(errs...)
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
