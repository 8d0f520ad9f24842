package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rpggio/psptrack/internal/mcp"
	"github.com/rpggio/psptrack/internal/tracker"
	"github.com/rpggio/psptrack/internal/transport"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var transportMode, host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the tracker as an MCP server over stdio or HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("transport") {
				cfg.Server.Transport = transportMode
			}
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("config error: %w", err)
			}

			// Use stderr for logs in stdio mode to keep stdout clean for JSON-RPC.
			logWriter := cmd.OutOrStdout()
			if cfg.Server.Transport == "stdio" {
				logWriter = cmd.ErrOrStderr()
			}
			a, err := openApp(cfg, logWriter)
			if err != nil {
				return err
			}
			defer a.Close()

			mcpHost := mcp.NewHost(a.logger)
			runner := a.newRunner(a.newTracker(mcpHost))
			defer runner.Close()

			mcpServer := mcp.NewServer(mcp.Config{
				Runner:        runner,
				Host:          mcpHost,
				EventLogPath:  a.events.Path(),
				TransportMode: cfg.Server.Transport,
				Logger:        a.logger,
			})

			if cfg.Server.Transport == "stdio" {
				return runStdioMode(a.logger, mcpServer)
			}
			return runHTTPMode(a, runner, mcpServer)
		},
	}

	cmd.Flags().StringVar(&transportMode, "transport", "stdio", "Transport: stdio or http")
	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "HTTP listen host")
	cmd.Flags().IntVar(&port, "port", 8080, "HTTP listen port")

	return cmd
}

func runStdioMode(logger *slog.Logger, mcpServer *sdkmcp.Server) error {
	logger.Info("starting stdio transport")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Run blocks until stdin closes or context is canceled
	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server: %w", err)
	}
	logger.Info("shutting down")
	return nil
}

func runHTTPMode(a *app, runner *tracker.Runner, mcpServer *sdkmcp.Server) error {
	router := transport.NewServer(transport.Options{
		MCP:     mcp.NewHTTPHandler(mcpServer),
		Metrics: a.metrics.Handler(),
		Status:  runnerStatus(runner),
		Logger:  a.logger,
	})

	addr := fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	return waitForShutdown(a.logger, httpServer, errCh)
}

// runnerStatus reports the tracker status for the health endpoint.
func runnerStatus(runner *tracker.Runner) transport.StatusFunc {
	return func(r *http.Request) (any, error) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		var status tracker.Status
		err := runner.Do(ctx, func(_ context.Context, t *tracker.Tracker) error {
			status = t.Status()
			return nil
		})
		return status, err
	}
}

func waitForShutdown(logger *slog.Logger, server *http.Server, errCh <-chan error) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case <-stop:
	case err, ok := <-errCh:
		if ok && err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
