// Command psp is a Personal Software Process time and defect tracker. It
// serves the tracker over MCP, prints reports and runs an interactive
// terminal stopwatch.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "psp",
		Short:         "Personal Software Process time and defect tracker",
		Version:       version(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (YAML, or TOML with a .toml extension)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newSummaryCmd(opts))
	cmd.AddCommand(newPlanCmd(opts))
	cmd.AddCommand(newDefectsCmd(opts))
	cmd.AddCommand(newDefectCmd(opts))
	cmd.AddCommand(newLogCmd(opts))
	cmd.AddCommand(newTrackCmd(opts))

	return cmd
}
