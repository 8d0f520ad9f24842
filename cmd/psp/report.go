package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/rpggio/psptrack/internal/domain/defect"
	"github.com/rpggio/psptrack/internal/domain/event"
	"github.com/rpggio/psptrack/internal/domain/phase"
	"github.com/rpggio/psptrack/internal/duration"
	"github.com/rpggio/psptrack/internal/eventlog"
	"github.com/rpggio/psptrack/internal/tracker"
	"github.com/spf13/cobra"
)

// withTracker runs fn against a tracker with no host. Logs go to stderr.
func withTracker(cmd *cobra.Command, opts *rootOptions, fn func(context.Context, *app, *tracker.Tracker) error) error {
	return withApp(cmd, opts, func(a *app) error {
		return fn(cmd.Context(), a, a.newTracker(nil))
	})
}

func newSummaryCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print the plan summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTracker(cmd, opts, func(ctx context.Context, _ *app, t *tracker.Tracker) error {
				rows, err := t.Summary(ctx)
				if err != nil {
					return err
				}
				printSummary(cmd.OutOrStdout(), rows)
				return nil
			})
		},
	}
}

func printSummary(out io.Writer, rows []phase.Times) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PHASE\tPLAN\tACTUAL\tINTERRUPTION\t%\tCOMMENTS")
	var plan, actual, interruption int64
	for _, row := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			row.Phase,
			duration.Format(row.Plan),
			duration.Format(row.Actual),
			duration.Format(row.Interruption),
			percentText(row),
			phase.FormatComments(row.Comments),
		)
		plan += row.Plan
		actual += row.Actual
		interruption += row.Interruption
	}
	total := phase.Times{Plan: plan, Actual: actual}
	fmt.Fprintf(w, "total\t%s\t%s\t%s\t%s\t\n",
		duration.Format(plan),
		duration.Format(actual),
		duration.Format(interruption),
		percentText(total),
	)
	w.Flush()
}

func percentText(t phase.Times) string {
	percent, ok := t.PercentOfPlan()
	if !ok {
		return ""
	}
	return strconv.FormatFloat(percent, 'f', 0, 64) + "%"
}

func newPlanCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "plan PHASE VALUE",
		Short:   "Set the planned time of a phase",
		Example: "  psp plan code 1.5h\n  psp plan test \"45 m\"",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := phase.Parse(args[0])
			if err != nil {
				return fmt.Errorf("%w: %q", err, args[0])
			}
			return withTracker(cmd, opts, func(ctx context.Context, _ *app, t *tracker.Tracker) error {
				seconds, err := t.SetPlan(ctx, p, args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s plan set to %s\n", p, duration.Format(seconds))
				return nil
			})
		},
	}
}

func newDefectsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "defects",
		Short: "List recorded defects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTracker(cmd, opts, func(ctx context.Context, _ *app, t *tracker.Tracker) error {
				defects, err := t.Defects(ctx)
				if err != nil {
					return err
				}
				printDefects(cmd.OutOrStdout(), defects)
				return nil
			})
		},
	}
}

func printDefects(out io.Writer, defects []defect.Defect) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tDATE\tTYPE\tINJECT\tREMOVE\tFIX TIME\tDONE\tDESCRIPTION\tID")
	for _, d := range defects {
		done := ""
		if d.Checked {
			done = "x"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			d.Number, d.Date, d.Type, d.InjectPhase, d.RemovePhase,
			duration.Format(d.FixTime), done, d.Description, d.ID)
	}
	w.Flush()
}

func newDefectCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "defect",
		Short: "Record or check a defect",
	}
	cmd.AddCommand(newDefectAddCmd(opts))
	cmd.AddCommand(newDefectCheckCmd(opts))
	return cmd
}

func newDefectAddCmd(opts *rootOptions) *cobra.Command {
	var description, typ, inject, remove, fixTime, fixDefect, file string
	var line, offset int

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a defect to the recording log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := defect.CreateRequest{
				Description: description,
				FixDefect:   fixDefect,
				Location:    defect.Location{Filename: file, Line: line, Offset: offset},
			}
			var err error
			if typ != "" {
				if req.Type, err = defect.ParseType(typ); err != nil {
					return fmt.Errorf("%w: %q", err, typ)
				}
			}
			if inject != "" {
				if req.InjectPhase, err = phase.Parse(inject); err != nil {
					return fmt.Errorf("%w: %q", err, inject)
				}
			}
			if remove != "" {
				if req.RemovePhase, err = phase.Parse(remove); err != nil {
					return fmt.Errorf("%w: %q", err, remove)
				}
			}
			if fixTime != "" {
				if req.FixTime, err = duration.Seconds(fixTime); err != nil {
					return err
				}
			}

			return withTracker(cmd, opts, func(ctx context.Context, _ *app, t *tracker.Tracker) error {
				d, err := t.CreateDefect(ctx, req)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "defect %s recorded (%s)\n", d.Number, d.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "What went wrong")
	cmd.Flags().StringVarP(&typ, "type", "t", "", "Defect type code or name (default 20: Syntax)")
	cmd.Flags().StringVar(&inject, "phase", "", "Phase the defect was injected in")
	cmd.Flags().StringVar(&remove, "remove", "", "Phase the defect was removed in")
	cmd.Flags().StringVar(&fixTime, "fix-time", "", "Time already spent fixing, e.g. 5m")
	cmd.Flags().StringVar(&fixDefect, "fix-defect", "", "Number of the defect whose fix injected this one")
	cmd.Flags().StringVar(&file, "file", "", "Source file")
	cmd.Flags().IntVar(&line, "line", 0, "Source line")
	cmd.Flags().IntVar(&offset, "offset", 0, "Source column")
	_ = cmd.MarkFlagRequired("description")

	return cmd
}

func newDefectCheckCmd(opts *rootOptions) *cobra.Command {
	var uncheck bool
	var removePhase string

	cmd := &cobra.Command{
		Use:   "check ID",
		Short: "Mark a defect as fixed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := phase.None
			if removePhase != "" {
				var err error
				if p, err = phase.Parse(removePhase); err != nil {
					return fmt.Errorf("%w: %q", err, removePhase)
				}
			}
			return withTracker(cmd, opts, func(ctx context.Context, _ *app, t *tracker.Tracker) error {
				if err := t.SelectPhase(p); err != nil {
					return err
				}
				d, err := t.CheckDefect(ctx, args[0], !uncheck)
				if err != nil {
					return err
				}
				state := "checked"
				if !d.Checked {
					state = "unchecked"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "defect %s %s\n", d.Number, state)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&uncheck, "uncheck", false, "Clear the checked flag instead")
	cmd.Flags().StringVar(&removePhase, "phase", "", "Phase the defect was removed in")

	return cmd
}

func newLogCmd(opts *rootOptions) *cobra.Command {
	var tail int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Print the event log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			var entries []event.Entry
			if tail > 0 {
				entries, err = eventlog.Tail(cfg.Events.Path, tail)
			} else {
				entries, err = eventlog.ReadEntries(cfg.Events.Path)
			}
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Fprintln(cmd.OutOrStdout(), e.Format())
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&tail, "tail", "n", 0, "Print only the last N events")

	return cmd
}
