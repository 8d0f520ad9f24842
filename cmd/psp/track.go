package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"

	"github.com/rpggio/psptrack/internal/domain/defect"
	"github.com/rpggio/psptrack/internal/domain/phase"
	"github.com/rpggio/psptrack/internal/duration"
	"github.com/rpggio/psptrack/internal/stopwatch"
	"github.com/rpggio/psptrack/internal/tracker"
	"github.com/spf13/cobra"
)

const trackHelp = `commands:
  start [PHASE]   start the stopwatch
  pause           interrupt, or resume after an interruption
  stop            stop the stopwatch
  phase PHASE     count time against PHASE
  defect TEXT     record a defect in the current phase
  select ID|N     accrue fix time to a defect
  clear           stop accruing fix time
  check ID|N      mark a defect fixed
  status          show the stopwatch state
  quit            stop and exit`

func newTrackCmd(opts *rootOptions) *cobra.Command {
	var phaseName string

	cmd := &cobra.Command{
		Use:   "track",
		Short: "Run the stopwatch interactively in the terminal",
		Long:  "Run the stopwatch interactively. Commands are read line by line from stdin.\n\n" + trackHelp,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := phase.None
			if phaseName != "" {
				var err error
				if p, err = phase.Parse(phaseName); err != nil {
					return fmt.Errorf("%w: %q", err, phaseName)
				}
			}
			return withApp(cmd, opts, func(a *app) error {
				out := &syncWriter{w: cmd.OutOrStdout()}
				in := bufio.NewScanner(cmd.InOrStdin())
				session := newTrackSession(a, in, out)
				defer session.close()
				return session.run(cmd.Context(), p)
			})
		},
	}

	cmd.Flags().StringVarP(&phaseName, "phase", "p", "", "Phase to start counting against")

	return cmd
}

// withApp opens the stores for commands that build their own tracker.
func withApp(cmd *cobra.Command, opts *rootOptions, fn func(*app) error) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	a, err := openApp(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

// trackSession reads commands from the terminal and applies them through a
// runner. The runner goroutine owns the scanner while a command runs, so
// comment prompts read from the same input.
type trackSession struct {
	in     *bufio.Scanner
	out    io.Writer
	runner *tracker.Runner
}

func newTrackSession(a *app, in *bufio.Scanner, out io.Writer) *trackSession {
	s := &trackSession{in: in, out: out}
	host := &terminalHost{in: in, out: out}
	progress := &progressPrinter{out: out}
	s.runner = a.newRunner(a.newTracker(host), tracker.WithProgress(progress.print))
	return s
}

func (s *trackSession) close() {
	s.runner.Close()
	fmt.Fprintln(s.out, "stopped")
}

func (s *trackSession) run(ctx context.Context, start phase.Phase) error {
	if start != phase.None {
		s.exec(ctx, "start "+start.String())
	} else {
		fmt.Fprintln(s.out, "type help for commands")
	}

	for s.in.Scan() {
		line := strings.TrimSpace(s.in.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return nil
		}
		s.exec(ctx, line)
	}
	return s.in.Err()
}

// exec runs one command line and prints its outcome. Command errors are
// reported and the session continues.
func (s *trackSession) exec(ctx context.Context, line string) {
	verb, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	var msg string
	err := s.runner.Do(ctx, func(ctx context.Context, t *tracker.Tracker) error {
		var err error
		msg, err = s.apply(ctx, t, verb, arg)
		return err
	})
	if err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
		return
	}
	if msg != "" {
		fmt.Fprintln(s.out, msg)
	}
}

func (s *trackSession) apply(ctx context.Context, t *tracker.Tracker, verb, arg string) (string, error) {
	switch verb {
	case "help", "?":
		return trackHelp, nil
	case "start":
		if arg != "" {
			p, err := phase.Parse(arg)
			if err != nil {
				return "", fmt.Errorf("%w: %q", err, arg)
			}
			if err := t.SelectPhase(p); err != nil {
				return "", err
			}
		}
		if err := t.Start(ctx); err != nil {
			return "", err
		}
		return describe(t), nil
	case "pause":
		if err := t.Pause(ctx); err != nil {
			return "", err
		}
		return describe(t), nil
	case "stop":
		if err := t.Stop(ctx); err != nil {
			return "", err
		}
		return describe(t), nil
	case "phase":
		p, err := phase.Parse(arg)
		if err != nil {
			return "", fmt.Errorf("%w: %q", err, arg)
		}
		if err := t.SelectPhase(p); err != nil {
			return "", err
		}
		return describe(t), nil
	case "defect":
		if arg == "" {
			return "", errors.New("defect needs a description")
		}
		d, err := t.CreateDefect(ctx, defect.CreateRequest{Description: arg})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("defect %s recorded (%s)", d.Number, d.ID), nil
	case "select":
		id, err := resolveDefect(ctx, t, arg)
		if err != nil {
			return "", err
		}
		d, err := t.SelectDefect(ctx, id)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("fixing defect %s: %s", d.Number, d.Description), nil
	case "clear":
		t.ClearDefect()
		return describe(t), nil
	case "check":
		id, err := resolveDefect(ctx, t, arg)
		if err != nil {
			return "", err
		}
		d, err := t.CheckDefect(ctx, id, true)
		if err != nil {
			return "", err
		}
		if t.SelectedDefect() == d.ID {
			t.ClearDefect()
		}
		return fmt.Sprintf("defect %s checked, fix time %s", d.Number, duration.Format(d.FixTime)), nil
	case "status":
		return describe(t), nil
	default:
		return "", fmt.Errorf("unknown command %q, type help for commands", verb)
	}
}

// resolveDefect accepts a defect id or its display number.
func resolveDefect(ctx context.Context, t *tracker.Tracker, ref string) (string, error) {
	if ref == "" {
		return "", errors.New("missing defect id")
	}
	defects, err := t.Defects(ctx)
	if err != nil {
		return "", err
	}
	for _, d := range defects {
		if d.Number == ref {
			return d.ID, nil
		}
	}
	return ref, nil
}

func describe(t *tracker.Tracker) string {
	status := t.Status()
	var b strings.Builder
	b.WriteString(status.State)
	if status.Phase != phase.None {
		b.WriteString(" in " + status.Phase.String())
	}
	if status.State == stopwatch.Interrupted.String() {
		b.WriteString(", interrupted for " + duration.Format(status.InterruptionSeconds))
	}
	if status.Progress.HasPercent {
		fmt.Fprintf(&b, ", %.0f%% of plan", status.Progress.Percent)
	}
	if status.SelectedDefect != "" {
		b.WriteString(", fixing " + status.SelectedDefect)
	}
	return b.String()
}

// terminalHost prompts on the terminal for interruption comments.
type terminalHost struct {
	in  *bufio.Scanner
	out io.Writer
}

func (h *terminalHost) PromptComment(_ context.Context, title string, def string) (string, bool) {
	fmt.Fprintf(h.out, "%s [%s]: ", title, def)
	if !h.in.Scan() {
		return "", false
	}
	text := strings.TrimSpace(h.in.Text())
	if text == "" {
		return def, true
	}
	return text, true
}

func (h *terminalHost) GotoSource(_ context.Context, loc defect.Location) {
	fmt.Fprintf(h.out, "goto %s:%d:%d\n", loc.Filename, loc.Line, loc.Offset)
}

func (h *terminalHost) DefectCreated(context.Context, *defect.Defect) {}

// progressPrinter reports each whole percent of plan reached.
type progressPrinter struct {
	out   io.Writer
	phase phase.Phase
	last  int
}

func (p *progressPrinter) print(progress stopwatch.Progress) {
	if !progress.HasPercent {
		return
	}
	percent := int(math.Floor(progress.Percent))
	if progress.Phase == p.phase && percent == p.last {
		return
	}
	p.phase = progress.Phase
	p.last = percent
	fmt.Fprintf(p.out, "%s: %d%% of plan\n", progress.Phase, percent)
}

// syncWriter serializes writes from the runner and the command loop.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
