package tracker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rpggio/psptrack/internal/stopwatch"
)

// DefaultTickInterval is the stopwatch resolution.
const DefaultTickInterval = time.Second

type command struct {
	ctx    context.Context
	fn     func(context.Context, *Tracker) error
	result chan error
}

// Runner owns a Tracker and runs every operation on it from one goroutine.
// The same goroutine ticks the stopwatch while it is not idle.
type Runner struct {
	tracker    *Tracker
	interval   time.Duration
	logger     *slog.Logger
	onProgress func(stopwatch.Progress)

	cmds      chan command
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithInterval sets the tick interval.
func WithInterval(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithProgress registers a callback that receives every tick result. It
// runs on the runner goroutine.
func WithProgress(fn func(stopwatch.Progress)) RunnerOption {
	return func(r *Runner) {
		r.onProgress = fn
	}
}

// WithLogger sets the logger used for tick failures.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner starts the loop for t.
func NewRunner(t *Tracker, opts ...RunnerOption) *Runner {
	r := &Runner{
		tracker:  t,
		interval: DefaultTickInterval,
		logger:   slog.New(slog.DiscardHandler),
		cmds:     make(chan command),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	go r.loop()
	return r
}

// Do runs fn on the runner goroutine and returns its error.
func (r *Runner) Do(ctx context.Context, fn func(context.Context, *Tracker) error) error {
	cmd := command{ctx: ctx, fn: fn, result: make(chan error, 1)}
	select {
	case r.cmds <- cmd:
	case <-r.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-cmd.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops a running stopwatch and ends the loop. It is safe to call
// more than once.
func (r *Runner) Close() error {
	r.closeOnce.Do(func() {
		close(r.quit)
	})
	<-r.done
	return nil
}

func (r *Runner) loop() {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case cmd := <-r.cmds:
			cmd.result <- cmd.fn(cmd.ctx, r.tracker)
		case <-ticker.C:
			r.tick()
		case <-r.quit:
			if r.tracker.State() != stopwatch.Idle {
				if err := r.tracker.Stop(context.Background()); err != nil {
					r.logger.Warn("failed to stop tracker on close", "error", err)
				}
			}
			return
		}
	}
}

func (r *Runner) tick() {
	if r.tracker.State() == stopwatch.Idle {
		return
	}
	progress, err := r.tracker.OnTick(context.Background())
	if err != nil {
		r.logger.Warn("tick failed", "error", err)
	}
	if r.onProgress != nil {
		r.onProgress(progress)
	}
}
