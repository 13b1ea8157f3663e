package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	ferrors "git.home.luguber.info/inful/patternpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/patternpipe/internal/logfields"
	"git.home.luguber.info/inful/patternpipe/internal/metrics"
)

// Executor interprets a Task tree.
//
// A Sequence runs members in order and returns the first error, skipping
// members that have not started. A Parallel group starts every member, waits
// for all of them to settle regardless of failures, then returns the first
// error observed. A started leaf always runs to completion; the context is
// only consulted before a sequence member starts.
type Executor struct {
	logger    *slog.Logger
	observers multiObserver
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger used for task lifecycle messages.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithObserver adds an observer.
func WithObserver(o Observer) Option {
	return func(e *Executor) {
		if o != nil {
			e.observers = append(e.observers, o)
		}
	}
}

// WithRecorder reports task durations and results to rec.
func WithRecorder(rec metrics.Recorder) Option {
	return func(e *Executor) {
		if rec != nil {
			e.observers = append(e.observers, recorderObserver{rec: rec})
		}
	}
}

// NewExecutor returns an executor configured by opts.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs t on a new goroutine and calls done with its result.
func (e *Executor) Execute(ctx context.Context, t Task, done func(error)) {
	go func() {
		err := e.Run(ctx, t)
		if done != nil {
			done(err)
		}
	}()
}

// Run executes t and blocks until it settles.
func (e *Executor) Run(ctx context.Context, t Task) error {
	if t == nil {
		return ferrors.InternalError("nil task").Build()
	}

	e.observers.OnTaskStart(t.Name(), t.Kind())
	e.logger.Debug("Task started", logfields.Task(t.Name()), logfields.Kind(string(t.Kind())))

	start := time.Now()
	var err error
	switch v := t.(type) {
	case *Leaf:
		err = e.runLeaf(ctx, v)
	case *Sequence:
		err = e.runSequence(ctx, v)
	case *Parallel:
		err = e.runParallel(ctx, v)
	default:
		err = ferrors.InternalError(fmt.Sprintf("unknown task type %T", t)).Build()
	}
	d := time.Since(start)

	e.observers.OnTaskComplete(t.Name(), t.Kind(), d, err)
	if err != nil {
		e.logger.Debug("Task failed", logfields.Task(t.Name()), logfields.Duration(d), logfields.Error(err))
	} else {
		e.logger.Debug("Task finished", logfields.Task(t.Name()), logfields.Duration(d))
	}
	return err
}

func (e *Executor) runLeaf(ctx context.Context, l *Leaf) error {
	if l.runner == nil {
		return ferrors.InternalError(fmt.Sprintf("task %s has no runner", l.name)).Build()
	}
	return l.runner.Run(ctx)
}

func (e *Executor) runSequence(ctx context.Context, s *Sequence) error {
	for i, m := range s.members {
		if err := ctx.Err(); err != nil {
			e.logger.Info("Sequence canceled",
				logfields.Task(s.name),
				slog.Int("skipped", len(s.members)-i))
			return fmt.Errorf("task %s: %w", s.name, err)
		}
		if err := e.Run(ctx, m); err != nil {
			if skipped := len(s.members) - i - 1; skipped > 0 {
				e.logger.Debug("Sequence aborted",
					logfields.Task(s.name),
					slog.String("failed", m.Name()),
					slog.Int("skipped", skipped))
			}
			return err
		}
	}
	return nil
}

func (e *Executor) runParallel(ctx context.Context, p *Parallel) error {
	// A plain Group: one member failing must not cancel its siblings.
	var g errgroup.Group
	for _, m := range p.members {
		g.Go(func() error {
			return e.Run(ctx, m)
		})
	}
	return g.Wait()
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
