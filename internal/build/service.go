// Package build runs a BuildRun: the asset pipeline followed, only when it
// succeeded, by the external renderer.
package build

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/patternpipe/internal/logfields"
	"git.home.luguber.info/inful/patternpipe/internal/metrics"
	"git.home.luguber.info/inful/patternpipe/internal/render"
	"git.home.luguber.info/inful/patternpipe/internal/task"
)

// TaskName is the name of the composite formed by assets plus render.
const TaskName = "patternlab:build"

// RenderTaskName names the render leaf.
const RenderTaskName = "patternlab:render"

// Stage identifies which half of a BuildRun produced a result.
type Stage string

const (
	StageAssets Stage = "assets"
	StageRender Stage = "render"
)

// Status represents the outcome of a build execution.
type Status string

const (
	StatusSuccess   Status = "success"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// IsSuccess returns true if the build completed successfully.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess
}

// Result describes one finished BuildRun.
type Result struct {
	ID     string
	Status Status
	// FailedStage is set when Status is not success.
	FailedStage Stage
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
}

// Builder is the core build adapter.
type Builder struct {
	executor *task.Executor
	assets   task.Task
	renderer render.Renderer
	clean    bool
	logger   *slog.Logger
	recorder metrics.Recorder
}

// Option configures a Builder.
type Option func(*Builder)

func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

func WithRecorder(r metrics.Recorder) Option {
	return func(b *Builder) {
		if r != nil {
			b.recorder = r
		}
	}
}

// New returns a builder that runs assets with exec and then renderer.Build(clean).
func New(exec *task.Executor, assets task.Task, renderer render.Renderer, clean bool, opts ...Option) *Builder {
	b := &Builder{
		executor: exec,
		assets:   assets,
		renderer: renderer,
		clean:    clean,
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// renderTask wraps the renderer's build entry point as a leaf.
func (b *Builder) renderTask() task.Task {
	return task.LeafFunc(RenderTaskName, func(ctx context.Context) error {
		return b.renderer.Build(ctx, b.clean)
	})
}

// Task returns the BuildRun as a sequence, for running it by name.
func (b *Builder) Task() task.Task {
	return task.NewSequence(TaskName, b.assets, b.renderTask())
}

// Build runs one BuildRun and returns either stage's error unchanged.
func (b *Builder) Build(ctx context.Context) error {
	_, err := b.Run(ctx)
	return err
}

// Execute runs a BuildRun on a new goroutine and calls done with its error.
func (b *Builder) Execute(ctx context.Context, done func(error)) {
	go func() {
		err := b.Build(ctx)
		if done != nil {
			done(err)
		}
	}()
}

// Run executes one BuildRun. Nothing is retried.
func (b *Builder) Run(ctx context.Context) (*Result, error) {
	res := &Result{ID: uuid.NewString(), StartTime: time.Now()}
	log := b.logger.With(logfields.RunID(res.ID))
	log.Info("Build started", slog.Bool("clean", b.clean))

	err := b.executor.Run(ctx, b.assets)
	if err != nil {
		res.FailedStage = StageAssets
	} else {
		err = b.executor.Run(ctx, b.renderTask())
		if err != nil {
			res.FailedStage = StageRender
		}
	}

	res.EndTime = time.Now()
	res.Duration = res.EndTime.Sub(res.StartTime)
	canceled := errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
	switch {
	case err == nil:
		res.Status = StatusSuccess
		log.Info("Build finished", logfields.Duration(res.Duration))
	case canceled:
		res.Status = StatusCancelled
		log.Warn("Build cancelled", slog.String("stage", string(res.FailedStage)), logfields.Duration(res.Duration))
	default:
		res.Status = StatusFailed
		log.Error("Build failed", slog.String("stage", string(res.FailedStage)), logfields.Duration(res.Duration), logfields.Error(err))
	}
	b.recorder.ObserveBuildDuration(res.Duration)
	b.recorder.IncBuildOutcome(metrics.ResultFor(err, canceled))
	return res, err
}
