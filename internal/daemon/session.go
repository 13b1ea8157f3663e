// Package daemon wires configuration into a running session: the asset
// catalog, the build adapter, the reload notifiers and, for watch and serve,
// the watch engine and preview server.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/patternpipe/internal/assets"
	"git.home.luguber.info/inful/patternpipe/internal/build"
	"git.home.luguber.info/inful/patternpipe/internal/config"
	"git.home.luguber.info/inful/patternpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/patternpipe/internal/logfields"
	"git.home.luguber.info/inful/patternpipe/internal/metrics"
	"git.home.luguber.info/inful/patternpipe/internal/preview"
	"git.home.luguber.info/inful/patternpipe/internal/reload"
	"git.home.luguber.info/inful/patternpipe/internal/render"
	"git.home.luguber.info/inful/patternpipe/internal/task"
	"git.home.luguber.info/inful/patternpipe/internal/transform"
	"git.home.luguber.info/inful/patternpipe/internal/watch"
)

// ProviderFactory opens a change-event provider over roots.
type ProviderFactory func(roots []string, logger *slog.Logger) (watch.Provider, error)

func fsnotifyProvider(roots []string, logger *slog.Logger) (watch.Provider, error) {
	return watch.NewFSNotifyProvider(roots, logger)
}

// Session holds everything one command invocation needs.
type Session struct {
	cfg        *config.Config
	configPath string
	logger     *slog.Logger

	registry *prom.Registry
	recorder metrics.Recorder
	hub      *reload.Hub
	nats     *reload.NATSNotifier
	notifier reload.Notifier

	executor *task.Executor
	catalog  *assets.Catalog
	renderer render.Renderer
	builder  *build.Builder

	compiler    transform.StyleCompiler
	newProvider ProviderFactory
	extra       []reload.Notifier

	previewMu  sync.Mutex
	previewSrv *preview.Server
}

// Option configures a Session.
type Option func(*Session)

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRenderer replaces the exec-based renderer.
func WithRenderer(r render.Renderer) Option {
	return func(s *Session) { s.renderer = r }
}

// WithCompiler replaces the sass CLI.
func WithCompiler(c transform.StyleCompiler) Option {
	return func(s *Session) { s.compiler = c }
}

// WithProviderFactory replaces the fsnotify provider used by Watch and Serve.
func WithProviderFactory(f ProviderFactory) Option {
	return func(s *Session) {
		if f != nil {
			s.newProvider = f
		}
	}
}

// WithNotifier adds a reload sink next to the preview hub.
func WithNotifier(n reload.Notifier) Option {
	return func(s *Session) {
		if n != nil {
			s.extra = append(s.extra, n)
		}
	}
}

// NewSession builds the task catalog and collaborators for cfg. configPath
// is handed to the renderer.
func NewSession(cfg *config.Config, configPath string, opts ...Option) (*Session, error) {
	if cfg == nil {
		return nil, errors.ConfigError("configuration is required").Build()
	}
	s := &Session{
		cfg:         cfg,
		configPath:  configPath,
		logger:      slog.Default(),
		registry:    prom.NewRegistry(),
		newProvider: fsnotifyProvider,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.recorder = metrics.NewPrometheusRecorder(s.registry)
	s.hub = reload.NewHub(s.logger, s.recorder)

	notifiers := append(reload.Multi{s.hub}, s.extra...)
	if n := cfg.Notify.NATS; n != nil && n.URL != "" {
		nc, err := reload.NewNATSNotifier(n.URL, n.Subject, s.logger)
		if err != nil {
			// Reload delivery is best effort; the build does not depend on it.
			s.logger.Warn("NATS reload notifications disabled", logfields.Error(err))
		} else {
			s.nats = nc
			notifiers = append(notifiers, nc)
		}
	}
	s.notifier = notifiers

	script, err := transform.NewESBuildScript(cfg.Scripts.Target)
	if err != nil {
		return nil, err
	}
	prefixer, err := transform.NewESBuildPrefixer(cfg.Styles.Targets, cfg.Styles.OutputStyle == config.DefaultOutputStyle)
	if err != nil {
		return nil, err
	}
	if s.compiler == nil {
		s.compiler = transform.NewSassCLI(cfg.Styles.Compiler, cfg.Styles.IncludePaths, cfg.Styles.OutputStyle)
	}

	s.catalog, err = assets.NewCatalog(cfg, assets.Deps{
		Script:   script,
		Compiler: s.compiler,
		Prefixer: prefixer,
		Notifier: s.notifier,
		Logger:   s.logger,
		Recorder: s.recorder,
	})
	if err != nil {
		return nil, err
	}

	if s.renderer == nil {
		s.renderer = render.NewExecRenderer(cfg.Render.Command, cfg.Render.Dir, configPath)
	}
	s.executor = task.NewExecutor(task.WithLogger(s.logger), task.WithRecorder(s.recorder))
	s.builder = build.New(s.executor, s.catalog.Pipeline(), s.renderer, cfg.CleanPublic,
		build.WithLogger(s.logger), build.WithRecorder(s.recorder))
	return s, nil
}

func (s *Session) Config() *config.Config     { return s.cfg }
func (s *Session) Catalog() *assets.Catalog   { return s.catalog }
func (s *Session) Builder() *build.Builder    { return s.builder }
func (s *Session) Renderer() render.Renderer  { return s.renderer }
func (s *Session) Hub() *reload.Hub           { return s.hub }
func (s *Session) Notifier() reload.Notifier  { return s.notifier }
func (s *Session) Registry() *prom.Registry   { return s.registry }
func (s *Session) Executor() *task.Executor   { return s.executor }
func (s *Session) Recorder() metrics.Recorder { return s.recorder }

// Build runs one full BuildRun.
func (s *Session) Build(ctx context.Context) error {
	return s.builder.Build(ctx)
}

// TaskNames lists every task RunTask accepts.
func (s *Session) TaskNames() []string {
	return append(s.catalog.Names(), build.TaskName)
}

// RunTask runs one named task. patternlab:build runs the full BuildRun.
func (s *Session) RunTask(ctx context.Context, name string) error {
	if name == build.TaskName {
		return s.Build(ctx)
	}
	t, ok := s.catalog.Lookup(name)
	if !ok {
		return errors.ValidationError(fmt.Sprintf("unknown task %q", name)).
			WithContext("available", s.TaskNames()).
			UserAction().
			Build()
	}
	return s.executor.Run(ctx, t)
}

// Close releases the notifier connections.
func (s *Session) Close() {
	s.hub.Shutdown()
	if s.nats != nil {
		s.nats.Close()
	}
}
