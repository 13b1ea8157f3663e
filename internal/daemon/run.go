package daemon

import (
	"context"
	"time"

	"git.home.luguber.info/inful/patternpipe/internal/logfields"
	"git.home.luguber.info/inful/patternpipe/internal/paths"
	"git.home.luguber.info/inful/patternpipe/internal/preview"
	"git.home.luguber.info/inful/patternpipe/internal/watch"
)

const shutdownTimeout = 5 * time.Second

// Watch runs a BuildRun and then rebuilds on source changes until ctx is
// done. A failing initial build returns without watching.
func (s *Session) Watch(ctx context.Context) error {
	if err := s.Build(ctx); err != nil {
		return err
	}
	return s.watch(ctx, nil)
}

// Serve runs a BuildRun, starts the preview server over public.root and
// watches until ctx is done.
func (s *Session) Serve(ctx context.Context) error {
	if err := s.Build(ctx); err != nil {
		return err
	}
	root, err := paths.Resolve(s.cfg.Paths, paths.PublicRoot)
	if err != nil {
		return err
	}
	srv := preview.New(root, s.cfg.Serve.Host, s.cfg.Serve.Port, s.hub,
		preview.WithLogger(s.logger),
		preview.WithRegistry(s.registry))
	if err := srv.Start(ctx); err != nil {
		return err
	}
	s.previewMu.Lock()
	s.previewSrv = srv
	s.previewMu.Unlock()
	return s.watch(ctx, srv)
}

// PreviewAddr is the preview server's bound address, empty until Serve has
// started it.
func (s *Session) PreviewAddr() string {
	s.previewMu.Lock()
	defer s.previewMu.Unlock()
	if s.previewSrv == nil {
		return ""
	}
	return s.previewSrv.Addr()
}

// watch arms the engine and blocks until ctx is done. On the way out the
// watcher is stopped before the preview server.
func (s *Session) watch(ctx context.Context, srv *preview.Server) (err error) {
	defer func() {
		if srv == nil {
			return
		}
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if stopErr := srv.Stop(stopCtx); stopErr != nil {
			s.logger.Warn("Preview server shutdown error", logfields.Error(stopErr))
		}
	}()

	subs, err := s.Subscriptions()
	if err != nil {
		return err
	}
	var roots []string
	for _, sub := range subs {
		for _, g := range sub.Globs {
			roots = append(roots, g.Root)
		}
	}
	provider, err := s.newProvider(watch.CollapseRoots(roots), s.logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := provider.Close(); closeErr != nil {
			s.logger.Warn("Watcher close error", logfields.Error(closeErr))
		}
	}()

	engine := watch.NewEngine(provider, s.notifier,
		watch.WithLogger(s.logger),
		watch.WithRecorder(s.recorder),
		watch.WithSettleWindow(s.cfg.Watch.StabilityThreshold(), s.cfg.Watch.PollInterval()))
	for _, sub := range subs {
		if err := engine.Register(sub); err != nil {
			return err
		}
	}
	logPatternGlobs(s.logger, subs)
	s.logger.Info("Pattern Lab watching for changes")

	err = engine.Run(ctx)
	s.logger.Info("Watch stopped")
	return err
}
