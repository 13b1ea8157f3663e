package daemon

import (
	"log/slog"

	"git.home.luguber.info/inful/patternpipe/internal/assets"
	"git.home.luguber.info/inful/patternpipe/internal/paths"
	"git.home.luguber.info/inful/patternpipe/internal/reload"
	"git.home.luguber.info/inful/patternpipe/internal/watch"
)

// Subscription names.
const (
	SubscriptionStyles      = "styles"
	SubscriptionStylesheets = "stylesheets"
	SubscriptionStyleguide  = "styleguide"
	SubscriptionPatterns    = "patterns"
)

var watchRoles = []string{
	paths.SourceCSS,
	paths.SourceStyleguide,
	paths.SourcePatterns,
	paths.SourceData,
	paths.SourceFonts,
	paths.SourceImages,
	paths.SourceMeta,
	paths.SourceAnnotations,
}

// Subscriptions returns the watch subscriptions in registration order.
func (s *Session) Subscriptions() ([]*watch.Subscription, error) {
	p, err := paths.ResolveAll(s.cfg.Paths, watchRoles...)
	if err != nil {
		return nil, err
	}
	run := func(name string) watch.Reaction {
		return watch.TaskReaction(s.executor, s.catalog.MustLookup(name))
	}
	return []*watch.Subscription{
		{
			Name:     SubscriptionStyles,
			Globs:    []watch.Glob{watch.NewGlob(p[paths.SourceCSS], "**/*.scss")},
			Reaction: run(assets.TaskStyles),
			Mode:     reload.ModeStyle,
		},
		{
			Name:     SubscriptionStylesheets,
			Globs:    []watch.Glob{watch.NewGlob(p[paths.SourceCSS], "**/*.css")},
			Reaction: run(assets.TaskStylesheets),
			Mode:     reload.ModeStyle,
		},
		{
			Name:     SubscriptionStyleguide,
			Globs:    []watch.Glob{watch.NewGlob(p[paths.SourceStyleguide], "**/*.*")},
			Reaction: run(assets.TaskStyleguides),
			Mode:     reload.ModeStyle,
		},
		{
			Name:     SubscriptionPatterns,
			Globs:    patternGlobs(p, s.cfg.TemplateExtensions),
			Reaction: watch.BuildReaction(s.builder),
			Mode:     reload.ModeFull,
		},
	}, nil
}

// patternGlobs are the sources whose change needs a full render.
func patternGlobs(p map[string]string, templateExtensions []string) []watch.Glob {
	globs := []watch.Glob{
		watch.NewGlob(p[paths.SourcePatterns], "**/*.json"),
		watch.NewGlob(p[paths.SourcePatterns], "**/*.md"),
		watch.NewGlob(p[paths.SourceData], "*.json"),
		watch.NewGlob(p[paths.SourceFonts], "*"),
		watch.NewGlob(p[paths.SourceImages], "*"),
		watch.NewGlob(p[paths.SourceMeta], "*"),
		watch.NewGlob(p[paths.SourceAnnotations], "*"),
	}
	for _, ext := range templateExtensions {
		globs = append(globs, watch.NewGlob(p[paths.SourcePatterns], "**/*"+ext))
	}
	return globs
}

func logPatternGlobs(logger *slog.Logger, subs []*watch.Subscription) {
	for _, sub := range subs {
		if sub.Name != SubscriptionPatterns {
			continue
		}
		globs := make([]string, 0, len(sub.Globs))
		for _, g := range sub.Globs {
			globs = append(globs, g.String())
		}
		logger.Info("Watching pattern sources", slog.Any("globs", globs))
	}
}
