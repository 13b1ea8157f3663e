// Package assets implements the leaf copy and compile tasks of the asset
// pipeline and assembles them into the named task catalog.
package assets

import (
	"fmt"
	"log/slog"
	"sort"

	"git.home.luguber.info/inful/patternpipe/internal/config"
	"git.home.luguber.info/inful/patternpipe/internal/logfields"
	"git.home.luguber.info/inful/patternpipe/internal/metrics"
	"git.home.luguber.info/inful/patternpipe/internal/paths"
	"git.home.luguber.info/inful/patternpipe/internal/reload"
	"git.home.luguber.info/inful/patternpipe/internal/task"
	"git.home.luguber.info/inful/patternpipe/internal/transform"
)

// Task names.
const (
	TaskJS            = "pl-copy:js"
	TaskImages        = "pl-copy:img"
	TaskAssets        = "pl-copy:assets"
	TaskFavicon       = "pl-copy:favicon"
	TaskFonts         = "pl-copy:font"
	TaskSass          = "pl-sass"
	TaskCSS           = "pl-copy:css"
	TaskSourceMaps    = "pl-copy:sourcemaps"
	TaskStyleguide    = "pl-copy:styleguide"
	TaskStyleguideCSS = "pl-copy:styleguide-css"

	// Composites.
	TaskPipeline    = "pl-assets"
	TaskStyles      = "pl-styles"
	TaskStylesheets = "pl-stylesheets"
	TaskStyleguides = "pl-styleguide"
)

// Deps are the collaborators leaf tasks need.
type Deps struct {
	Script   transform.ScriptTransformer
	Compiler transform.StyleCompiler
	Prefixer transform.Prefixer
	Notifier reload.Notifier
	Logger   *slog.Logger
	Recorder metrics.Recorder
}

// Catalog holds every named task of the asset pipeline.
type Catalog struct {
	tasks    map[string]task.Task
	pipeline *task.Parallel
}

var requiredRoles = []string{
	paths.SourceRoot, paths.PublicRoot,
	paths.SourceJS, paths.PublicJS,
	paths.SourceImages, paths.PublicImages,
	paths.SourceFonts, paths.PublicFonts,
	paths.SourceCSS, paths.PublicCSS,
	paths.SourceStyleguide, paths.PublicStyleguide,
}

// NewCatalog resolves every role the pipeline uses and builds the tasks.
// Missing required roles fail with a configuration error before anything
// runs. pl-copy:assets is only included when both source.assets and
// public.assets are configured.
func NewCatalog(cfg *config.Config, deps Deps) (*Catalog, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Recorder == nil {
		deps.Recorder = metrics.NoopRecorder{}
	}
	if deps.Notifier == nil {
		deps.Notifier = reload.NoopNotifier{}
	}

	p, err := paths.ResolveAll(cfg.Paths, requiredRoles...)
	if err != nil {
		return nil, err
	}

	leaf := func(c *CopyTask) *task.Leaf {
		c.Notifier = deps.Notifier
		c.Logger = deps.Logger
		c.Recorder = deps.Recorder
		return task.NewLeaf(c.TaskName, c)
	}

	js := leaf(&CopyTask{
		TaskName:   TaskJS,
		SourceRoot: p[paths.SourceJS],
		Include:    "**/*.js",
		DestRoot:   p[paths.PublicJS],
		Transform:  deps.Script,
	})
	images := leaf(&CopyTask{
		TaskName:   TaskImages,
		SourceRoot: p[paths.SourceImages],
		Include:    "**/*.*",
		DestRoot:   p[paths.PublicImages],
	})
	favicon := leaf(&CopyTask{
		TaskName:   TaskFavicon,
		SourceRoot: p[paths.SourceRoot],
		Include:    "favicon.ico",
		DestRoot:   p[paths.PublicRoot],
	})
	fonts := leaf(&CopyTask{
		TaskName:   TaskFonts,
		SourceRoot: p[paths.SourceFonts],
		Include:    "**/*",
		DestRoot:   p[paths.PublicFonts],
	})
	sass := task.NewLeaf(TaskSass, &StyleTask{
		TaskName:   TaskSass,
		SourceRoot: p[paths.SourceCSS],
		Compiler:   deps.Compiler,
		Prefixer:   deps.Prefixer,
		Logger:     deps.Logger,
		ErrorLog:   deps.Logger.With(logfields.Channel(ChannelStyles)),
		Recorder:   deps.Recorder,
	})
	css := leaf(&CopyTask{
		TaskName:   TaskCSS,
		SourceRoot: p[paths.SourceCSS],
		Include:    "*.css",
		DestRoot:   p[paths.PublicCSS],
		Stream:     true,
	})
	maps := leaf(&CopyTask{
		TaskName:   TaskSourceMaps,
		SourceRoot: p[paths.SourceCSS],
		Include:    StyleMapsDir + "/**/*.css.map",
		DestRoot:   p[paths.PublicCSS],
		Stream:     true,
	})
	styleguide := leaf(&CopyTask{
		TaskName:   TaskStyleguide,
		SourceRoot: p[paths.SourceStyleguide],
		Include:    "**/*",
		Exclude:    []string{"**/*.css"},
		DestRoot:   p[paths.PublicRoot],
		Stream:     true,
	})
	styleguideCSS := leaf(&CopyTask{
		TaskName:   TaskStyleguideCSS,
		SourceRoot: p[paths.SourceStyleguide],
		Include:    "**/*.css",
		DestRoot:   paths.Join(p[paths.PublicStyleguide], "css"),
		Flatten:    true,
		Stream:     true,
	})

	styles := task.NewSequence(TaskStyles, sass, css, maps)
	members := []task.Task{js, images}

	assetsSrc, okSrc, err := paths.Optional(cfg.Paths, paths.SourceAssets)
	if err != nil {
		return nil, err
	}
	assetsDst, okDst, err := paths.Optional(cfg.Paths, paths.PublicAssets)
	if err != nil {
		return nil, err
	}
	if okSrc && okDst {
		members = append(members, leaf(&CopyTask{
			TaskName:   TaskAssets,
			SourceRoot: assetsSrc,
			Include:    "**/*.*",
			DestRoot:   assetsDst,
			Stream:     true,
		}))
	} else {
		deps.Logger.Debug("Shared assets not configured; skipping", logfields.Task(TaskAssets))
	}
	members = append(members, favicon, fonts, styles, styleguide, styleguideCSS)

	c := &Catalog{
		tasks:    map[string]task.Task{},
		pipeline: task.NewParallel(TaskPipeline, members...),
	}
	task.Walk(c.pipeline, func(t task.Task) bool {
		c.tasks[t.Name()] = t
		return true
	})
	c.tasks[TaskStylesheets] = task.NewSequence(TaskStylesheets, css, maps)
	c.tasks[TaskStyleguides] = task.NewSequence(TaskStyleguides, styleguide, styleguideCSS)
	return c, nil
}

// Pipeline returns the pl-assets parallel group.
func (c *Catalog) Pipeline() task.Task {
	return c.pipeline
}

// Lookup returns the task registered under name.
func (c *Catalog) Lookup(name string) (task.Task, bool) {
	t, ok := c.tasks[name]
	return t, ok
}

// MustLookup returns the task registered under name and panics if absent.
// Only used for names this package defines.
func (c *Catalog) MustLookup(name string) task.Task {
	t, ok := c.tasks[name]
	if !ok {
		panic("assets: unknown task " + name)
	}
	return t
}

// Names lists every registered task name in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.tasks))
	for name := range c.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
