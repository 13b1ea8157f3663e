package config

import "path/filepath"

// Default values applied to unset fields.
const (
	DefaultStabilityThresholdMs = 2000
	DefaultPollIntervalMs       = 100
	DefaultServeHost            = "localhost"
	DefaultServePort            = 3000
	DefaultStyleCompiler        = "sass"
	DefaultOutputStyle          = "compressed"
	DefaultScriptTarget         = "es2015"
	DefaultNATSSubject          = "patternpipe.reload"
)

// DefaultTemplateExtensions lists the pattern template extensions watched
// when templateExtensions is not configured.
func DefaultTemplateExtensions() []string {
	return []string{".mustache"}
}

// DefaultIncludePaths returns the stylesheet load paths used when none are configured.
func DefaultIncludePaths() []string {
	return []string{"node_modules/susy/sass"}
}

// DefaultTargets returns the browser targets used for vendor prefixing.
func DefaultTargets() map[string]string {
	return map[string]string{
		"chrome":  "58",
		"firefox": "57",
		"safari":  "11",
		"edge":    "16",
		"ie":      "10",
	}
}

// DefaultRenderCommand returns the renderer invocation used when none is configured.
func DefaultRenderCommand() []string {
	return []string{"npx", "patternlab"}
}

// ApplyDefaults fills unset fields. It is idempotent.
func ApplyDefaults(cfg *Config) {
	if cfg.Paths == nil {
		cfg.Paths = PathConfig{}
	}
	if len(cfg.TemplateExtensions) == 0 {
		cfg.TemplateExtensions = DefaultTemplateExtensions()
	}
	if cfg.Watch.StabilityThresholdMs == 0 {
		cfg.Watch.StabilityThresholdMs = DefaultStabilityThresholdMs
	}
	if cfg.Watch.PollIntervalMs == 0 {
		cfg.Watch.PollIntervalMs = DefaultPollIntervalMs
	}
	if cfg.Serve.Host == "" {
		cfg.Serve.Host = DefaultServeHost
	}
	if cfg.Serve.Port == 0 {
		cfg.Serve.Port = DefaultServePort
	}
	if cfg.Styles.Compiler == "" {
		cfg.Styles.Compiler = DefaultStyleCompiler
	}
	if cfg.Styles.IncludePaths == nil {
		cfg.Styles.IncludePaths = DefaultIncludePaths()
	}
	if cfg.Styles.OutputStyle == "" {
		cfg.Styles.OutputStyle = DefaultOutputStyle
	}
	if len(cfg.Styles.Targets) == 0 {
		cfg.Styles.Targets = DefaultTargets()
	}
	if cfg.Scripts.Target == "" {
		cfg.Scripts.Target = DefaultScriptTarget
	}
	if len(cfg.Render.Command) == 0 {
		cfg.Render.Command = DefaultRenderCommand()
	}
	if cfg.Render.Dir == "" {
		cfg.Render.Dir = cfg.baseDir
	} else if !filepath.IsAbs(cfg.Render.Dir) && cfg.baseDir != "" {
		cfg.Render.Dir = filepath.Join(cfg.baseDir, cfg.Render.Dir)
	}
	if cfg.Notify.NATS != nil && cfg.Notify.NATS.Subject == "" {
		cfg.Notify.NATS.Subject = DefaultNATSSubject
	}
}
