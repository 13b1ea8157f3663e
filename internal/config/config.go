// Package config loads the project configuration file (JSON or YAML): path
// roles, watch timing, preview server, style/script toolchain and the
// external renderer command.
package config

import (
	"time"
)

// DefaultFileName is the configuration file looked up when --config is not given.
const DefaultFileName = "patternlab-config.json"

// Config is the full project configuration.
type Config struct {
	Paths              PathConfig   `json:"paths" yaml:"paths"`
	CleanPublic        bool         `json:"cleanPublic" yaml:"cleanPublic"`
	TemplateExtensions []string     `json:"templateExtensions,omitempty" yaml:"templateExtensions,omitempty"`
	Watch              WatchConfig  `json:"watch" yaml:"watch"`
	Serve              ServeConfig  `json:"serve" yaml:"serve"`
	Styles             StyleConfig  `json:"styles" yaml:"styles"`
	Scripts            ScriptConfig `json:"scripts" yaml:"scripts"`
	Render             RenderConfig `json:"render" yaml:"render"`
	Notify             NotifyConfig `json:"notify,omitempty" yaml:"notify,omitempty"`

	baseDir string
}

// BaseDir is the absolute directory containing the loaded configuration file.
// Relative role paths resolve against the process working directory, not this.
func (c *Config) BaseDir() string {
	return c.baseDir
}

// WatchConfig controls the settle window applied to file events.
type WatchConfig struct {
	StabilityThresholdMs int `json:"stabilityThresholdMs" yaml:"stabilityThresholdMs"`
	PollIntervalMs       int `json:"pollIntervalMs" yaml:"pollIntervalMs"`
}

// StabilityThreshold is how long a file must stay unchanged before a reaction runs.
func (w WatchConfig) StabilityThreshold() time.Duration {
	return time.Duration(w.StabilityThresholdMs) * time.Millisecond
}

// PollInterval is how often a pending file is re-checked.
func (w WatchConfig) PollInterval() time.Duration {
	return time.Duration(w.PollIntervalMs) * time.Millisecond
}

// ServeConfig configures the preview server.
type ServeConfig struct {
	Host string `json:"host" yaml:"host"`
	Port int    `json:"port" yaml:"port"`
}

// StyleConfig configures the stylesheet compiler and vendor prefixing.
type StyleConfig struct {
	Compiler     string            `json:"compiler" yaml:"compiler"`
	IncludePaths []string          `json:"includePaths" yaml:"includePaths"`
	OutputStyle  string            `json:"outputStyle" yaml:"outputStyle"`
	Targets      map[string]string `json:"targets" yaml:"targets"`
}

// ScriptConfig configures the script transpiler.
type ScriptConfig struct {
	Target string `json:"target" yaml:"target"`
}

// RenderConfig describes how to invoke the external pattern renderer.
type RenderConfig struct {
	Command []string `json:"command" yaml:"command"`
	Dir     string   `json:"dir,omitempty" yaml:"dir,omitempty"`
}

// NotifyConfig holds optional extra reload notification channels.
type NotifyConfig struct {
	NATS *NATSConfig `json:"nats,omitempty" yaml:"nats,omitempty"`
}

// NATSConfig publishes reload messages to a NATS subject.
type NATSConfig struct {
	URL     string `json:"url" yaml:"url"`
	Subject string `json:"subject,omitempty" yaml:"subject,omitempty"`
}
