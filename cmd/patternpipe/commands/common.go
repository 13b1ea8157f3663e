// Package commands implements the patternpipe subcommands.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"

	"git.home.luguber.info/inful/patternpipe/internal/config"
	"git.home.luguber.info/inful/patternpipe/internal/daemon"
	"git.home.luguber.info/inful/patternpipe/internal/render"
)

// Global is passed to every command's Run.
type Global struct {
	Logger *slog.Logger
	// Out receives user-facing messages. Defaults to stdout.
	Out io.Writer
	// Session options, used by tests to swap collaborators.
	SessionOptions []daemon.Option
}

// CLI is the root command and its global flags.
type CLI struct {
	Config    string           `short:"c" help:"Configuration file path" default:"patternlab-config.json" type:"path"`
	Verbose   bool             `short:"v" help:"Enable verbose logging"`
	LogFormat string           `name:"log-format" help:"Log output format (text|json)" default:"text" enum:"text,json"`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build           BuildCmd           `cmd:"" default:"1" help:"Run the asset pipeline and render the pattern library"`
	Watch           WatchCmd           `cmd:"" help:"Build, then rebuild on source changes"`
	Serve           ServeCmd           `cmd:"" help:"Build, serve the public tree with live reload and rebuild on changes"`
	Task            TaskCmd            `cmd:"" help:"Run one named task"`
	PatternsOnly    PatternsOnlyCmd    `cmd:"" name:"patternsonly" help:"Render patterns only"`
	VersionCmd      VersionCmd         `cmd:"" name:"version" help:"Print patternpipe and renderer versions"`
	Help            HelpCmd            `cmd:"" name:"help" help:"Show the renderer's help"`
	ListStarterKits ListStarterKitsCmd `cmd:"" name:"liststarterkits" help:"List starter kits known to the renderer"`
	LoadStarterKit  LoadStarterKitCmd  `cmd:"" name:"loadstarterkit" help:"Install a starter kit"`
	InstallPlugin   InstallPluginCmd   `cmd:"" name:"installplugin" help:"Install a renderer plugin"`
	Init            InitCmd            `cmd:"" help:"Write a starter configuration file"`
}

// AfterApply configures the default logger once flags are parsed.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	slog.SetDefault(newLogger(os.Stderr, c.Verbose, c.LogFormat))
	return nil
}

// newLogger picks the level from --verbose or PATTERNPIPE_LOG_LEVEL.
func newLogger(w io.Writer, verbose bool, format string) *slog.Logger {
	level := config.NormalizeLogLevel(os.Getenv("PATTERNPIPE_LOG_LEVEL")).SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if config.NormalizeLogFormat(format) == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

func (g *Global) logger() *slog.Logger {
	if g == nil || g.Logger == nil {
		return slog.Default()
	}
	return g.Logger
}

var (
	green = color.New(color.FgGreen, color.Bold).SprintFunc()
	red   = color.New(color.FgRed, color.Bold).SprintFunc()
	cyan  = color.New(color.FgCyan).SprintFunc()
)

// report prints a one-line outcome banner and passes err through.
func report(g *Global, what string, err error) error {
	if err != nil {
		_, _ = fmt.Fprintf(g.out(), "%s %s\n", red("✗"), what+" failed")
		return err
	}
	_, _ = fmt.Fprintf(g.out(), "%s %s\n", green("✓"), what+" finished")
	return nil
}

func openSession(g *Global, root *CLI) (*daemon.Session, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	opts := append([]daemon.Option{
		daemon.WithLogger(g.logger()),
		daemon.WithRenderer(newExecRenderer(g, cfg, root.Config)),
	}, g.SessionOptions...)
	return daemon.NewSession(cfg, root.Config, opts...)
}

// openRenderer loads the configuration for commands that only talk to the
// renderer.
func openRenderer(g *Global, root *CLI) (render.Renderer, *config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, nil, err
	}
	return newExecRenderer(g, cfg, root.Config), cfg, nil
}

// newExecRenderer points the renderer's output at the command writer.
func newExecRenderer(g *Global, cfg *config.Config, configPath string) *render.ExecRenderer {
	r := render.NewExecRenderer(cfg.Render.Command, cfg.Render.Dir, configPath)
	r.Stdout = g.out()
	r.Logger = g.logger()
	return r
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
