package render

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"git.home.luguber.info/inful/patternpipe/internal/foundation/errors"
)

// ExecRenderer runs the renderer as a child process. Command is the base
// invocation (for example ["npx", "patternlab"]); each operation appends
// its own arguments.
type ExecRenderer struct {
	Command    []string
	Dir        string
	ConfigPath string
	Stdout     io.Writer
	Stderr     io.Writer
	Logger     *slog.Logger
}

// NewExecRenderer returns a renderer invoking command in dir.
func NewExecRenderer(command []string, dir, configPath string) *ExecRenderer {
	return &ExecRenderer{
		Command:    command,
		Dir:        dir,
		ConfigPath: configPath,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		Logger:     slog.Default(),
	}
}

func withClean(args []string, clean bool) []string {
	if clean {
		return append(args, "--clean")
	}
	return args
}

func (r *ExecRenderer) configArgs() []string {
	if r.ConfigPath == "" {
		return nil
	}
	return []string{"--config", r.ConfigPath}
}

func (r *ExecRenderer) Build(ctx context.Context, clean bool) error {
	return r.run(ctx, "build", withClean(append([]string{"build"}, r.configArgs()...), clean))
}

func (r *ExecRenderer) PatternsOnly(ctx context.Context, clean bool) error {
	return r.run(ctx, "patternsonly", withClean(append([]string{"build", "--patterns-only"}, r.configArgs()...), clean))
}

func (r *ExecRenderer) Version(ctx context.Context) error {
	return r.run(ctx, "version", []string{"--version"})
}

func (r *ExecRenderer) Help(ctx context.Context) error {
	return r.run(ctx, "help", []string{"help"})
}

func (r *ExecRenderer) ListStarterKits(ctx context.Context) error {
	return r.run(ctx, "liststarterkits", []string{"starterkits", "--list"})
}

func (r *ExecRenderer) LoadStarterKit(ctx context.Context, kit string, clean bool) error {
	if strings.TrimSpace(kit) == "" {
		return errors.ValidationError("starter kit name is required").Build()
	}
	args := append([]string{"install", "--starterkits", kit}, r.configArgs()...)
	return r.run(ctx, "loadstarterkit", withClean(args, clean))
}

func (r *ExecRenderer) InstallPlugin(ctx context.Context, plugin string) error {
	if strings.TrimSpace(plugin) == "" {
		return errors.ValidationError("plugin name is required").Build()
	}
	args := append([]string{"install", "--plugins", plugin}, r.configArgs()...)
	return r.run(ctx, "installplugin", args)
}

// run executes the renderer. Failures are ExternalBuildErrors carrying the
// operation name.
func (r *ExecRenderer) run(ctx context.Context, op string, args []string) error {
	if len(r.Command) == 0 {
		return errors.ConfigError("render.command is empty").Build()
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	argv := append(append([]string(nil), r.Command[1:]...), args...)
	// #nosec G204 -- command comes from the project configuration
	cmd := exec.CommandContext(ctx, r.Command[0], argv...)
	cmd.Dir = r.Dir
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	logger.Info("Running renderer", slog.String("op", op), slog.String("command", strings.Join(append([]string{r.Command[0]}, argv...), " ")), slog.String("dir", r.Dir))
	if err := cmd.Run(); err != nil {
		return errors.ExternalBuildError(fmt.Sprintf("renderer %s failed", op)).
			WithCause(err).
			WithContext("op", op).
			WithContext("command", r.Command[0]).
			Build()
	}
	return nil
}
