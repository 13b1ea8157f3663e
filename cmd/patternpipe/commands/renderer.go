package commands

import (
	"fmt"

	"git.home.luguber.info/inful/patternpipe/internal/version"
)

// PatternsOnlyCmd renders patterns without the style guide shell.
type PatternsOnlyCmd struct{}

func (c *PatternsOnlyCmd) Run(g *Global, root *CLI) error {
	r, cfg, err := openRenderer(g, root)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()
	return report(g, "Patterns build", r.PatternsOnly(ctx, cfg.CleanPublic))
}

// VersionCmd prints this tool's version followed by the renderer's.
type VersionCmd struct{}

func (c *VersionCmd) Run(g *Global, root *CLI) error {
	_, _ = fmt.Fprintln(g.out(), version.String())
	r, _, err := openRenderer(g, root)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()
	return r.Version(ctx)
}

type HelpCmd struct{}

func (c *HelpCmd) Run(g *Global, root *CLI) error {
	r, _, err := openRenderer(g, root)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()
	return r.Help(ctx)
}

type ListStarterKitsCmd struct{}

func (c *ListStarterKitsCmd) Run(g *Global, root *CLI) error {
	r, _, err := openRenderer(g, root)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()
	return r.ListStarterKits(ctx)
}

type LoadStarterKitCmd struct {
	Kit   string `required:"" help:"Starter kit package name"`
	Clean bool   `help:"Remove existing source files first"`
}

func (c *LoadStarterKitCmd) Run(g *Global, root *CLI) error {
	r, _, err := openRenderer(g, root)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()
	return report(g, "Starter kit "+c.Kit, r.LoadStarterKit(ctx, c.Kit, c.Clean))
}

type InstallPluginCmd struct {
	Plugin string `required:"" help:"Plugin package name"`
}

func (c *InstallPluginCmd) Run(g *Global, root *CLI) error {
	r, _, err := openRenderer(g, root)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()
	return report(g, "Plugin "+c.Plugin, r.InstallPlugin(ctx, c.Plugin))
}
