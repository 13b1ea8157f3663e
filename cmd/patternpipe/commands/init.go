package commands

import (
	"fmt"

	"git.home.luguber.info/inful/patternpipe/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing configuration file"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	_, _ = fmt.Fprintf(g.out(), "Writing configuration to %s\n", root.Config)
	return report(g, "Init", config.Init(root.Config, i.Force))
}
