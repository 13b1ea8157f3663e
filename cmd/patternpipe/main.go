package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/patternpipe/cmd/patternpipe/commands"
	"git.home.luguber.info/inful/patternpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/patternpipe/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("patternpipe"),
		kong.Description("Asset pipeline, build and live preview for Pattern Lab projects."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)
	err := parser.Run(&commands.Global{Logger: slog.Default()}, cli)
	errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
