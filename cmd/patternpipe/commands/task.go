package commands

import (
	"fmt"
	"strings"
)

// TaskCmd runs a single named task such as pl-sass or pl-assets.
type TaskCmd struct {
	Name string `arg:"" optional:"" help:"Task name; omit with --list to print all names"`
	List bool   `short:"l" help:"List task names"`
}

func (t *TaskCmd) Run(g *Global, root *CLI) error {
	s, err := openSession(g, root)
	if err != nil {
		return err
	}
	defer s.Close()

	if t.List || t.Name == "" {
		_, _ = fmt.Fprintln(g.out(), strings.Join(s.TaskNames(), "\n"))
		return nil
	}
	ctx, cancel := signalContext()
	defer cancel()
	return report(g, t.Name, s.RunTask(ctx, t.Name))
}
