package commands

import (
	"fmt"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct{}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	s, err := openSession(g, root)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := signalContext()
	defer cancel()
	_, _ = fmt.Fprintln(g.out(), cyan("Watching for changes. Press Ctrl+C to stop."))
	return s.Watch(ctx)
}

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Port int    `short:"p" help:"Preview server port (overrides serve.port)"`
	Host string `help:"Preview server host (overrides serve.host)"`
}

func (c *ServeCmd) Run(g *Global, root *CLI) error {
	s, err := openSession(g, root)
	if err != nil {
		return err
	}
	defer s.Close()
	if c.Port > 0 {
		s.Config().Serve.Port = c.Port
	}
	if c.Host != "" {
		s.Config().Serve.Host = c.Host
	}

	ctx, cancel := signalContext()
	defer cancel()
	_, _ = fmt.Fprintf(g.out(), "%s http://%s:%d\n", cyan("Serving"), s.Config().Serve.Host, s.Config().Serve.Port)
	return s.Serve(ctx)
}
