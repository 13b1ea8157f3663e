// Package preview serves the public tree with live reload.
package preview

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/patternpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/patternpipe/internal/logfields"
	"git.home.luguber.info/inful/patternpipe/internal/metrics"
	"git.home.luguber.info/inful/patternpipe/internal/reload"
)

// Server is the preview HTTP server.
type Server struct {
	root      string
	addr      string
	hub       *reload.Hub
	registry  *prom.Registry
	blacklist []string
	logger    *slog.Logger

	mu  sync.Mutex
	srv *http.Server
	ln  net.Listener
}

// Option configures a Server.
type Option func(*Server)

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRegistry exposes reg on /metrics.
func WithRegistry(reg *prom.Registry) Option {
	return func(s *Server) { s.registry = reg }
}

// WithBlacklist replaces the paths that never get the reload script.
func WithBlacklist(patterns []string) Option {
	return func(s *Server) { s.blacklist = append([]string(nil), patterns...) }
}

// New returns a server for root on host:port. Port 0 picks a free port.
func New(root, host string, port int, hub *reload.Hub, opts ...Option) *Server {
	s := &Server{
		root:      root,
		addr:      net.JoinHostPort(host, strconv.Itoa(port)),
		hub:       hub,
		blacklist: DefaultBlacklist,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.hub == nil {
		s.hub = reload.NewHub(s.logger, nil)
	}
	return s
}

// Handler returns the routing for the preview server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	files := http.FileServer(http.Dir(s.root))
	mux.Handle("/", chain(s.logger, injectReloadScript(files, s.blacklist)))

	mux.Handle("/livereload", s.hub)
	mux.HandleFunc("/livereload/ws", s.hub.ServeWS)
	mux.HandleFunc("/livereload.js", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		if _, err := w.Write([]byte(reload.ClientScript)); err != nil {
			s.logger.Error("failed to write livereload script", logfields.Error(err))
		}
	})
	if s.registry != nil {
		mux.Handle("/metrics", metrics.HTTPHandler(s.registry))
	}
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}

// Start binds the listener and serves in the background.
func (s *Server) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv != nil {
		return errors.RuntimeError("preview server already started").Build()
	}
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return errors.RuntimeError(fmt.Sprintf("preview server cannot listen on %s", s.addr)).
			WithCause(err).
			UserAction().
			Build()
	}
	// No write timeout; SSE and WebSocket connections are long lived.
	s.srv = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second, IdleTimeout: 120 * time.Second}
	s.ln = ln
	srv := s.srv
	go func() {
		if err := srv.Serve(ln); err != nil && !stdErrors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Preview server error", logfields.Error(err))
		}
	}()
	s.logger.Info("Preview server listening", slog.String("url", "http://"+ln.Addr().String()), logfields.Path(s.root))
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.addr
}

// Stop disconnects reload clients and shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.srv, s.ln = nil, nil
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	s.hub.Shutdown()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("preview server shutdown: %w", err)
	}
	s.logger.Info("Preview server stopped")
	return nil
}
