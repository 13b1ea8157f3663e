package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"git.home.luguber.info/inful/patternpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/patternpipe/internal/logfields"
	"git.home.luguber.info/inful/patternpipe/internal/metrics"
	"git.home.luguber.info/inful/patternpipe/internal/reload"
)

// Default settle window.
const (
	DefaultStabilityThreshold = 2 * time.Second
	DefaultPollInterval       = 100 * time.Millisecond
)

const subscriptionBuffer = 64

// State is a subscription worker's state.
type State string

const (
	StateIdle       State = "idle"
	StateDebouncing State = "debouncing"
	StateRunning    State = "running"
)

// Engine dispatches change events to subscriptions.
//
// Each subscription has its own worker. While a worker is debouncing or
// running its reaction, further events for that subscription are held and
// start the next cycle. Workers of different subscriptions run
// independently, so their reactions may write to the output tree at the
// same time.
type Engine struct {
	provider  Provider
	notifier  reload.Notifier
	logger    *slog.Logger
	recorder  metrics.Recorder
	threshold time.Duration
	poll      time.Duration

	mu      sync.Mutex
	subs    []*Subscription
	workers []*worker
	started bool
}

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

func WithRecorder(r metrics.Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.recorder = r
		}
	}
}

// WithSettleWindow sets how long a file must stay unchanged (threshold) and
// how often it is checked (poll).
func WithSettleWindow(threshold, poll time.Duration) Option {
	return func(e *Engine) {
		if threshold >= 0 {
			e.threshold = threshold
		}
		if poll > 0 {
			e.poll = poll
		}
	}
}

// NewEngine returns an engine reading from provider and notifying notifier.
func NewEngine(provider Provider, notifier reload.Notifier, opts ...Option) *Engine {
	if notifier == nil {
		notifier = reload.NoopNotifier{}
	}
	e := &Engine{
		provider:  provider,
		notifier:  notifier,
		logger:    slog.Default(),
		recorder:  metrics.NoopRecorder{},
		threshold: DefaultStabilityThreshold,
		poll:      DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Register adds a subscription. It fails once the engine has started.
func (e *Engine) Register(sub *Subscription) error {
	if sub == nil || sub.Reaction == nil {
		return errors.ValidationError("subscription requires a reaction").Build()
	}
	if len(sub.Globs) == 0 {
		return errors.ValidationError(fmt.Sprintf("subscription %s has no globs", sub.Name)).Build()
	}
	for _, g := range sub.Globs {
		if !g.Valid() {
			return errors.ValidationError(fmt.Sprintf("subscription %s: invalid glob %s", sub.Name, g)).Build()
		}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return errors.RuntimeError("subscriptions are fixed once the watch engine has started").Build()
	}
	e.subs = append(e.subs, sub)
	return nil
}

// Subscriptions returns the registered subscriptions in registration order.
func (e *Engine) Subscriptions() []*Subscription {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*Subscription(nil), e.subs...)
}

// Roots returns the directories the registered globs live under.
func (e *Engine) Roots() []string {
	var roots []string
	for _, s := range e.Subscriptions() {
		for _, g := range s.Globs {
			roots = append(roots, g.Root)
		}
	}
	return CollapseRoots(roots)
}

// Route returns the subscription owning the most specific glob matching
// path. Ties go to the subscription registered first.
func (e *Engine) Route(path string) (*Subscription, bool) {
	var (
		best     *Subscription
		bestGlob Glob
	)
	for _, s := range e.Subscriptions() {
		g, ok := s.match(path)
		if !ok {
			continue
		}
		if best == nil || moreSpecific(g, bestGlob) {
			best, bestGlob = s, g
		}
	}
	return best, best != nil
}

// Run dispatches events until ctx is done or the provider closes its event
// stream, then waits for in-flight reactions to finish.
func (e *Engine) Run(ctx context.Context) error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return errors.RuntimeError("watch engine already started").Build()
	}
	e.started = true
	subs := append([]*Subscription(nil), e.subs...)
	e.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := make(map[*Subscription]*worker, len(subs))
	var wg sync.WaitGroup
	for _, s := range subs {
		w := &worker{sub: s, engine: e, events: make(chan ChangeEvent, subscriptionBuffer), state: StateIdle}
		workers[s] = w
		e.mu.Lock()
		e.workers = append(e.workers, w)
		e.mu.Unlock()
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.loop(ctx)
		}()
	}

	e.logger.Info("Watching for changes", slog.Int("subscriptions", len(subs)))

	defer func() {
		cancel()
		wg.Wait()
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-e.provider.Errors():
			if ok && err != nil {
				e.logger.Warn("watcher error", logfields.Error(err))
			}
		case ev, ok := <-e.provider.Events():
			if !ok {
				return nil
			}
			e.dispatch(ev, workers)
		}
	}
}

func (e *Engine) dispatch(ev ChangeEvent, workers map[*Subscription]*worker) {
	sub, ok := e.Route(ev.Path)
	if !ok {
		e.logger.Debug("Change outside watched globs", logfields.Path(ev.Path), logfields.Op(string(ev.Op)))
		return
	}
	e.recorder.IncWatchEvent(sub.Name, string(ev.Op))
	if !sub.Triggers(ev.Op) {
		e.logger.Info("File event observed",
			logfields.Subscription(sub.Name),
			logfields.Op(string(ev.Op)),
			logfields.Path(ev.Path))
		return
	}
	select {
	case workers[sub].events <- ev:
	default:
		e.logger.Warn("Subscription backlog full; dropping event",
			logfields.Subscription(sub.Name),
			logfields.Path(ev.Path))
	}
}

// States reports each subscription worker's current state by name.
func (e *Engine) States() map[string]State {
	e.mu.Lock()
	workers := append([]*worker(nil), e.workers...)
	e.mu.Unlock()
	out := make(map[string]State, len(workers))
	for _, w := range workers {
		out[w.sub.Name] = w.State()
	}
	return out
}

type worker struct {
	sub    *Subscription
	engine *Engine
	events chan ChangeEvent

	mu    sync.Mutex
	state State
}

func (w *worker) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *worker) setState(s State) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}

func (w *worker) loop(ctx context.Context) {
	for {
		w.setState(StateIdle)
		var ev ChangeEvent
		select {
		case <-ctx.Done():
			return
		case ev = <-w.events:
		}

		w.setState(StateDebouncing)
		settled, ok := w.settle(ctx, ev)
		if !ok {
			return
		}

		w.setState(StateRunning)
		w.react(ctx, settled)
	}
}

// fileState is what the settle window compares between polls.
type fileState struct {
	exists  bool
	size    int64
	modTime time.Time
}

func (f fileState) equal(o fileState) bool {
	return f.exists == o.exists && f.size == o.size && f.modTime.Equal(o.modTime)
}

func statFile(path string) fileState {
	info, err := os.Stat(path)
	if err != nil {
		return fileState{}
	}
	return fileState{exists: true, size: info.Size(), modTime: info.ModTime()}
}

// settle waits until the pending path has kept the same size and
// modification time for the stability threshold. Every new event restarts
// the window and becomes the pending event.
func (w *worker) settle(ctx context.Context, ev ChangeEvent) (ChangeEvent, bool) {
	pending := ev
	last := statFile(pending.Path)
	stableSince := time.Now()

	ticker := time.NewTicker(w.engine.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return pending, false
		case next := <-w.events:
			pending = next
			last = statFile(pending.Path)
			stableSince = time.Now()
		case now := <-ticker.C:
			cur := statFile(pending.Path)
			if !cur.equal(last) {
				last = cur
				stableSince = now
				continue
			}
			if now.Sub(stableSince) >= w.engine.threshold {
				return pending, true
			}
		}
	}
}

func (w *worker) react(ctx context.Context, ev ChangeEvent) {
	e := w.engine
	log := e.logger.With(logfields.Subscription(w.sub.Name))
	log.Info("Change detected", logfields.Op(string(ev.Op)), logfields.Path(ev.Path))

	start := time.Now()
	err := w.invoke(ctx, ev)
	d := time.Since(start)

	if err != nil {
		e.recorder.IncReaction(w.sub.Name, metrics.ResultFailed)
		log.Error("Rebuild failed", logfields.Path(ev.Path), logfields.Duration(d), logfields.Error(err))
		return
	}
	e.recorder.IncReaction(w.sub.Name, metrics.ResultSuccess)
	log.Info("Rebuild finished", logfields.Duration(d), logfields.Mode(string(w.sub.Mode)))
	if w.sub.Mode != reload.ModeNone && w.sub.Mode != "" {
		e.notifier.Notify(w.sub.Mode)
	}
}

// invoke runs the reaction, converting a panic into an error so one broken
// reaction cannot stop the engine.
func (w *worker) invoke(ctx context.Context, ev ChangeEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.InternalError(fmt.Sprintf("reaction %s panicked: %v", w.sub.Name, r)).Build()
		}
	}()
	return w.sub.Reaction.React(ctx, ev)
}
