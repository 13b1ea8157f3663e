package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/patternpipe/internal/reload"
	"git.home.luguber.info/inful/patternpipe/internal/task"
)

const (
	testThreshold = 60 * time.Millisecond
	testPoll      = 5 * time.Millisecond
)

type recordingNotifier struct {
	mu    sync.Mutex
	modes []reload.Mode
}

func (r *recordingNotifier) Notify(m reload.Mode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modes = append(r.modes, m)
}

func (r *recordingNotifier) Modes() []reload.Mode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]reload.Mode(nil), r.modes...)
}

type reactionLog struct {
	mu     sync.Mutex
	events []ChangeEvent
	at     []time.Time
}

func (l *reactionLog) reaction(err error) Reaction {
	return ReactionFunc(func(_ context.Context, ev ChangeEvent) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.events = append(l.events, ev)
		l.at = append(l.at, time.Now())
		return err
	})
}

func (l *reactionLog) Events() []ChangeEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]ChangeEvent(nil), l.events...)
}

func (l *reactionLog) Times() []time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]time.Time(nil), l.at...)
}

// startEngine runs e until the test ends.
func startEngine(t *testing.T, e *Engine) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("engine did not stop")
		}
	})
}

func touch(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestEngine_DebounceCoalescesRapidEvents(t *testing.T) {
	root := filepath.ToSlash(t.TempDir())
	file := root + "/style.scss"
	touch(t, file, "a")

	provider := NewChanProvider(16)
	n := &recordingNotifier{}
	log := &reactionLog{}
	e := NewEngine(provider, n, WithSettleWindow(testThreshold, testPoll))
	require.NoError(t, e.Register(&Subscription{
		Name:     "styles",
		Globs:    []Glob{NewGlob(root, "**/*.scss")},
		Reaction: log.reaction(nil),
		Mode:     reload.ModeStyle,
	}))
	startEngine(t, e)

	for i := range 5 {
		touch(t, file, string(rune('a'+i)))
		provider.Send(ChangeEvent{Op: OpChange, Path: file})
		time.Sleep(10 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return len(log.Events()) == 1 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(3 * testThreshold)
	assert.Len(t, log.Events(), 1)
	assert.Equal(t, []reload.Mode{reload.ModeStyle}, n.Modes())

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "e", string(data))
}

func TestEngine_WaitsForWritesToQuiesce(t *testing.T) {
	root := filepath.ToSlash(t.TempDir())
	file := root + "/patterns/button.mustache"
	touch(t, file, "x")

	provider := NewChanProvider(4)
	log := &reactionLog{}
	e := NewEngine(provider, nil, WithSettleWindow(testThreshold, testPoll))
	require.NoError(t, e.Register(&Subscription{
		Name:     "patterns",
		Globs:    []Glob{NewGlob(root, "**/*.mustache")},
		Reaction: log.reaction(nil),
		Mode:     reload.ModeFull,
	}))
	startEngine(t, e)

	provider.Send(ChangeEvent{Op: OpChange, Path: file})

	// Keep growing the file without sending further events.
	content := "x"
	var lastWrite time.Time
	for range 8 {
		time.Sleep(15 * time.Millisecond)
		content += "x"
		touch(t, file, content)
		lastWrite = time.Now()
	}

	require.Eventually(t, func() bool { return len(log.Times()) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.GreaterOrEqual(t, log.Times()[0].Sub(lastWrite), testThreshold-testPoll)
}

func TestEngine_FailureDoesNotNotify(t *testing.T) {
	root := filepath.ToSlash(t.TempDir())
	provider := NewChanProvider(4)
	n := &recordingNotifier{}
	log := &reactionLog{}
	e := NewEngine(provider, n, WithSettleWindow(testThreshold, testPoll))
	require.NoError(t, e.Register(&Subscription{
		Name:     "patterns",
		Globs:    []Glob{NewGlob(root, "**/*.json")},
		Reaction: log.reaction(errors.New("renderer failed")),
		Mode:     reload.ModeFull,
	}))
	startEngine(t, e)

	provider.Send(ChangeEvent{Op: OpAdd, Path: root + "/data.json"})

	require.Eventually(t, func() bool { return len(log.Events()) == 1 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(2 * testPoll)
	assert.Empty(t, n.Modes())

	// The engine keeps going after a failure.
	provider.Send(ChangeEvent{Op: OpChange, Path: root + "/data.json"})
	require.Eventually(t, func() bool { return len(log.Events()) == 2 }, 2*time.Second, 5*time.Millisecond)
}

func TestEngine_PanicIsContained(t *testing.T) {
	root := filepath.ToSlash(t.TempDir())
	provider := NewChanProvider(4)
	var calls atomic.Int32
	e := NewEngine(provider, nil, WithSettleWindow(0, testPoll))
	require.NoError(t, e.Register(&Subscription{
		Name:  "patterns",
		Globs: []Glob{NewGlob(root, "*.md")},
		Reaction: ReactionFunc(func(context.Context, ChangeEvent) error {
			calls.Add(1)
			panic("boom")
		}),
		Mode: reload.ModeFull,
	}))
	startEngine(t, e)

	provider.Send(ChangeEvent{Op: OpAdd, Path: root + "/a.md"})
	provider.Send(ChangeEvent{Op: OpAdd, Path: root + "/b.md"})
	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 5*time.Millisecond)
}

func TestEngine_UnlinkIsObservedOnly(t *testing.T) {
	root := filepath.ToSlash(t.TempDir())
	provider := NewChanProvider(4)
	log := &reactionLog{}
	e := NewEngine(provider, nil, WithSettleWindow(0, testPoll))
	require.NoError(t, e.Register(&Subscription{
		Name:     "patterns",
		Globs:    []Glob{NewGlob(root, "**/*")},
		Reaction: log.reaction(nil),
		Mode:     reload.ModeFull,
	}))
	startEngine(t, e)

	provider.Send(ChangeEvent{Op: OpUnlink, Path: root + "/gone.mustache"})
	provider.Send(ChangeEvent{Op: OpAdd, Path: root + "/new.mustache"})

	require.Eventually(t, func() bool { return len(log.Events()) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, OpAdd, log.Events()[0].Op)
}

func TestEngine_RoutesToMostSpecificGlob(t *testing.T) {
	root := "/p/source"
	e := NewEngine(NewChanProvider(1), nil)
	broad := &Subscription{Name: "patterns", Globs: []Glob{NewGlob(root, "**/*.css")}, Reaction: (&reactionLog{}).reaction(nil)}
	narrow := &Subscription{Name: "stylesheets", Globs: []Glob{NewGlob(root+"/css", "**/*.css")}, Reaction: (&reactionLog{}).reaction(nil)}
	twin := &Subscription{Name: "twin", Globs: []Glob{NewGlob(root+"/css", "**/*.css")}, Reaction: (&reactionLog{}).reaction(nil)}
	require.NoError(t, e.Register(broad))
	require.NoError(t, e.Register(narrow))
	require.NoError(t, e.Register(twin))

	got, ok := e.Route("/p/source/css/style.css")
	require.True(t, ok)
	assert.Equal(t, "stylesheets", got.Name)

	got, ok = e.Route("/p/source/other/a.css")
	require.True(t, ok)
	assert.Equal(t, "patterns", got.Name)

	_, ok = e.Route("/elsewhere/a.css")
	assert.False(t, ok)

	assert.Equal(t, []string{"/p/source"}, e.Roots())
}

func TestEngine_DifferentSubscriptionsRunConcurrently(t *testing.T) {
	root := filepath.ToSlash(t.TempDir())
	provider := NewChanProvider(4)
	started := make(chan string, 2)
	release := make(chan struct{})
	blocking := func(name string) Reaction {
		return ReactionFunc(func(context.Context, ChangeEvent) error {
			started <- name
			<-release
			return nil
		})
	}
	e := NewEngine(provider, nil, WithSettleWindow(0, testPoll))
	require.NoError(t, e.Register(&Subscription{Name: "styles", Globs: []Glob{NewGlob(root, "*.scss")}, Reaction: blocking("styles")}))
	require.NoError(t, e.Register(&Subscription{Name: "patterns", Globs: []Glob{NewGlob(root, "*.mustache")}, Reaction: blocking("patterns")}))
	startEngine(t, e)
	t.Cleanup(func() { close(release) })

	provider.Send(ChangeEvent{Op: OpChange, Path: root + "/a.scss"})
	provider.Send(ChangeEvent{Op: OpChange, Path: root + "/b.mustache"})

	var names []string
	for range 2 {
		select {
		case n := <-started:
			names = append(names, n)
		case <-time.After(2 * time.Second):
			t.Fatal("reactions did not overlap")
		}
	}
	assert.ElementsMatch(t, []string{"styles", "patterns"}, names)
	assert.Equal(t, StateRunning, e.States()["styles"])
}

func TestEngine_EventsDuringReactionStartNextCycle(t *testing.T) {
	root := filepath.ToSlash(t.TempDir())
	provider := NewChanProvider(4)
	var calls atomic.Int32
	first := make(chan struct{})
	release := make(chan struct{})
	e := NewEngine(provider, nil, WithSettleWindow(0, testPoll))
	require.NoError(t, e.Register(&Subscription{
		Name:  "styles",
		Globs: []Glob{NewGlob(root, "*.scss")},
		Reaction: ReactionFunc(func(context.Context, ChangeEvent) error {
			if calls.Add(1) == 1 {
				close(first)
				<-release
			}
			return nil
		}),
	}))
	startEngine(t, e)

	provider.Send(ChangeEvent{Op: OpChange, Path: root + "/a.scss"})
	<-first
	provider.Send(ChangeEvent{Op: OpChange, Path: root + "/a.scss"})
	provider.Send(ChangeEvent{Op: OpChange, Path: root + "/a.scss"})
	close(release)

	require.Eventually(t, func() bool { return calls.Load() == 2 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(10 * testPoll)
	assert.Equal(t, int32(2), calls.Load())
}

func TestEngine_RegisterValidation(t *testing.T) {
	e := NewEngine(NewChanProvider(1), nil)
	assert.Error(t, e.Register(&Subscription{Name: "x", Globs: []Glob{NewGlob("/p", "*")}}))
	assert.Error(t, e.Register(&Subscription{Name: "x", Reaction: (&reactionLog{}).reaction(nil)}))
	assert.Error(t, e.Register(&Subscription{Name: "x", Globs: []Glob{NewGlob("/p", "[")}, Reaction: (&reactionLog{}).reaction(nil)}))
}

func TestEngine_RegisterAfterStartFails(t *testing.T) {
	e := NewEngine(NewChanProvider(1), nil)
	startEngine(t, e)
	require.Eventually(t, func() bool {
		err := e.Register(&Subscription{Name: "late", Globs: []Glob{NewGlob("/p", "*")}, Reaction: (&reactionLog{}).reaction(nil)})
		return err != nil
	}, time.Second, 5*time.Millisecond)
}

func TestEngine_StopsWhenProviderCloses(t *testing.T) {
	provider := NewChanProvider(1)
	e := NewEngine(provider, nil)
	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()

	require.NoError(t, provider.Close())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("engine did not stop")
	}
}

func TestTaskReaction_RunsTask(t *testing.T) {
	var ran atomic.Bool
	r := TaskReaction(task.NewExecutor(), task.LeafFunc("pl-sass", func(context.Context) error {
		ran.Store(true)
		return nil
	}))
	require.NoError(t, r.React(context.Background(), ChangeEvent{}))
	assert.True(t, ran.Load())
}
