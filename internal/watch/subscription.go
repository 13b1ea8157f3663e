package watch

import (
	"context"
	"slices"

	"git.home.luguber.info/inful/patternpipe/internal/reload"
	"git.home.luguber.info/inful/patternpipe/internal/task"
)

// Reaction is the work a subscription triggers once a change has settled.
type Reaction interface {
	React(ctx context.Context, ev ChangeEvent) error
}

// ReactionFunc adapts a function to Reaction.
type ReactionFunc func(ctx context.Context, ev ChangeEvent) error

func (f ReactionFunc) React(ctx context.Context, ev ChangeEvent) error { return f(ctx, ev) }

// TaskReaction runs a task through an executor.
func TaskReaction(exec *task.Executor, t task.Task) Reaction {
	return ReactionFunc(func(ctx context.Context, _ ChangeEvent) error {
		return exec.Run(ctx, t)
	})
}

// Builder runs a full build.
type Builder interface {
	Build(ctx context.Context) error
}

// BuildReaction runs a full BuildRun.
func BuildReaction(b Builder) Reaction {
	return ReactionFunc(func(ctx context.Context, _ ChangeEvent) error {
		return b.Build(ctx)
	})
}

// DefaultOps are the change kinds that trigger a reaction.
var DefaultOps = []Op{OpAdd, OpChange}

// Subscription binds globs to a reaction and the reload mode sent after it
// succeeds. Subscriptions are fixed once the engine starts.
type Subscription struct {
	Name     string
	Globs    []Glob
	Ops      []Op
	Reaction Reaction
	Mode     reload.Mode
}

// Triggers reports whether op starts the reaction.
func (s *Subscription) Triggers(op Op) bool {
	ops := s.Ops
	if len(ops) == 0 {
		ops = DefaultOps
	}
	return slices.Contains(ops, op)
}

// match returns the most specific glob of s matching path.
func (s *Subscription) match(path string) (Glob, bool) {
	var best Glob
	found := false
	for _, g := range s.Globs {
		if !g.Match(path) {
			continue
		}
		if !found || moreSpecific(g, best) {
			best, found = g, true
		}
	}
	return best, found
}
