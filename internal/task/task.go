// Package task models the asset pipeline as a tree of named tasks: leaves
// that do I/O, sequences that run members in order and stop at the first
// failure, and parallel groups that run members concurrently and wait for
// all of them.
package task

import (
	"context"
)

// Kind identifies the variant of a Task.
type Kind string

const (
	KindLeaf     Kind = "leaf"
	KindSequence Kind = "sequence"
	KindParallel Kind = "parallel"
)

// Task is a named node of the pipeline tree. The set of implementations is
// closed: *Leaf, *Sequence and *Parallel.
type Task interface {
	Name() string
	Kind() Kind
	sealed()
}

// Runner performs the work of a leaf.
type Runner interface {
	Run(ctx context.Context) error
}

// RunFunc adapts a function to Runner.
type RunFunc func(ctx context.Context) error

func (f RunFunc) Run(ctx context.Context) error { return f(ctx) }

// Leaf is an indivisible unit of work.
type Leaf struct {
	name   string
	runner Runner
}

// NewLeaf returns a leaf named name that runs r.
func NewLeaf(name string, r Runner) *Leaf {
	return &Leaf{name: name, runner: r}
}

// LeafFunc returns a leaf backed by fn.
func LeafFunc(name string, fn func(ctx context.Context) error) *Leaf {
	return NewLeaf(name, RunFunc(fn))
}

func (l *Leaf) Name() string { return l.name }
func (l *Leaf) Kind() Kind   { return KindLeaf }
func (*Leaf) sealed()        {}

// Sequence runs its members strictly in order.
type Sequence struct {
	name    string
	members []Task
}

// NewSequence returns a sequence of members.
func NewSequence(name string, members ...Task) *Sequence {
	return &Sequence{name: name, members: members}
}

func (s *Sequence) Name() string { return s.name }
func (s *Sequence) Kind() Kind   { return KindSequence }
func (*Sequence) sealed()        {}

// Members returns a copy of the ordered member list.
func (s *Sequence) Members() []Task { return append([]Task(nil), s.members...) }

// Parallel runs its members concurrently.
type Parallel struct {
	name    string
	members []Task
}

// NewParallel returns a parallel group of members.
func NewParallel(name string, members ...Task) *Parallel {
	return &Parallel{name: name, members: members}
}

func (p *Parallel) Name() string { return p.name }
func (p *Parallel) Kind() Kind   { return KindParallel }
func (*Parallel) sealed()        {}

// Members returns a copy of the member list.
func (p *Parallel) Members() []Task { return append([]Task(nil), p.members...) }

// Walk visits t and every descendant depth-first in declaration order.
// Returning false from fn stops the walk.
func Walk(t Task, fn func(Task) bool) bool {
	if t == nil {
		return true
	}
	if !fn(t) {
		return false
	}
	var members []Task
	switch v := t.(type) {
	case *Sequence:
		members = v.members
	case *Parallel:
		members = v.members
	}
	for _, m := range members {
		if !Walk(m, fn) {
			return false
		}
	}
	return true
}

// Find returns the first task named name within root.
func Find(root Task, name string) (Task, bool) {
	var found Task
	Walk(root, func(t Task) bool {
		if t.Name() == name {
			found = t
			return false
		}
		return true
	})
	return found, found != nil
}

// Names lists every task name within root in walk order.
func Names(root Task) []string {
	var names []string
	Walk(root, func(t Task) bool {
		names = append(names, t.Name())
		return true
	})
	return names
}
