// Package render is the boundary to the external pattern renderer, the
// engine that composes pattern templates into HTML. The orchestrator only
// invokes its operations by name.
package render

import (
	"context"
)

// Renderer is the external rendering collaborator.
type Renderer interface {
	// Build renders every pattern and the style guide shell. clean removes
	// stale output from the public directory first.
	Build(ctx context.Context, clean bool) error
	// PatternsOnly renders patterns without the style guide shell.
	PatternsOnly(ctx context.Context, clean bool) error
	Version(ctx context.Context) error
	Help(ctx context.Context) error
	ListStarterKits(ctx context.Context) error
	LoadStarterKit(ctx context.Context, kit string, clean bool) error
	InstallPlugin(ctx context.Context, plugin string) error
}
