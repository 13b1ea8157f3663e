// Package watch re-runs parts of the build when source files change.
//
// A Provider delivers ChangeEvents. The Engine routes each event to the
// subscription owning the most specific matching glob, waits until the
// changed file has stopped changing (the settle window), runs the
// subscription's reaction and, when it succeeds, sends the subscription's
// reload mode to the notifier.
package watch

import (
	"git.home.luguber.info/inful/patternpipe/internal/foundation/normalization"
)

// Op is the kind of filesystem change.
type Op string

const (
	OpAdd    Op = "add"
	OpChange Op = "change"
	OpUnlink Op = "unlink"
)

var opNormalizer = normalization.NewNormalizer(map[string]Op{
	"add":    OpAdd,
	"create": OpAdd,
	"change": OpChange,
	"write":  OpChange,
	"unlink": OpUnlink,
	"remove": OpUnlink,
	"rename": OpUnlink,
}, OpChange)

// ParseOp normalizes raw into an Op.
func ParseOp(raw string) (Op, error) {
	return opNormalizer.NormalizeWithError(raw)
}

// ChangeEvent is one filesystem change. Path is absolute and slash separated.
type ChangeEvent struct {
	Op   Op
	Path string
}
