// Package reload tells live-preview clients to refresh after a watched
// change has been processed. Notifiers are best effort: Notify never blocks
// the caller on a slow client and never reports failure.
package reload

import (
	"git.home.luguber.info/inful/patternpipe/internal/foundation/normalization"
)

// Mode selects how clients refresh.
type Mode string

const (
	ModeFull  Mode = "full-reload"
	ModeStyle Mode = "style-reload"
	ModeNone  Mode = "none"
)

var modeNormalizer = normalization.NewNormalizer(map[string]Mode{
	"full-reload":  ModeFull,
	"full":         ModeFull,
	"style-reload": ModeStyle,
	"style":        ModeStyle,
	"none":         ModeNone,
}, ModeNone)

// ParseMode normalizes raw into a Mode.
func ParseMode(raw string) (Mode, error) {
	return modeNormalizer.NormalizeWithError(raw)
}

// Message is the payload pushed to clients.
type Message struct {
	Mode Mode   `json:"mode"`
	Seq  uint64 `json:"seq"`
}
