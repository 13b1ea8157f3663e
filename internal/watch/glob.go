package watch

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Glob matches paths below Root against Pattern. Root is an absolute,
// slash separated directory; Pattern is relative to it and may use "**".
type Glob struct {
	Root    string
	Pattern string
}

// NewGlob returns a Glob with Root normalized to carry no trailing slash.
func NewGlob(root, pattern string) Glob {
	return Glob{Root: strings.TrimSuffix(root, "/"), Pattern: strings.TrimPrefix(pattern, "/")}
}

func (g Glob) String() string {
	return g.Root + "/" + g.Pattern
}

// Match reports whether path falls under Root and matches Pattern.
func (g Glob) Match(path string) bool {
	rel, ok := strings.CutPrefix(path, g.Root+"/")
	if !ok || rel == "" {
		return false
	}
	matched, err := doublestar.Match(g.Pattern, rel)
	return err == nil && matched
}

// Valid reports whether Pattern is well formed.
func (g Glob) Valid() bool {
	return doublestar.ValidatePattern(g.Pattern)
}

// moreSpecific reports whether a should win over b when both match. Deeper
// roots win, then patterns with fewer "**", then fewer wildcards, then
// longer patterns.
func moreSpecific(a, b Glob) bool {
	if la, lb := len(a.Root), len(b.Root); la != lb {
		return la > lb
	}
	if da, db := strings.Count(a.Pattern, "**"), strings.Count(b.Pattern, "**"); da != db {
		return da < db
	}
	if wa, wb := wildcards(a.Pattern), wildcards(b.Pattern); wa != wb {
		return wa < wb
	}
	return len(a.Pattern) > len(b.Pattern)
}

func wildcards(pattern string) int {
	return strings.Count(pattern, "*") + strings.Count(pattern, "?") + strings.Count(pattern, "[") + strings.Count(pattern, "{")
}
