// Package paths turns configured path roles into absolute, forward-slash
// normalized locations.
package paths

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/patternpipe/internal/config"
	"git.home.luguber.info/inful/patternpipe/internal/foundation/errors"
)

// Well-known roles.
const (
	SourceRoot        = "source.root"
	SourcePatterns    = "source.patterns"
	SourceData        = "source.data"
	SourceMeta        = "source.meta"
	SourceAnnotations = "source.annotations"
	SourceStyleguide  = "source.styleguide"
	SourcePLFiles     = "source.patternlabFiles"
	SourceJS          = "source.js"
	SourceImages      = "source.images"
	SourceFonts       = "source.fonts"
	SourceCSS         = "source.css"
	SourceAssets      = "source.assets"

	PublicRoot       = "public.root"
	PublicStyleguide = "public.styleguide"
	PublicJS         = "public.js"
	PublicImages     = "public.images"
	PublicFonts      = "public.fonts"
	PublicCSS        = "public.css"
	PublicAssets     = "public.assets"
)

// Resolve returns the absolute path configured for role. Relative paths
// resolve against the process working directory. Backslashes are read as
// separators on every platform. The result uses forward slashes and carries
// no trailing separator.
func Resolve(paths config.PathConfig, role string) (string, error) {
	raw, ok := paths.Get(role)
	if !ok || strings.TrimSpace(raw) == "" {
		return "", errors.ConfigError(fmt.Sprintf("path role %q is not configured", role)).
			WithContext("role", role).
			Build()
	}
	abs, err := filepath.Abs(filepath.FromSlash(strings.ReplaceAll(raw, `\`, "/")))
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryConfig, fmt.Sprintf("resolve path role %q", role)).
			WithContext("role", role).
			Fatal().
			Build()
	}
	return filepath.ToSlash(filepath.Clean(abs)), nil
}

// Optional resolves role when configured and reports whether it was.
func Optional(paths config.PathConfig, role string) (string, bool, error) {
	raw, ok := paths.Get(role)
	if !ok || strings.TrimSpace(raw) == "" {
		return "", false, nil
	}
	p, err := Resolve(paths, role)
	if err != nil {
		return "", false, err
	}
	return p, true, nil
}

// ResolveAll resolves every role, reporting all missing roles in one error.
func ResolveAll(paths config.PathConfig, roles ...string) (map[string]string, error) {
	out := make(map[string]string, len(roles))
	var missing []string
	for _, role := range roles {
		if raw, ok := paths.Get(role); !ok || strings.TrimSpace(raw) == "" {
			missing = append(missing, role)
			continue
		}
		p, err := Resolve(paths, role)
		if err != nil {
			return nil, err
		}
		out[role] = p
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, errors.ConfigError(fmt.Sprintf("path roles not configured: %s", strings.Join(missing, ", "))).
			WithContext("roles", missing).
			Build()
	}
	return out, nil
}

// Join appends slash-separated elements to a resolved path.
func Join(base string, elem ...string) string {
	return filepath.ToSlash(filepath.Join(append([]string{filepath.FromSlash(base)}, elem...)...))
}
