package transform

import (
	"fmt"
	"sort"

	"github.com/evanw/esbuild/pkg/api"

	"git.home.luguber.info/inful/patternpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/patternpipe/internal/foundation/normalization"
)

// Prefixer adds vendor prefixes to compiled CSS and returns the rewritten
// stylesheet with its source map (nil when none was produced).
type Prefixer interface {
	Prefix(name string, css []byte) (code, sourceMap []byte, err error)
}

var engineNormalizer = normalization.NewNormalizer(map[string]api.EngineName{
	"chrome":  api.EngineChrome,
	"edge":    api.EngineEdge,
	"firefox": api.EngineFirefox,
	"ie":      api.EngineIE,
	"ios":     api.EngineIOS,
	"node":    api.EngineNode,
	"opera":   api.EngineOpera,
	"safari":  api.EngineSafari,
}, api.EngineChrome)

// ESBuildPrefixer lowers and prefixes CSS for a set of browser engines.
// Input carrying an inline source map is chained into the output map.
type ESBuildPrefixer struct {
	engines []api.Engine
	minify  bool
}

// NewESBuildPrefixer builds a prefixer from an engine->version map
// (for example {"ie": "10"}). minify collapses whitespace.
func NewESBuildPrefixer(targets map[string]string, minify bool) (*ESBuildPrefixer, error) {
	names := make([]string, 0, len(targets))
	for name := range targets {
		names = append(names, name)
	}
	sort.Strings(names)

	engines := make([]api.Engine, 0, len(names))
	for _, name := range names {
		engine, err := engineNormalizer.NormalizeWithError(name)
		if err != nil {
			return nil, errors.ConfigError(fmt.Sprintf("styles.targets: %v", err)).Build()
		}
		engines = append(engines, api.Engine{Name: engine, Version: targets[name]})
	}
	return &ESBuildPrefixer{engines: engines, minify: minify}, nil
}

func (p *ESBuildPrefixer) Prefix(name string, css []byte) ([]byte, []byte, error) {
	result := api.Transform(string(css), api.TransformOptions{
		Loader:           api.LoaderCSS,
		Engines:          p.engines,
		Sourcefile:       name,
		Sourcemap:        api.SourceMapExternal,
		MinifyWhitespace: p.minify,
		LogLevel:         api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		return nil, nil, errors.CompileError(fmt.Sprintf("prefix %s: %s", name, formatMessages(result.Errors))).
			WithContext("file", name).
			Build()
	}
	return result.Code, result.Map, nil
}
