package transform

import (
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"git.home.luguber.info/inful/patternpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/patternpipe/internal/foundation/normalization"
)

// ScriptTransformer rewrites one script file's source.
type ScriptTransformer interface {
	Transform(name string, src []byte) ([]byte, error)
}

var targetNormalizer = normalization.NewNormalizer(map[string]api.Target{
	"es5":    api.ES5,
	"es2015": api.ES2015,
	"es6":    api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
	"esnext": api.ESNext,
}, api.ES2015)

// ESBuildScript transpiles scripts to a language target with esbuild.
type ESBuildScript struct {
	target api.Target
}

// NewESBuildScript returns a transpiler for target (for example "es2015").
func NewESBuildScript(target string) (*ESBuildScript, error) {
	t, err := targetNormalizer.NormalizeWithError(target)
	if err != nil {
		return nil, errors.ConfigError(fmt.Sprintf("scripts.target: %v", err)).Build()
	}
	return &ESBuildScript{target: t}, nil
}

// Transform returns src lowered to the configured target. A syntax error
// yields a TransformError naming the file and position.
func (s *ESBuildScript) Transform(name string, src []byte) ([]byte, error) {
	result := api.Transform(string(src), api.TransformOptions{
		Loader:     api.LoaderJS,
		Target:     s.target,
		Sourcefile: name,
		LogLevel:   api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		return nil, errors.TransformError(fmt.Sprintf("transpile %s: %s", name, formatMessages(result.Errors))).
			WithContext("file", name).
			Build()
	}
	return result.Code, nil
}

func formatMessages(msgs []api.Message) string {
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m.Location != nil {
			parts = append(parts, fmt.Sprintf("%d:%d: %s", m.Location.Line, m.Location.Column, m.Text))
			continue
		}
		parts = append(parts, m.Text)
	}
	return strings.Join(parts, "; ")
}
