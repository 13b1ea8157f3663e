package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/patternpipe/internal/foundation/errors"
)

const sampleJSON = `{
  "paths": {
    "source": {
      "root": "./source/",
      "css": "./source/css/",
      "patternlabFiles": {
        "general-header": "./views/partials/general-header.mustache"
      }
    },
    "public": {
      "root": "./public/",
      "css": "./public/css"
    }
  },
  "cleanPublic": true,
  "watch": {"stabilityThresholdMs": 500}
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_JSONFlattensNestedPaths(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "patternlab-config.json", sampleJSON)

	cfg, err := Load(path)
	require.NoError(t, err)

	css, ok := cfg.Paths.Get("source.css")
	require.True(t, ok)
	assert.Equal(t, "./source/css/", css)

	header, ok := cfg.Paths.Get("source.patternlabFiles.general-header")
	require.True(t, ok)
	assert.Equal(t, "./views/partials/general-header.mustache", header)

	assert.True(t, cfg.CleanPublic)
	assert.Equal(t, []string{"public.css", "public.root", "source.css", "source.patternlabFiles.general-header", "source.root"}, cfg.Paths.Roles())
}

func TestLoad_AppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "patternlab-config.json", sampleJSON)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 500*time.Millisecond, cfg.Watch.StabilityThreshold())
	assert.Equal(t, 100*time.Millisecond, cfg.Watch.PollInterval())
	assert.Equal(t, []string{".mustache"}, cfg.TemplateExtensions)
	assert.Equal(t, DefaultServeHost, cfg.Serve.Host)
	assert.Equal(t, DefaultServePort, cfg.Serve.Port)
	assert.Equal(t, DefaultStyleCompiler, cfg.Styles.Compiler)
	assert.Equal(t, []string{"node_modules/susy/sass"}, cfg.Styles.IncludePaths)
	assert.Equal(t, DefaultOutputStyle, cfg.Styles.OutputStyle)
	assert.Equal(t, "10", cfg.Styles.Targets["ie"])
	assert.Equal(t, DefaultScriptTarget, cfg.Scripts.Target)
	assert.Equal(t, []string{"npx", "patternlab"}, cfg.Render.Command)
	assert.Equal(t, cfg.BaseDir(), cfg.Render.Dir)
	assert.Nil(t, cfg.Notify.NATS)
}

func TestLoad_YAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "patternpipe.yaml", `
paths:
  source:
    root: ./source/
    patterns: ./source/_patterns/
  public:
    root: ./public/
render:
  command: [node, build.js]
  dir: tools
notify:
  nats:
    url: nats://127.0.0.1:4222
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	patterns, ok := cfg.Paths.Get("source.patterns")
	require.True(t, ok)
	assert.Equal(t, "./source/_patterns/", patterns)
	assert.Equal(t, []string{"node", "build.js"}, cfg.Render.Command)
	assert.Equal(t, filepath.Join(cfg.BaseDir(), "tools"), cfg.Render.Dir)
	require.NotNil(t, cfg.Notify.NATS)
	assert.Equal(t, DefaultNATSSubject, cfg.Notify.NATS.Subject)
}

func TestLoad_ExpandsEnvironment(t *testing.T) {
	t.Setenv("PP_PUBLIC", "./dist/")
	dir := t.TempDir()
	path := writeFile(t, dir, "patternlab-config.json", `{
  "paths": {"source": {"root": "./source/"}, "public": {"root": "${PP_PUBLIC}"}}
}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	root, _ := cfg.Paths.Get("public.root")
	assert.Equal(t, "./dist/", root)
}

func TestLoad_DotEnvNextToConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env", "PP_DOTENV_SOURCE=./from-dotenv/\n")
	path := writeFile(t, dir, "patternlab-config.json", `{
  "paths": {"source": {"root": "${PP_DOTENV_SOURCE}"}, "public": {"root": "./public/"}}
}`)
	t.Cleanup(func() { _ = os.Unsetenv("PP_DOTENV_SOURCE") })

	cfg, err := Load(path)
	require.NoError(t, err)
	root, _ := cfg.Paths.Get("source.root")
	assert.Equal(t, "./from-dotenv/", root)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestLoad_SchemaViolation(t *testing.T) {
	cases := map[string]string{
		"missing paths":    `{"cleanPublic": true}`,
		"missing public":   `{"paths": {"source": {"root": "./s"}}}`,
		"numeric role":     `{"paths": {"source": {"root": 1}, "public": {"root": "./p"}}}`,
		"bad port":         `{"paths": {"source": {}, "public": {}}, "serve": {"port": 70000}}`,
		"empty render cmd": `{"paths": {"source": {}, "public": {}}, "render": {"command": []}}`,
		"bad output style": `{"paths": {"source": {}, "public": {}}, "styles": {"outputStyle": "nested"}}`,
		"extension no dot": `{"paths": {"source": {}, "public": {}}, "templateExtensions": ["mustache"]}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "patternlab-config.json", doc)
			_, err := Load(path)
			require.Error(t, err)
			assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
		})
	}
}

func TestPathConfig_MarshalNests(t *testing.T) {
	p := PathConfig{"source.css": "./css", "public.root": "./public"}
	nested := p.nest()

	source, ok := nested["source"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "./css", source["css"])
	public, ok := nested["public"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "./public", public["root"])
}

func TestInit_WritesLoadableStarter(t *testing.T) {
	for _, name := range []string{"patternlab-config.json", "patternpipe.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, Init(path, false))

			cfg, err := Load(path)
			require.NoError(t, err)
			assert.True(t, cfg.CleanPublic)
			assert.Equal(t, Starter().Paths, cfg.Paths)
		})
	}
}

func TestInit_RefusesOverwriteWithoutForce(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "patternlab-config.json", "{}")

	err := Init(path, false)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))

	require.NoError(t, Init(path, true))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"source"`)
}

func TestNormalizeLogSettings(t *testing.T) {
	assert.Equal(t, LogLevelDebug, NormalizeLogLevel(" DEBUG "))
	assert.Equal(t, LogLevelWarn, NormalizeLogLevel("warning"))
	assert.Equal(t, LogLevelInfo, NormalizeLogLevel("verbose"))
	assert.Equal(t, LogFormatJSON, NormalizeLogFormat("json"))
	assert.Equal(t, LogFormatText, NormalizeLogFormat("xml"))
}
