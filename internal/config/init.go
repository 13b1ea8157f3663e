package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/patternpipe/internal/foundation/errors"
)

// Starter returns the configuration written by Init: the standard source
// and public layout of a pattern library project.
func Starter() *Config {
	cfg := &Config{
		CleanPublic: true,
		Paths: PathConfig{
			"source.root":            "./source/",
			"source.patterns":        "./source/_patterns/",
			"source.data":            "./source/_data/",
			"source.meta":            "./source/_meta/",
			"source.annotations":     "./source/_annotations/",
			"source.styleguide":      "./node_modules/styleguidekit-assets-default/dist/",
			"source.patternlabFiles": "./node_modules/styleguidekit-mustache-default/views/",
			"source.js":              "./source/js",
			"source.images":          "./source/images",
			"source.fonts":           "./source/fonts",
			"source.css":             "./source/css/",
			"public.root":            "./public/",
			"public.patterns":        "./public/patterns/",
			"public.data":            "./public/styleguide/data/",
			"public.annotations":     "./public/annotations/",
			"public.styleguide":      "./public/styleguide/",
			"public.js":              "./public/js",
			"public.images":          "./public/images",
			"public.fonts":           "./public/fonts",
			"public.css":             "./public/css",
		},
	}
	ApplyDefaults(cfg)
	cfg.Render.Dir = ""
	return cfg
}

// Init writes a starter configuration to path. An existing file is only
// replaced when force is set.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.ConfigError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", path)).
			WithContext("path", path).
			Build()
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(Starter())
	} else {
		data, err = json.MarshalIndent(Starter(), "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "encode starter configuration").Build()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "create configuration directory").
				WithContext("path", dir).
				Fatal().
				Build()
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "write configuration file").
			WithContext("path", path).
			Fatal().
			Build()
	}
	return nil
}
