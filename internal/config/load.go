package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/patternpipe/internal/foundation/errors"
)

// Load reads, validates and decodes the configuration file at configPath.
// Environment variables are expanded before decoding; .env files next to
// the configuration are loaded first.
func Load(configPath string) (*Config, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "resolve configuration path").
			WithContext("path", configPath).
			Fatal().
			Build()
	}

	loadEnvFiles(filepath.Dir(absPath))

	data, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError(fmt.Sprintf("configuration file not found: %s", configPath)).
				WithContext("path", absPath).
				Build()
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "read configuration file").
			WithContext("path", absPath).
			Fatal().
			Build()
	}

	cfg, err := Parse(absPath, []byte(os.ExpandEnv(string(data))))
	if err != nil {
		return nil, err
	}
	cfg.baseDir = filepath.Dir(absPath)
	ApplyDefaults(cfg)
	return cfg, nil
}

// Parse validates and decodes a configuration document. The name selects
// the format by extension; anything other than .yaml/.yml is JSON.
// Defaults are not applied.
func Parse(name string, data []byte) (*Config, error) {
	if err := ValidateDocument(name, data); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "configuration is invalid").
			WithContext("path", name).
			Fatal().
			UserAction().
			Build()
	}

	var cfg Config
	var decodeErr error
	if isYAML(name) {
		decodeErr = yaml.Unmarshal(data, &cfg)
	} else {
		decodeErr = json.Unmarshal(data, &cfg)
	}
	if decodeErr != nil {
		return nil, errors.WrapError(decodeErr, errors.CategoryConfig, "decode configuration").
			WithContext("path", name).
			Fatal().
			UserAction().
			Build()
	}
	if cfg.Paths == nil {
		cfg.Paths = PathConfig{}
	}
	return &cfg, nil
}
