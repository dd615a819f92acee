// Package config loads the orchestrator's YAML configuration: read bytes,
// expand environment variables, deep-merge over hard-coded defaults, and
// decode into typed config structs.
//
// Grounded on the teacher repo's config.Loader (config/loader.go,
// config/env.go) pipeline, generalized from the original's shallow
// dict.update merge (original_source/app/orchestration/agent_adapter.py:
// _load_config) to a recursive map merge since this module's config has
// nested sections.
package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/localagent/orchestrator/logger"
)

// Loader reads, expands, and decodes OrchestratorConfig from a YAML file.
type Loader struct {
	Logger *slog.Logger
}

// NewLoader returns a Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Default returns an OrchestratorConfig populated entirely with defaults.
func Default() *OrchestratorConfig {
	c := &OrchestratorConfig{}
	c.SetDefaults()
	return c
}

// Load reads path, expands environment variables, deep-merges the result
// over Default(), and decodes it into an OrchestratorConfig. A missing
// file is not an error: Load returns Default() unchanged, mirroring the
// teacher's "config file is optional" behavior.
func (l *Loader) Load(path string) (*OrchestratorConfig, error) {
	log := logger.Or(l.Logger)

	defaults := Default()
	if path == "" {
		return defaults, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("config: file not found, using defaults", "path", path)
			return defaults, nil
		}
		return nil, &ValidationError{Path: path, Message: "could not read config file", Err: err}
	}

	var userRaw map[string]any
	if err := yaml.Unmarshal(raw, &userRaw); err != nil {
		return nil, &ValidationError{Path: path, Message: "could not parse YAML", Err: err}
	}

	expanded, ok := ExpandEnvVarsInData(userRaw).(map[string]any)
	if !ok {
		expanded = map[string]any{}
	}

	defaultsRaw, err := structToMap(defaults)
	if err != nil {
		return nil, &ValidationError{Path: path, Message: "could not prepare defaults for merge", Err: err}
	}

	merged := deepMerge(defaultsRaw, expanded)

	cfg := &OrchestratorConfig{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{Result: cfg, TagName: "mapstructure"})
	if err != nil {
		return nil, &ValidationError{Path: path, Message: "could not build decoder", Err: err}
	}
	if err := decoder.Decode(merged); err != nil {
		return nil, &ValidationError{Path: path, Message: "could not decode config", Err: err}
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// structToMap round-trips v through mapstructure's inverse (via YAML) to
// get a plain map[string]any suitable for deepMerge, keyed by the same
// mapstructure tags used for decoding.
func structToMap(v any) (map[string]any, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// deepMerge recursively overlays override onto a copy of base: for every
// key present in both where both values are maps, merge recursively;
// otherwise override wins outright, matching "user config wins" semantics.
func deepMerge(base, override map[string]any) map[string]any {
	merged := make(map[string]any, len(base))
	for k, v := range base {
		merged[k] = v
	}
	for k, overrideVal := range override {
		baseVal, exists := merged[k]
		baseMap, baseIsMap := baseVal.(map[string]any)
		overrideMap, overrideIsMap := overrideVal.(map[string]any)
		if exists && baseIsMap && overrideIsMap {
			merged[k] = deepMerge(baseMap, overrideMap)
		} else {
			merged[k] = overrideVal
		}
	}
	return merged
}

// Watch starts an fsnotify watch on path and invokes onChange with a
// freshly reloaded config whenever the file is written. Errors encountered
// during a reload are logged rather than returned, since Watch runs in
// the background for the lifetime of the returned watcher.
func (l *Loader) Watch(path string, onChange func(*OrchestratorConfig)) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: could not create watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("config: could not watch %s: %w", path, err)
	}

	log := logger.Or(l.Logger)
	go func() {
		for event := range watcher.Events {
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := l.Load(path)
			if err != nil {
				log.Error("config: reload failed", "path", path, "error", err)
				continue
			}
			onChange(cfg)
		}
	}()
	return watcher, nil
}
