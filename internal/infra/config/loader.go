// Package config provides configuration loading functionality.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/runoshun/agentdeck/internal/domain"
)

// Loader loads configuration from TOML files.
type Loader struct {
	homeDir       string // Path to the agentdeck home directory
	globalConfDir string // Path to global config directory (e.g., ~/.config/agentdeck)
}

// NewLoader creates a new Loader.
func NewLoader(homeDir string) *Loader {
	return &Loader{
		homeDir:       homeDir,
		globalConfDir: DefaultGlobalConfigDir(),
	}
}

// NewLoaderWithGlobalDir creates a new Loader with a custom global config directory.
// This is useful for testing.
func NewLoaderWithGlobalDir(homeDir, globalConfDir string) *Loader {
	return &Loader{
		homeDir:       homeDir,
		globalConfDir: globalConfDir,
	}
}

// DefaultGlobalConfigDir returns the global config directory below
// $XDG_CONFIG_HOME, falling back to ~/.config.
func DefaultGlobalConfigDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return domain.GlobalConfigDir(configHome)
}

// Load returns the merged configuration (home + global).
// Home config takes precedence over global config.
func (l *Loader) Load() (*domain.Config, error) {
	global, err := l.LoadGlobal()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	home, err := l.LoadHome()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	// Merge: default <- global <- home (later takes precedence)
	base := domain.NewDefaultConfig()
	if global != nil {
		base = mergeConfigs(base, global)
	}
	if home != nil {
		base = mergeConfigs(base, home)
	}
	return base, nil
}

// LoadGlobal returns only the global configuration.
func (l *Loader) LoadGlobal() (*domain.Config, error) {
	if l.globalConfDir == "" {
		return nil, os.ErrNotExist
	}
	return l.loadFile(filepath.Join(l.globalConfDir, domain.ConfigFileName))
}

// LoadHome returns only the configuration stored in the home directory.
func (l *Loader) LoadHome() (*domain.Config, error) {
	return l.loadFile(domain.HomeConfigPath(l.homeDir))
}

// loadFile loads a configuration from a file.
func (l *Loader) loadFile(path string) (*domain.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg := convertRawToDomainConfig(raw)
	for i, w := range cfg.Warnings {
		cfg.Warnings[i] = fmt.Sprintf("%s: %s", path, w)
	}
	return cfg, nil
}

// section parses one [name] table. Each known key is handled by its setter;
// the setter returns false when the value has the wrong type.
type section map[string]func(v any) bool

func stringKey(dst *string) func(v any) bool {
	return func(v any) bool {
		s, ok := v.(string)
		if ok {
			*dst = s
		}
		return ok
	}
}

func durationKey(dst *time.Duration) func(v any) bool {
	return func(v any) bool {
		s, ok := v.(string)
		if !ok {
			return false
		}
		d, err := time.ParseDuration(s)
		if err != nil || d <= 0 {
			return false
		}
		*dst = d
		return true
	}
}

// convertRawToDomainConfig converts the raw map to domain config and collects warnings.
// Fields not present in raw stay zero so mergeConfigs can tell them apart.
func convertRawToDomainConfig(raw map[string]any) *domain.Config {
	res := &domain.Config{}
	sections := map[string]section{
		"agent": {
			"command": stringKey(&res.Agent.Command),
		},
		"notify": {
			"command": stringKey(&res.Notify.Command),
		},
		"usage": {
			"url":         stringKey(&res.Usage.URL),
			"credentials": stringKey(&res.Usage.Credentials),
		},
		"log": {
			"level": stringKey(&res.Log.Level),
		},
		"loop": {
			"tick": durationKey(&res.Loop.Tick),
		},
		"poll": {
			"usage_interval":      durationKey(&res.Poll.UsageInterval),
			"completion_interval": durationKey(&res.Poll.CompletionInterval),
			"timeout":             durationKey(&res.Poll.Timeout),
		},
	}

	var warnings []string
	for name, value := range raw {
		keys, known := sections[name]
		if !known {
			warnings = append(warnings, fmt.Sprintf("unknown section: %s", name))
			continue
		}
		m, ok := value.(map[string]any)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("[%s] must be a table", name))
			continue
		}
		for k, v := range m {
			set, ok := keys[k]
			if !ok {
				warnings = append(warnings, fmt.Sprintf("unknown key in [%s]: %s", name, k))
				continue
			}
			if !set(v) {
				warnings = append(warnings, fmt.Sprintf("invalid value for [%s].%s: %v", name, k, v))
			}
		}
	}

	sort.Strings(warnings)
	res.Warnings = warnings
	return res
}

// mergeConfigs merges two configs, with override taking precedence.
func mergeConfigs(base, override *domain.Config) *domain.Config {
	result := *base
	result.Warnings = append(append([]string{}, base.Warnings...), override.Warnings...)

	if override.Agent.Command != "" {
		result.Agent.Command = override.Agent.Command
	}
	if override.Notify.Command != "" {
		result.Notify.Command = override.Notify.Command
	}
	if override.Usage.URL != "" {
		result.Usage.URL = override.Usage.URL
	}
	if override.Usage.Credentials != "" {
		result.Usage.Credentials = override.Usage.Credentials
	}
	if override.Log.Level != "" {
		result.Log.Level = override.Log.Level
	}
	if override.Loop.Tick != 0 {
		result.Loop.Tick = override.Loop.Tick
	}
	if override.Poll.UsageInterval != 0 {
		result.Poll.UsageInterval = override.Poll.UsageInterval
	}
	if override.Poll.CompletionInterval != 0 {
		result.Poll.CompletionInterval = override.Poll.CompletionInterval
	}
	if override.Poll.Timeout != 0 {
		result.Poll.Timeout = override.Poll.Timeout
	}
	return &result
}
