package domain

import (
	"bytes"
	_ "embed"
	"fmt"
	"path/filepath"
	"text/template"
	"time"
)

// Config represents the application configuration.
// Fields are ordered to minimize memory padding.
type Config struct {
	Warnings []string     `toml:"-"`
	Agent    AgentConfig  `toml:"agent"`
	Notify   NotifyConfig `toml:"notify"`
	Usage    UsageConfig  `toml:"usage"`
	Log      LogConfig    `toml:"log"`
	Loop     LoopConfig   `toml:"loop"`
	Poll     PollConfig   `toml:"poll"`
}

// AgentConfig holds settings from the [agent] section.
type AgentConfig struct {
	Command string `toml:"command,omitempty"` // Agent command; the prompt is passed as the last argument
}

// NotifyConfig holds settings from the [notify] section.
type NotifyConfig struct {
	// Command is a shell command template. {{.Title}} expands to the
	// shell-quoted task title. Empty disables notifications.
	Command string `toml:"command,omitempty"`
}

// UsageConfig holds settings from the [usage] section.
type UsageConfig struct {
	URL         string `toml:"url,omitempty"`         // Account usage endpoint
	Credentials string `toml:"credentials,omitempty"` // Path to the OAuth credentials file
}

// LogConfig holds settings from the [log] section.
type LogConfig struct {
	Level string `toml:"level,omitempty"` // Log level: debug, info, warn, error
}

// LoopConfig holds settings from the [loop] section.
type LoopConfig struct {
	Tick time.Duration `toml:"tick,omitempty"`
}

// PollConfig holds settings from the [poll] section.
type PollConfig struct {
	UsageInterval      time.Duration `toml:"usage_interval,omitempty"`
	CompletionInterval time.Duration `toml:"completion_interval,omitempty"`
	Timeout            time.Duration `toml:"timeout,omitempty"` // Bound on a single external call
}

// Default configuration values.
const (
	DefaultAgentCommand       = "claude"
	DefaultLogLevel           = "info"
	DefaultUsageURL           = "https://api.anthropic.com/api/oauth/usage"
	DefaultTick               = 500 * time.Millisecond
	DefaultUsageInterval      = time.Minute
	DefaultCompletionInterval = 5 * time.Minute
	DefaultPollTimeout        = 30 * time.Second
)

// Directory and file names.
const (
	AppDirName     = "agentdeck"
	ConfigFileName = "config.toml"
)

// GlobalConfigDir returns the global config directory.
// configHome is typically XDG_CONFIG_HOME or ~/.config (resolved by caller).
func GlobalConfigDir(configHome string) string {
	return filepath.Join(configHome, AppDirName)
}

// GlobalConfigPath returns the global config path.
func GlobalConfigPath(configHome string) string {
	return filepath.Join(GlobalConfigDir(configHome), ConfigFileName)
}

// NewDefaultConfig returns a Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Agent: AgentConfig{
			Command: DefaultAgentCommand,
		},
		Usage: UsageConfig{
			URL: DefaultUsageURL,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
		Loop: LoopConfig{
			Tick: DefaultTick,
		},
		Poll: PollConfig{
			UsageInterval:      DefaultUsageInterval,
			CompletionInterval: DefaultCompletionInterval,
			Timeout:            DefaultPollTimeout,
		},
	}
}

// ConfigInfo describes one configuration file on disk.
type ConfigInfo struct {
	Path    string
	Content string
	Exists  bool
}

// ConfigManager reads and initializes configuration files.
type ConfigManager interface {
	GetGlobalConfigInfo() ConfigInfo
	GetHomeConfigInfo() ConfigInfo
	// InitGlobalConfig writes a template and returns its path.
	// Returns ErrConfigExists if the file is already present.
	InitGlobalConfig(cfg *Config) (string, error)
	InitHomeConfig(cfg *Config) (string, error)
}

//go:embed config_template.toml
var configTemplateContent string

// RenderConfigTemplate renders a commented config file populated with cfg.
func RenderConfigTemplate(cfg *Config) string {
	tmpl, err := template.New("config").Delims("<<", ">>").Parse(configTemplateContent)
	if err != nil {
		// Should never happen with embedded template
		panic(fmt.Sprintf("failed to parse config template: %v", err))
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, cfg); err != nil {
		// Should never happen with valid data
		panic(fmt.Sprintf("failed to execute config template: %v", err))
	}
	return buf.String()
}
