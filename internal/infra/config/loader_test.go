package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/runoshun/agentdeck/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, domain.ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoader_Load_Defaults(t *testing.T) {
	loader := NewLoaderWithGlobalDir(t.TempDir(), t.TempDir())

	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, domain.NewDefaultConfig(), cfg)
}

func TestLoader_Load_HomeConfigOnly(t *testing.T) {
	homeDir := t.TempDir()
	writeConfig(t, homeDir, `
[agent]
command = "claude --dangerously-skip-permissions"

[notify]
command = "notify-send deck {{.Title}}"

[loop]
tick = "250ms"

[poll]
completion_interval = "2m"

[log]
level = "debug"
`)

	cfg, err := NewLoaderWithGlobalDir(homeDir, t.TempDir()).Load()
	require.NoError(t, err)

	assert.Equal(t, "claude --dangerously-skip-permissions", cfg.Agent.Command)
	assert.Equal(t, "notify-send deck {{.Title}}", cfg.Notify.Command)
	assert.Equal(t, 250*time.Millisecond, cfg.Loop.Tick)
	assert.Equal(t, 2*time.Minute, cfg.Poll.CompletionInterval)
	assert.Equal(t, domain.DefaultUsageInterval, cfg.Poll.UsageInterval)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Empty(t, cfg.Warnings)
}

func TestLoader_Load_HomeOverridesGlobal(t *testing.T) {
	homeDir := t.TempDir()
	globalDir := t.TempDir()
	writeConfig(t, globalDir, `
[agent]
command = "global-agent"

[usage]
credentials = "/global/creds.json"

[log]
level = "warn"
`)
	writeConfig(t, homeDir, `
[agent]
command = "home-agent"
`)

	cfg, err := NewLoaderWithGlobalDir(homeDir, globalDir).Load()
	require.NoError(t, err)

	assert.Equal(t, "home-agent", cfg.Agent.Command)
	assert.Equal(t, "/global/creds.json", cfg.Usage.Credentials)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoader_Load_Warnings(t *testing.T) {
	homeDir := t.TempDir()
	path := writeConfig(t, homeDir, `
[agent]
command = "claude"
model = "opus"

[loop]
tick = "soon"

[workers]
default = "x"
`)

	cfg, err := NewLoaderWithGlobalDir(homeDir, t.TempDir()).Load()
	require.NoError(t, err)

	assert.Equal(t, []string{
		path + ": invalid value for [loop].tick: soon",
		path + ": unknown key in [agent]: model",
		path + ": unknown section: workers",
	}, cfg.Warnings)
	assert.Equal(t, domain.DefaultTick, cfg.Loop.Tick, "invalid duration keeps default")
}

func TestLoader_Load_InvalidTOML(t *testing.T) {
	homeDir := t.TempDir()
	writeConfig(t, homeDir, "[agent\ncommand = ")

	_, err := NewLoaderWithGlobalDir(homeDir, t.TempDir()).Load()
	assert.Error(t, err)
}

func TestLoader_LoadGlobal_NoDir(t *testing.T) {
	loader := NewLoaderWithGlobalDir(t.TempDir(), "")

	_, err := loader.LoadGlobal()
	assert.ErrorIs(t, err, os.ErrNotExist)

	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultAgentCommand, cfg.Agent.Command)
}
