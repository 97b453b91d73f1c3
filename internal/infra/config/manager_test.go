package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/runoshun/agentdeck/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_GetConfigInfo(t *testing.T) {
	homeDir := t.TempDir()
	globalDir := t.TempDir()
	writeConfig(t, homeDir, "[log]\nlevel = \"debug\"\n")

	m := NewManagerWithGlobalDir(homeDir, globalDir)

	home := m.GetHomeConfigInfo()
	assert.True(t, home.Exists)
	assert.Equal(t, filepath.Join(homeDir, domain.ConfigFileName), home.Path)
	assert.Contains(t, home.Content, "debug")

	global := m.GetGlobalConfigInfo()
	assert.False(t, global.Exists)
	assert.Equal(t, filepath.Join(globalDir, domain.ConfigFileName), global.Path)
}

func TestManager_GetGlobalConfigInfo_NoDir(t *testing.T) {
	m := NewManagerWithGlobalDir(t.TempDir(), "")
	assert.Equal(t, domain.ConfigInfo{}, m.GetGlobalConfigInfo())
}

func TestManager_InitHomeConfig(t *testing.T) {
	homeDir := t.TempDir()
	m := NewManagerWithGlobalDir(homeDir, t.TempDir())

	path, err := m.InitHomeConfig(domain.NewDefaultConfig())
	require.NoError(t, err)
	assert.FileExists(t, path)

	// The written template loads back to the defaults without warnings.
	cfg, err := NewLoaderWithGlobalDir(homeDir, t.TempDir()).Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.Warnings)
	assert.Equal(t, domain.DefaultCompletionInterval, cfg.Poll.CompletionInterval)

	_, err = m.InitHomeConfig(domain.NewDefaultConfig())
	assert.ErrorIs(t, err, domain.ErrConfigExists)
}

func TestManager_InitGlobalConfig_CreatesDir(t *testing.T) {
	globalDir := filepath.Join(t.TempDir(), "nested", "agentdeck")
	m := NewManagerWithGlobalDir(t.TempDir(), globalDir)

	path, err := m.InitGlobalConfig(domain.NewDefaultConfig())
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
