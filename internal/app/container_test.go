package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/runoshun/agentdeck/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveHome(t *testing.T) {
	t.Run("explicit home", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv(domain.HomeEnv, dir)
		home, err := ResolveHome()
		require.NoError(t, err)
		assert.Equal(t, dir, home)
	})

	t.Run("xdg data home", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv(domain.HomeEnv, "")
		t.Setenv("XDG_DATA_HOME", dir)
		home, err := ResolveHome()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, domain.AppDirName), home)
	})

	t.Run("user home fallback", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv(domain.HomeEnv, "")
		t.Setenv("XDG_DATA_HOME", "")
		t.Setenv("HOME", dir)
		home, err := ResolveHome()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, ".local", "share", domain.AppDirName), home)
	})
}

func TestNew_WiresContainer(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	home := filepath.Join(t.TempDir(), "deck")
	ctx := context.Background()

	c, err := New(ctx, home)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	assert.Equal(t, domain.StorePath(home), c.Config.StorePath)
	assert.Equal(t, domain.SocketPath(home), c.Config.SocketPath)
	_, err = os.Stat(c.Config.StorePath)
	require.NoError(t, err, "store file created")

	version, err := c.Store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Positive(t, version)

	sup := c.Supervisor()
	require.NotNil(t, sup.Loop)
	require.NotNil(t, sup.Usage)
	require.NotNil(t, sup.Completion)

	res, err := sup.Loop.Tick(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.Applied)
	assert.Empty(t, res.Fed)
}

func TestNew_InvalidConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	home := t.TempDir()
	require.NoError(t, os.WriteFile(domain.HomeConfigPath(home), []byte("[loop\n"), 0o600))

	_, err := New(context.Background(), home)
	assert.Error(t, err)
}
