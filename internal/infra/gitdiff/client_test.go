package gitdiff

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/runoshun/agentdeck/internal/domain"
	"github.com/runoshun/agentdeck/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_HeadCommit(t *testing.T) {
	repo := testutil.NewGitRepo(t)
	want := strings.TrimSpace(testutil.Git(t, repo, "rev-parse", "HEAD"))

	got, err := NewClient().HeadCommit(repo)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestClient_Stats_LinkedWorktree(t *testing.T) {
	repo := testutil.NewGitRepo(t)
	client := NewClient()
	base, err := client.HeadCommit(repo)
	require.NoError(t, err)

	ws := filepath.Join(t.TempDir(), "task-1")
	testutil.Git(t, repo, "worktree", "add", "-q", "-b", "deck/task-1", ws, "HEAD")

	testutil.WriteFile(t, filepath.Join(ws, "README.md"), "# Test\nmore\nlines\n")
	testutil.WriteFile(t, filepath.Join(ws, "main.go"), "package main\n")
	testutil.Git(t, ws, "add", ".")
	testutil.Git(t, ws, "commit", "-q", "-m", "work")

	stats, err := client.Stats(ws, base)
	require.NoError(t, err)
	assert.Equal(t, domain.DiffStats{FilesChanged: 2, LinesAdded: 3, LinesRemoved: 0}, stats)
}

func TestClient_Stats_NoChanges(t *testing.T) {
	repo := testutil.NewGitRepo(t)
	client := NewClient()
	base, err := client.HeadCommit(repo)
	require.NoError(t, err)

	stats, err := client.Stats(repo, base)
	require.NoError(t, err)
	assert.Equal(t, domain.DiffStats{}, stats)
}

func TestClient_Stats_NoBase(t *testing.T) {
	_, err := NewClient().Stats(t.TempDir(), "")
	assert.ErrorIs(t, err, ErrNoBaseCommit)
}
