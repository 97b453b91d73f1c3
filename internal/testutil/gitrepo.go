package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// NewGitRepo creates a repository with one commit in a temp dir and
// returns its path. The test is skipped when git is unavailable.
func NewGitRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	repo := filepath.Join(t.TempDir(), "repo")
	if err := os.MkdirAll(repo, 0o755); err != nil {
		t.Fatalf("create repo dir: %v", err)
	}
	Git(t, repo, "init", "-q")
	Git(t, repo, "config", "user.email", "test@example.com")
	Git(t, repo, "config", "user.name", "Test User")
	WriteFile(t, filepath.Join(repo, "README.md"), "# Test\n")
	Git(t, repo, "add", ".")
	Git(t, repo, "commit", "-q", "-m", "Initial commit")
	return repo
}

// Git runs a git command in dir and fails the test on error.
func Git(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %v: %v: %s", args, err, out)
	}
	return string(out)
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
