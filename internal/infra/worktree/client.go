// Package worktree provides git worktree operations.
package worktree

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/runoshun/agentdeck/internal/domain"
)

// Info describes one registered worktree.
type Info struct {
	Path   string
	Branch string
}

// Client manages git worktrees of any registered repository.
type Client struct {
	executor domain.CommandExecutor
}

// NewClient creates a new worktree client.
func NewClient(executor domain.CommandExecutor) *Client {
	return &Client{executor: executor}
}

// Ensure Client implements domain.WorkspaceManager interface.
var _ domain.WorkspaceManager = (*Client)(nil)

// Create adds a worktree at path on branch. A missing branch is created
// from the repository HEAD; an existing worktree at path is reused.
func (c *Client) Create(repoPath, path, branch string) error {
	worktrees, err := c.List(repoPath)
	if err != nil {
		return err
	}
	for _, wt := range worktrees {
		if sameDir(wt.Path, path) {
			if _, err := os.Stat(path); err == nil {
				return nil
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create worktree parent: %w", err)
	}

	exists, err := c.branchExists(repoPath, branch)
	if err != nil {
		return err
	}
	args := []string{"worktree", "add", "-b", branch, path, "HEAD"}
	if exists {
		args = []string{"worktree", "add", path, branch}
	}

	out, err := c.git(repoPath, args...)
	if err == nil {
		return nil
	}
	if !strings.Contains(string(out), "already registered") {
		return fmt.Errorf("create worktree: %w", err)
	}

	// Registered but the directory is gone: prune stale entries and retry.
	if _, err := c.git(repoPath, "worktree", "prune"); err != nil {
		return fmt.Errorf("prune stale worktrees: %w", err)
	}
	if _, err := c.git(repoPath, args...); err != nil {
		return fmt.Errorf("create worktree after prune: %w", err)
	}
	return nil
}

// ForceRemove deletes the worktree at path including uncommitted and
// untracked changes, which are lost. The branch is kept.
func (c *Client) ForceRemove(repoPath, path string) error {
	_, err := c.git(repoPath, "worktree", "remove", "--force", "--force", path)
	if err == nil {
		return nil
	}
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		_, _ = c.git(repoPath, "worktree", "prune")
		return nil
	}
	return fmt.Errorf("remove worktree: %w", err)
}

// List returns all worktrees of the repository.
func (c *Client) List(repoPath string) ([]Info, error) {
	out, err := c.git(repoPath, "worktree", "list", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("list worktrees: %w", err)
	}
	return parseWorktreeList(string(out))
}

func (c *Client) git(repoPath string, args ...string) ([]byte, error) {
	return c.executor.Execute(context.Background(), &domain.ExecCommand{
		Program: "git",
		Args:    args,
		Dir:     repoPath,
	})
}

// parseWorktreeList parses the porcelain output of git worktree list.
// Format:
//
//	worktree /path/to/worktree
//	HEAD abc123
//	branch refs/heads/branch-name
//	<blank line>
func parseWorktreeList(output string) ([]Info, error) {
	var (
		worktrees []Info
		current   Info
	)

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "worktree "):
			current.Path = strings.TrimPrefix(line, "worktree ")
		case strings.HasPrefix(line, "branch "):
			current.Branch = strings.TrimPrefix(strings.TrimPrefix(line, "branch "), "refs/heads/")
		case line == "":
			if current.Path != "" {
				worktrees = append(worktrees, current)
			}
			current = Info{}
		}
	}
	if current.Path != "" {
		worktrees = append(worktrees, current)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("parse worktree list: %w", err)
	}
	return worktrees, nil
}

func (c *Client) branchExists(repoPath, branch string) (bool, error) {
	out, err := c.git(repoPath, "branch", "--list", branch)
	if err != nil {
		return false, fmt.Errorf("check branch exists: %w", err)
	}
	return strings.TrimSpace(string(out)) != "", nil
}

// sameDir compares paths after resolving symlinks (macOS /var vs /private/var).
func sameDir(a, b string) bool {
	if ra, err := filepath.EvalSymlinks(a); err == nil {
		a = ra
	}
	if rb, err := filepath.EvalSymlinks(b); err == nil {
		b = rb
	}
	return filepath.Clean(a) == filepath.Clean(b)
}
