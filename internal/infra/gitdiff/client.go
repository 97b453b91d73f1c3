// Package gitdiff reads commit and diff information with go-git.
package gitdiff

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/runoshun/agentdeck/internal/domain"
)

// ErrNoBaseCommit is returned when a session recorded no base commit.
var ErrNoBaseCommit = errors.New("no base commit recorded")

// Client implements domain.DiffStatter.
type Client struct{}

// NewClient creates a new Client.
func NewClient() *Client {
	return &Client{}
}

// Ensure Client implements domain.DiffStatter interface.
var _ domain.DiffStatter = (*Client)(nil)

// HeadCommit returns the commit hash HEAD points to.
func (c *Client) HeadCommit(repoPath string) (string, error) {
	repo, err := open(repoPath)
	if err != nil {
		return "", err
	}
	ref, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	return ref.Hash().String(), nil
}

// Stats returns the committed changes between baseCommit and the
// workspace HEAD. Uncommitted edits are not counted.
func (c *Client) Stats(workspace, baseCommit string) (domain.DiffStats, error) {
	if baseCommit == "" {
		return domain.DiffStats{}, ErrNoBaseCommit
	}
	repo, err := open(workspace)
	if err != nil {
		return domain.DiffStats{}, err
	}

	ref, err := repo.Head()
	if err != nil {
		return domain.DiffStats{}, fmt.Errorf("resolve HEAD: %w", err)
	}
	head, err := repo.CommitObject(ref.Hash())
	if err != nil {
		return domain.DiffStats{}, fmt.Errorf("read HEAD commit: %w", err)
	}
	base, err := repo.CommitObject(plumbing.NewHash(baseCommit))
	if err != nil {
		return domain.DiffStats{}, fmt.Errorf("read base commit %s: %w", baseCommit, err)
	}

	patch, err := base.Patch(head)
	if err != nil {
		return domain.DiffStats{}, fmt.Errorf("diff %s..HEAD: %w", baseCommit, err)
	}

	var stats domain.DiffStats
	for _, fs := range patch.Stats() {
		stats.FilesChanged++
		stats.LinesAdded += fs.Addition
		stats.LinesRemoved += fs.Deletion
	}
	return stats, nil
}

// open opens a repository or one of its linked worktrees.
func open(path string) (*git.Repository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", path, err)
	}
	return repo, nil
}
