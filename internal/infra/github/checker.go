// Package github checks pull request state through the gh CLI.
package github

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/runoshun/agentdeck/internal/domain"
)

// Checker implements domain.ReviewChecker.
type Checker struct {
	executor domain.CommandExecutor
}

// NewChecker creates a new Checker.
func NewChecker(executor domain.CommandExecutor) *Checker {
	return &Checker{executor: executor}
}

// Ensure Checker implements domain.ReviewChecker interface.
var _ domain.ReviewChecker = (*Checker)(nil)

type prView struct {
	State domain.PRState `json:"state"`
}

// State returns the state of the pull request at prURL.
func (c *Checker) State(ctx context.Context, prURL string) (domain.PRState, error) {
	out, err := c.executor.Execute(ctx, &domain.ExecCommand{
		Program: "gh",
		Args:    []string{"pr", "view", prURL, "--json", "state"},
	})
	if err != nil {
		return "", fmt.Errorf("view pull request %s: %w", prURL, err)
	}
	var view prView
	if err := json.Unmarshal(out, &view); err != nil {
		return "", fmt.Errorf("parse pull request %s: %w", prURL, err)
	}
	return view.State, nil
}

// IsMerged reports whether the pull request at prURL has been merged.
func (c *Checker) IsMerged(ctx context.Context, prURL string) (bool, error) {
	state, err := c.State(ctx, prURL)
	if err != nil {
		return false, err
	}
	return state == domain.PRStateMerged, nil
}
