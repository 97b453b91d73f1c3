// Package usecase contains application use cases.
package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/runoshun/agentdeck/internal/domain"
)

// AddProjectInput contains the parameters for registering a project.
type AddProjectInput struct {
	Name     string // Project name (required, unique)
	RepoPath string // Repository path; made absolute
}

// AddProjectOutput contains the result of registering a project.
type AddProjectOutput struct {
	Project *domain.Project
}

// AddProject is the use case for registering a repository as a project.
type AddProject struct {
	projects domain.ProjectRepository
	clock    domain.Clock
	logger   domain.Logger
}

// NewAddProject creates a new AddProject use case.
func NewAddProject(projects domain.ProjectRepository, clock domain.Clock, logger domain.Logger) *AddProject {
	return &AddProject{
		projects: projects,
		clock:    clock,
		logger:   logger,
	}
}

// Execute registers the project.
func (uc *AddProject) Execute(ctx context.Context, in AddProjectInput) (*AddProjectOutput, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.ErrEmptyName
	}
	if !domain.ValidProjectName(name) {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidName, name)
	}

	repoPath, err := filepath.Abs(in.RepoPath)
	if err != nil {
		return nil, fmt.Errorf("resolve repository path: %w", err)
	}
	info, err := os.Stat(repoPath)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidRepoPath, repoPath)
	}

	project := &domain.Project{
		Name:     name,
		RepoPath: repoPath,
		Created:  uc.clock.Now(),
	}
	if err := uc.projects.CreateProject(ctx, project); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	uc.logger.Info(0, "project", fmt.Sprintf("registered %s at %s", name, repoPath))
	return &AddProjectOutput{Project: project}, nil
}
