package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/agentdeck/internal/domain"
)

// ListProjectsOutput contains the registered projects ordered by name.
type ListProjectsOutput struct {
	Projects []*domain.Project
}

// ListProjects is the use case for listing projects.
type ListProjects struct {
	projects domain.ProjectRepository
}

// NewListProjects creates a new ListProjects use case.
func NewListProjects(projects domain.ProjectRepository) *ListProjects {
	return &ListProjects{projects: projects}
}

// Execute returns every project.
func (uc *ListProjects) Execute(ctx context.Context) (*ListProjectsOutput, error) {
	projects, err := uc.projects.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return &ListProjectsOutput{Projects: projects}, nil
}
