package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/agentdeck/internal/domain"
)

// ListTasksInput contains the parameters for listing tasks.
type ListTasksInput struct {
	Status  *domain.Status // Filter by status (optional)
	Project string         // Filter by project name (optional)
}

// ListTasksOutput contains the tasks ordered by project then queue order.
type ListTasksOutput struct {
	Projects map[int64]*domain.Project
	Tasks    []*domain.Task
}

// ListTasks is the use case for listing tasks.
type ListTasks struct {
	store domain.Store
}

// NewListTasks creates a new ListTasks use case.
func NewListTasks(store domain.Store) *ListTasks {
	return &ListTasks{store: store}
}

// Execute returns the matching tasks.
func (uc *ListTasks) Execute(ctx context.Context, in ListTasksInput) (*ListTasksOutput, error) {
	projects, err := uc.store.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	byID := make(map[int64]*domain.Project, len(projects))
	for _, p := range projects {
		byID[p.ID] = p
	}

	filter := domain.TaskFilter{Status: in.Status}
	if in.Project != "" {
		project, err := requireProject(ctx, uc.store, in.Project)
		if err != nil {
			return nil, err
		}
		filter.ProjectID = &project.ID
	}

	tasks, err := uc.store.ListTasks(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return &ListTasksOutput{Projects: byID, Tasks: tasks}, nil
}
