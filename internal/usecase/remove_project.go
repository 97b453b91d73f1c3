package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/agentdeck/internal/domain"
)

// RemoveProjectInput contains the parameters for removing a project.
type RemoveProjectInput struct {
	Name  string
	Force bool // Tear down active sessions instead of refusing
}

// RemoveProjectOutput contains the result of removing a project.
type RemoveProjectOutput struct {
	TornDown []string // Sessions torn down because of Force
}

// RemoveProject is the use case for unregistering a project.
// Tasks, subtasks and sessions are deleted with it.
type RemoveProject struct {
	store    domain.Store
	teardown *TeardownSession
	logger   domain.Logger
}

// NewRemoveProject creates a new RemoveProject use case.
func NewRemoveProject(store domain.Store, teardown *TeardownSession, logger domain.Logger) *RemoveProject {
	return &RemoveProject{
		store:    store,
		teardown: teardown,
		logger:   logger,
	}
}

// Execute removes the project.
func (uc *RemoveProject) Execute(ctx context.Context, in RemoveProjectInput) (*RemoveProjectOutput, error) {
	project, err := requireProject(ctx, uc.store, in.Name)
	if err != nil {
		return nil, err
	}

	active, err := uc.store.ListSessions(ctx, domain.SessionFilter{ProjectID: &project.ID, ActiveOnly: true})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	if len(active) > 0 && !in.Force {
		return nil, fmt.Errorf("%w: %s has %d", domain.ErrProjectBusy, project.Name, len(active))
	}

	out := &RemoveProjectOutput{}
	for _, s := range active {
		if _, err := uc.teardown.Execute(ctx, TeardownSessionInput{SessionID: s.ID}); err != nil {
			return out, fmt.Errorf("tear down session %s: %w", s.ID, err)
		}
		out.TornDown = append(out.TornDown, s.ID)
	}

	if err := uc.store.DeleteProject(ctx, project.ID); err != nil {
		return out, fmt.Errorf("delete project: %w", err)
	}
	uc.logger.Info(0, "project", "removed "+project.Name)
	return out, nil
}
