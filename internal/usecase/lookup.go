package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/agentdeck/internal/domain"
)

func requireProject(ctx context.Context, projects domain.ProjectRepository, name string) (*domain.Project, error) {
	project, err := projects.GetProjectByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	if project == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrProjectNotFound, name)
	}
	return project, nil
}

func requireTask(ctx context.Context, tasks domain.TaskRepository, id int64) (*domain.Task, error) {
	task, err := tasks.GetTask(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if task == nil {
		return nil, fmt.Errorf("%w: %d", domain.ErrTaskNotFound, id)
	}
	return task, nil
}

// requireActiveSession returns the session or ErrSessionNotFound /
// ErrSessionClosed. Unknown sessions never mutate anything.
func requireActiveSession(ctx context.Context, sessions domain.SessionRepository, id string) (*domain.Session, error) {
	if id == "" {
		return nil, domain.ErrNoSessionID
	}
	session, err := sessions.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	if !session.IsActive() {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionClosed, id)
	}
	return session, nil
}

func requireTaskSession(ctx context.Context, sessions domain.SessionRepository, taskID int64) (*domain.Session, error) {
	session, err := sessions.ActiveSessionForTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("get session of task: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("%w: task %d has no active session", domain.ErrSessionNotFound, taskID)
	}
	return session, nil
}
