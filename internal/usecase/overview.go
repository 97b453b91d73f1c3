package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/agentdeck/internal/domain"
)

// OverviewOutput is a consistent-enough view of the whole deck for display.
// Fields are ordered to minimize memory padding.
type OverviewOutput struct {
	Projects  []*domain.Project
	Tasks     []*domain.Task            // Ordered by project, then queue order
	Sessions  map[int64]*domain.Session // Active session per bound task
	RateLimit *domain.RateLimitState
}

// Overview is the use case for reading everything the dashboard shows.
type Overview struct {
	store domain.Store
}

// NewOverview creates a new Overview use case.
func NewOverview(store domain.Store) *Overview {
	return &Overview{store: store}
}

// Execute reads projects, tasks, active sessions and the rate-limit gate.
func (uc *Overview) Execute(ctx context.Context) (*OverviewOutput, error) {
	projects, err := uc.store.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	tasks, err := uc.store.ListTasks(ctx, domain.TaskFilter{})
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	sessions, err := uc.store.ListSessions(ctx, domain.SessionFilter{ActiveOnly: true})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	gate, err := uc.store.GetRateLimit(ctx)
	if err != nil {
		return nil, fmt.Errorf("get rate limit: %w", err)
	}

	byTask := make(map[int64]*domain.Session, len(sessions))
	for _, s := range sessions {
		if s.TaskID != nil {
			byTask[*s.TaskID] = s
		}
	}
	return &OverviewOutput{
		Projects:  projects,
		Tasks:     tasks,
		Sessions:  byTask,
		RateLimit: gate,
	}, nil
}
