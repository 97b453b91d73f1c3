package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/runoshun/agentdeck/internal/domain"
)

// NewTaskInput contains the parameters for creating a new task.
// Fields are ordered to minimize memory padding.
type NewTaskInput struct {
	Project     string   // Project name (required)
	Title       string   // Task title (required)
	Description string   // Prompt text (optional)
	Mode        string   // autonomous or supervised (default)
	Subtasks    []string // Ordered steps (optional)
}

// NewTaskOutput contains the result of creating a new task.
type NewTaskOutput struct {
	TaskID    int64
	SortOrder int
}

// NewTask is the use case for queueing a new task.
type NewTask struct {
	store  domain.Store
	clock  domain.Clock
	logger domain.Logger
}

// NewNewTask creates a new NewTask use case.
func NewNewTask(store domain.Store, clock domain.Clock, logger domain.Logger) *NewTask {
	return &NewTask{
		store:  store,
		clock:  clock,
		logger: logger,
	}
}

// Execute creates the task at the end of its project's queue.
func (uc *NewTask) Execute(ctx context.Context, in NewTaskInput) (*NewTaskOutput, error) {
	draft := domain.TaskDraft{
		Title:       in.Title,
		Description: in.Description,
		Mode:        in.Mode,
		Subtasks:    in.Subtasks,
	}
	mode, err := draft.Validate()
	if err != nil {
		return nil, err
	}

	project, err := requireProject(ctx, uc.store, in.Project)
	if err != nil {
		return nil, err
	}

	task, err := createTask(ctx, uc.store, project, draft, mode, uc.clock)
	if err != nil {
		return nil, err
	}

	uc.logger.Info(task.ID, "task", fmt.Sprintf("created: %q (%s)", task.Title, task.Mode))
	return &NewTaskOutput{TaskID: task.ID, SortOrder: task.SortOrder}, nil
}

func createTask(ctx context.Context, tasks domain.TaskRepository, project *domain.Project, draft domain.TaskDraft, mode domain.Mode, clock domain.Clock) (*domain.Task, error) {
	task := &domain.Task{
		ProjectID:   project.ID,
		Title:       strings.TrimSpace(draft.Title),
		Description: draft.Description,
		Status:      domain.StatusPending,
		Mode:        mode,
		Created:     clock.Now(),
	}
	subtasks := make([]string, 0, len(draft.Subtasks))
	for _, s := range draft.Subtasks {
		subtasks = append(subtasks, strings.TrimSpace(s))
	}
	if err := tasks.CreateTask(ctx, task, subtasks); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}
