package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/runoshun/agentdeck/internal/domain"
	"gopkg.in/yaml.v3"
)

// ImportTasksInput contains the parameters for importing tasks.
type ImportTasksInput struct {
	Project string
	Content string // YAML document in the domain.TaskFile format
	DryRun  bool   // Parse and validate without creating tasks
}

// ImportTasksOutput contains the result of importing tasks.
type ImportTasksOutput struct {
	Drafts  []domain.TaskDraft
	TaskIDs []int64 // Empty in dry-run mode
}

// ImportTasks is the use case for bulk-creating tasks from a file.
type ImportTasks struct {
	store  domain.Store
	clock  domain.Clock
	logger domain.Logger
}

// NewImportTasks creates a new ImportTasks use case.
func NewImportTasks(store domain.Store, clock domain.Clock, logger domain.Logger) *ImportTasks {
	return &ImportTasks{
		store:  store,
		clock:  clock,
		logger: logger,
	}
}

// Execute validates every draft before creating any, then creates them in
// file order so the file order becomes the queue order.
func (uc *ImportTasks) Execute(ctx context.Context, in ImportTasksInput) (*ImportTasksOutput, error) {
	if strings.TrimSpace(in.Content) == "" {
		return nil, domain.ErrNoTasksInFile
	}
	var file domain.TaskFile
	if err := yaml.Unmarshal([]byte(in.Content), &file); err != nil {
		return nil, fmt.Errorf("parse task file: %w", err)
	}
	if len(file.Tasks) == 0 {
		return nil, domain.ErrNoTasksInFile
	}

	modes := make([]domain.Mode, len(file.Tasks))
	for i := range file.Tasks {
		mode, err := file.Tasks[i].Validate()
		if err != nil {
			return nil, fmt.Errorf("task %d: %w", i+1, err)
		}
		modes[i] = mode
	}

	project, err := requireProject(ctx, uc.store, in.Project)
	if err != nil {
		return nil, err
	}

	out := &ImportTasksOutput{Drafts: file.Tasks}
	if in.DryRun {
		return out, nil
	}

	for i, draft := range file.Tasks {
		task, err := createTask(ctx, uc.store, project, draft, modes[i], uc.clock)
		if err != nil {
			return out, fmt.Errorf("task %d: %w", i+1, err)
		}
		out.TaskIDs = append(out.TaskIDs, task.ID)
		uc.logger.Info(task.ID, "task", fmt.Sprintf("imported: %q", task.Title))
	}
	return out, nil
}
