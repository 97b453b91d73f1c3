package usecase_test

import (
	"context"
	"testing"

	"github.com/runoshun/agentdeck/internal/domain"
	"github.com/runoshun/agentdeck/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTask(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.addProject(t, "demo")
	uc := usecase.NewNewTask(e.store, e.clock, e.logger)

	out, err := uc.Execute(ctx, usecase.NewTaskInput{
		Project:     "demo",
		Title:       "  Add login ",
		Description: "Use OAuth.",
		Subtasks:    []string{"backend", " frontend "},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, out.SortOrder)

	task := e.task(t, out.TaskID)
	assert.Equal(t, "Add login", task.Title)
	assert.Equal(t, domain.ModeSupervised, task.Mode)
	assert.Equal(t, domain.StatusPending, task.Status)
	subtasks, err := e.store.ListSubtasks(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, subtasks, 2)
	assert.Equal(t, "frontend", subtasks[1].Title)

	second, err := uc.Execute(ctx, usecase.NewTaskInput{Project: "demo", Title: "next", Mode: "autonomous"})
	require.NoError(t, err)
	assert.Equal(t, 2, second.SortOrder)

	_, err = uc.Execute(ctx, usecase.NewTaskInput{Project: "demo", Title: ""})
	assert.ErrorIs(t, err, domain.ErrEmptyTitle)
	_, err = uc.Execute(ctx, usecase.NewTaskInput{Project: "demo", Title: "x", Mode: "eager"})
	assert.ErrorIs(t, err, domain.ErrInvalidMode)
	_, err = uc.Execute(ctx, usecase.NewTaskInput{Project: "other", Title: "x"})
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)
}

func TestImportTasks(t *testing.T) {
	const file = `
tasks:
  - title: Set up CI
    mode: autonomous
  - title: Add login
    description: Use OAuth.
    subtasks:
      - backend
      - frontend
`
	e := newEnv(t)
	ctx := context.Background()
	e.addProject(t, "demo")
	uc := usecase.NewImportTasks(e.store, e.clock, e.logger)

	dry, err := uc.Execute(ctx, usecase.ImportTasksInput{Project: "demo", Content: file, DryRun: true})
	require.NoError(t, err)
	assert.Len(t, dry.Drafts, 2)
	assert.Empty(t, dry.TaskIDs)

	out, err := uc.Execute(ctx, usecase.ImportTasksInput{Project: "demo", Content: file})
	require.NoError(t, err)
	require.Len(t, out.TaskIDs, 2)
	assert.Equal(t, domain.ModeAutonomous, e.task(t, out.TaskIDs[0]).Mode)
	assert.Equal(t, 2, e.task(t, out.TaskIDs[1]).SortOrder)
	subtasks, err := e.store.ListSubtasks(ctx, out.TaskIDs[1])
	require.NoError(t, err)
	assert.Len(t, subtasks, 2)
}

func TestImportTasks_ValidatesBeforeCreating(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.addProject(t, "demo")
	uc := usecase.NewImportTasks(e.store, e.clock, e.logger)

	_, err := uc.Execute(ctx, usecase.ImportTasksInput{Project: "demo", Content: "tasks:\n  - title: ok\n  - title: ''\n"})
	assert.ErrorIs(t, err, domain.ErrEmptyTitle)
	_, err = uc.Execute(ctx, usecase.ImportTasksInput{Project: "demo", Content: "tasks: []\n"})
	assert.ErrorIs(t, err, domain.ErrNoTasksInFile)
	_, err = uc.Execute(ctx, usecase.ImportTasksInput{Project: "demo", Content: "tasks: [unclosed"})
	assert.Error(t, err)

	list, err := usecase.NewListTasks(e.store).Execute(ctx, usecase.ListTasksInput{})
	require.NoError(t, err)
	assert.Empty(t, list.Tasks, "nothing created")
}

func TestListTasks(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	demo := e.addProject(t, "demo")
	e.addProject(t, "other")
	a := e.newTask(t, "demo", "A", domain.ModeSupervised)
	e.newTask(t, "demo", "B", domain.ModeSupervised)
	e.newTask(t, "other", "C", domain.ModeSupervised)
	e.startTask(t, a)
	uc := usecase.NewListTasks(e.store)

	all, err := uc.Execute(ctx, usecase.ListTasksInput{})
	require.NoError(t, err)
	assert.Len(t, all.Tasks, 3)
	assert.Len(t, all.Projects, 2)

	byProject, err := uc.Execute(ctx, usecase.ListTasksInput{Project: "demo"})
	require.NoError(t, err)
	require.Len(t, byProject.Tasks, 2)
	for _, task := range byProject.Tasks {
		assert.Equal(t, demo.ID, task.ProjectID)
	}

	pending := domain.StatusPending
	filtered, err := uc.Execute(ctx, usecase.ListTasksInput{Project: "demo", Status: &pending})
	require.NoError(t, err)
	require.Len(t, filtered.Tasks, 1)
	assert.Equal(t, "B", filtered.Tasks[0].Title)
}

func TestDeleteTask(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.addProject(t, "demo")
	bound := e.newTask(t, "demo", "A", domain.ModeSupervised)
	free := e.newTask(t, "demo", "B", domain.ModeSupervised)
	e.startTask(t, bound)
	uc := usecase.NewDeleteTask(e.store, e.logger)

	assert.ErrorIs(t, uc.Execute(ctx, usecase.DeleteTaskInput{TaskID: bound}), domain.ErrTaskBusy)
	require.NoError(t, uc.Execute(ctx, usecase.DeleteTaskInput{TaskID: free}))
	assert.ErrorIs(t, uc.Execute(ctx, usecase.DeleteTaskInput{TaskID: free}), domain.ErrTaskNotFound)
}

func TestMoveTask(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.addProject(t, "demo")
	a := e.newTask(t, "demo", "A", domain.ModeAutonomous)
	b := e.newTask(t, "demo", "B", domain.ModeAutonomous)
	uc := usecase.NewMoveTask(e.store)

	require.NoError(t, uc.Execute(ctx, usecase.MoveTaskInput{TaskID: b, Up: true}))
	assert.Equal(t, 2, e.task(t, a).SortOrder)
	assert.Equal(t, 1, e.task(t, b).SortOrder)

	assert.ErrorIs(t, uc.Execute(ctx, usecase.MoveTaskInput{TaskID: b, Up: true}), domain.ErrNoNeighbor)
	assert.ErrorIs(t, uc.Execute(ctx, usecase.MoveTaskInput{TaskID: 99}), domain.ErrTaskNotFound)
}
