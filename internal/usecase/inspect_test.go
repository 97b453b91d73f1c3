package usecase_test

import (
	"context"
	"testing"

	"github.com/runoshun/agentdeck/internal/domain"
	"github.com/runoshun/agentdeck/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShowTask(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	project := e.addProject(t, "demo")
	id := e.newTask(t, "demo", "Add login", domain.ModeAutonomous, "handler", "tests")

	uc := usecase.NewShowTask(e.store)
	out, err := uc.Execute(ctx, usecase.ShowTaskInput{TaskID: id})
	require.NoError(t, err)
	assert.Equal(t, "Add login", out.Task.Title)
	assert.Equal(t, project.ID, out.Project.ID)
	assert.Nil(t, out.Session, "never launched")
	require.Len(t, out.Subtasks, 2)
	assert.Equal(t, "handler", out.Subtasks[0].Title)

	launched := e.startTask(t, id)
	out, err = uc.Execute(ctx, usecase.ShowTaskInput{TaskID: id})
	require.NoError(t, err)
	require.NotNil(t, out.Session)
	assert.Equal(t, launched.SessionID, out.Session.ID)
	assert.Equal(t, domain.SubtaskInProgress, out.Subtasks[0].Status)

	_, err = uc.Execute(ctx, usecase.ShowTaskInput{TaskID: 42})
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestPeekSession(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.addProject(t, "demo")
	id := e.newTask(t, "demo", "A", domain.ModeSupervised)

	uc := usecase.NewPeekSession(e.store, e.terminal)
	_, err := uc.Execute(ctx, usecase.PeekSessionInput{TaskID: id})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	launched := e.startTask(t, id)
	e.terminal.Output = map[string]string{launched.Pane: "> thinking"}

	out, err := uc.Execute(ctx, usecase.PeekSessionInput{TaskID: id})
	require.NoError(t, err)
	assert.Equal(t, "> thinking", out.Output)
	assert.Equal(t, launched.Pane, out.Pane)
}

func TestSendKeys(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.addProject(t, "demo")
	id := e.newTask(t, "demo", "A", domain.ModeSupervised)
	launched := e.startTask(t, id)

	uc := usecase.NewSendKeys(e.store, e.terminal, e.logger)
	require.NoError(t, uc.Execute(ctx, usecase.SendKeysInput{TaskID: id, Text: "also update the docs"}))

	sent := e.terminal.SentTo(launched.Pane)
	require.NotEmpty(t, sent)
	assert.Equal(t, "also update the docs", sent[len(sent)-1])

	assert.Error(t, uc.Execute(ctx, usecase.SendKeysInput{TaskID: id}))

	other := e.newTask(t, "demo", "B", domain.ModeSupervised)
	assert.ErrorIs(t, uc.Execute(ctx, usecase.SendKeysInput{TaskID: other, Text: "hi"}), domain.ErrSessionNotFound)
}

func TestPruneTasks(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.addProject(t, "demo")
	e.addProject(t, "web")
	done := e.newTask(t, "demo", "Finished", domain.ModeSupervised)
	pending := e.newTask(t, "demo", "Queued", domain.ModeSupervised)
	otherDone := e.newTask(t, "web", "Also finished", domain.ModeSupervised)

	for _, id := range []int64{done, otherDone} {
		launched := e.startTask(t, id)
		_, err := e.completion.Execute(ctx, domain.CompletionReport{SessionID: launched.SessionID})
		require.NoError(t, err)
		_, err = e.markDone.Execute(ctx, usecase.MarkDoneInput{TaskID: id})
		require.NoError(t, err)
	}

	uc := usecase.NewPruneTasks(e.store, e.logger)

	out, err := uc.Execute(ctx, usecase.PruneTasksInput{Project: "demo", DryRun: true})
	require.NoError(t, err)
	require.Len(t, out.Deleted, 1)
	assert.Equal(t, done, out.Deleted[0].ID)
	e.task(t, done)

	out, err = uc.Execute(ctx, usecase.PruneTasksInput{})
	require.NoError(t, err)
	assert.Len(t, out.Deleted, 2)
	assert.Empty(t, out.Skipped)

	remaining, err := e.store.ListTasks(ctx, domain.TaskFilter{})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, pending, remaining[0].ID)

	_, err = uc.Execute(ctx, usecase.PruneTasksInput{Project: "nope"})
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)
}

func TestShowDiff(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.addProject(t, "demo")
	id := e.newTask(t, "demo", "A", domain.ModeSupervised)

	uc := usecase.NewShowDiff(e.store, e.differ)
	_, err := uc.Execute(ctx, usecase.ShowDiffInput{TaskID: id})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	launched := e.startTask(t, id)
	out, err := uc.Execute(ctx, usecase.ShowDiffInput{TaskID: id})
	require.NoError(t, err)
	assert.False(t, out.Final)
	assert.Equal(t, launched.Workspace, out.Workspace)
	assert.Equal(t, "abc123", out.BaseCommit)
	assert.Equal(t, 10, out.Stats.LinesAdded)

	_, err = e.teardown.Execute(ctx, usecase.TeardownSessionInput{SessionID: launched.SessionID})
	require.NoError(t, err)
	e.differ.Result = domain.DiffStats{}

	out, err = uc.Execute(ctx, usecase.ShowDiffInput{TaskID: id})
	require.NoError(t, err)
	assert.True(t, out.Final)
	assert.Equal(t, 2, out.Stats.FilesChanged)
}
