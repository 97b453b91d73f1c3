package usecase_test

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/runoshun/agentdeck/internal/domain"
	"github.com/runoshun/agentdeck/internal/infra/sqlitestore"
	"github.com/runoshun/agentdeck/internal/testutil"
	"github.com/runoshun/agentdeck/internal/usecase"
	"github.com/stretchr/testify/require"
)

// env wires the use cases over a real store and mocked collaborators.
type env struct {
	store      *sqlitestore.Store
	terminal   *testutil.MockTerminal
	workspaces *testutil.MockWorkspaceManager
	seeder     *testutil.MockSeeder
	differ     *testutil.MockDiffStatter
	notifier   *testutil.MockNotifier
	clock      *testutil.MockClock
	logger     *testutil.RecordingLogger

	launch     *usecase.LaunchTask
	teardown   *usecase.TeardownSession
	feed       *usecase.FeedNext
	completion *usecase.ReportCompletion
	applyUsage *usecase.ApplyUsage
	channel    *usecase.StatusChannel
	markDone   *usecase.MarkDone

	home string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	home := t.TempDir()
	store, err := sqlitestore.Open(context.Background(), filepath.Join(home, "deck.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	e := &env{
		store:      store,
		terminal:   testutil.NewMockTerminal(),
		workspaces: testutil.NewMockWorkspaceManager(),
		seeder:     &testutil.MockSeeder{},
		differ:     &testutil.MockDiffStatter{Head: "abc123", Result: domain.DiffStats{FilesChanged: 2, LinesAdded: 10, LinesRemoved: 3}},
		notifier:   &testutil.MockNotifier{},
		clock:      &testutil.MockClock{NowTime: time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)},
		logger:     &testutil.RecordingLogger{},
		home:       home,
	}

	e.launch = usecase.NewLaunchTask(store, e.terminal, e.workspaces, e.seeder, e.differ, e.clock, e.logger,
		usecase.LaunchOptions{Home: home, AgentCommand: "claude", DeckBin: "/usr/local/bin/deck"})
	var seq atomic.Int64
	e.launch.SetIDGenerator(func() string {
		return fmt.Sprintf("%08d-0000-4000-8000-000000000000", seq.Add(1))
	})

	e.teardown = usecase.NewTeardownSession(store, e.terminal, e.workspaces, e.differ, e.clock, e.logger, home)
	e.feed = usecase.NewFeedNext(store, e.terminal, e.clock, e.logger)
	e.completion = usecase.NewReportCompletion(store, e.terminal, e.notifier, e.feed, e.clock, e.logger)
	e.applyUsage = usecase.NewApplyUsage(store, e.clock, e.logger)
	e.channel = usecase.NewStatusChannel(
		usecase.NewReportStatus(store, e.completion, e.clock),
		e.completion,
		usecase.NewReportTokens(store, e.logger),
		usecase.NewReportRateLimit(store, e.clock, e.logger),
		usecase.NewReportUsage(store, e.applyUsage),
	)
	e.markDone = usecase.NewMarkDone(store, e.teardown, e.logger)
	return e
}

func (e *env) addProject(t *testing.T, name string) *domain.Project {
	t.Helper()
	out, err := usecase.NewAddProject(e.store, e.clock, e.logger).Execute(context.Background(), usecase.AddProjectInput{
		Name:     name,
		RepoPath: t.TempDir(),
	})
	require.NoError(t, err)
	return out.Project
}

func (e *env) newTask(t *testing.T, project, title string, mode domain.Mode, subtasks ...string) int64 {
	t.Helper()
	out, err := usecase.NewNewTask(e.store, e.clock, e.logger).Execute(context.Background(), usecase.NewTaskInput{
		Project:  project,
		Title:    title,
		Mode:     string(mode),
		Subtasks: subtasks,
	})
	require.NoError(t, err)
	return out.TaskID
}

func (e *env) startTask(t *testing.T, taskID int64) *usecase.LaunchTaskOutput {
	t.Helper()
	out, err := e.launch.Execute(context.Background(), usecase.LaunchTaskInput{TaskID: taskID})
	require.NoError(t, err)
	return out
}

func (e *env) task(t *testing.T, id int64) *domain.Task {
	t.Helper()
	task, err := e.store.GetTask(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, task)
	return task
}

func (e *env) session(t *testing.T, id string) *domain.Session {
	t.Helper()
	s, err := e.store.GetSession(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, s)
	return s
}

func (e *env) hasLog(substr string) bool {
	for _, entry := range e.logger.Logged() {
		if strings.Contains(entry, substr) {
			return true
		}
	}
	return false
}
