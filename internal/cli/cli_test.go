package cli

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/runoshun/agentdeck/internal/app"
	"github.com/runoshun/agentdeck/internal/domain"
	"github.com/runoshun/agentdeck/internal/infra/logging"
	"github.com/runoshun/agentdeck/internal/infra/sqlitestore"
	"github.com/runoshun/agentdeck/internal/testutil"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testDeps are the mocks behind a test container.
type testDeps struct {
	terminal   *testutil.MockTerminal
	workspaces *testutil.MockWorkspaceManager
	notifier   *testutil.MockNotifier
	configs    *testutil.MockConfigManager
}

// newTestContainer creates an app.Container over a real store with mocked
// terminal, workspace and notification dependencies.
func newTestContainer(t *testing.T) (*app.Container, *testDeps) {
	t.Helper()
	home := t.TempDir()
	store, err := sqlitestore.Open(context.Background(), filepath.Join(home, "deck.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cfg := app.Config{
		Home:       home,
		StorePath:  filepath.Join(home, "deck.db"),
		SocketPath: filepath.Join(home, "deck.sock"),
		Executable: "/usr/local/bin/deck",
	}
	c := app.NewWithDeps(cfg, domain.NewDefaultConfig(), store, logging.New("", slog.LevelError))

	deps := &testDeps{
		terminal:   testutil.NewMockTerminal(),
		workspaces: testutil.NewMockWorkspaceManager(),
		notifier:   &testutil.MockNotifier{},
		configs:    testutil.NewMockConfigManager(),
	}
	c.Clock = &testutil.MockClock{NowTime: time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)}
	c.Terminal = deps.terminal
	c.Workspaces = deps.workspaces
	c.Seeder = &testutil.MockSeeder{}
	c.Differ = &testutil.MockDiffStatter{Head: "abc123", Result: domain.DiffStats{FilesChanged: 1, LinesAdded: 4, LinesRemoved: 2}}
	c.Notifier = deps.notifier
	c.ConfigManager = deps.configs
	return c, deps
}

// execute runs cmd with args and returns its standard output.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// addProject registers a project named name.
func addProject(t *testing.T, c *app.Container, name string) {
	t.Helper()
	_, err := execute(t, newProjectCommand(c), "add", name, t.TempDir())
	require.NoError(t, err)
}

// =============================================================================
// Project Command Tests
// =============================================================================

func TestProjectCommand_AddAndList(t *testing.T) {
	c, _ := newTestContainer(t)
	repo := t.TempDir()

	out, err := execute(t, newProjectCommand(c), "add", "api", repo)
	require.NoError(t, err)
	assert.Contains(t, out, "Added project api")

	out, err = execute(t, newProjectCommand(c), "list")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "api")
	assert.Contains(t, out, repo)
}

func TestProjectCommand_AddDuplicate(t *testing.T) {
	c, _ := newTestContainer(t)
	addProject(t, c, "api")

	_, err := execute(t, newProjectCommand(c), "add", "api", t.TempDir())

	assert.ErrorIs(t, err, domain.ErrProjectExists)
}

func TestProjectCommand_Remove(t *testing.T) {
	c, _ := newTestContainer(t)
	addProject(t, c, "api")

	out, err := execute(t, newProjectCommand(c), "remove", "api")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed project api")

	_, err = execute(t, newProjectCommand(c), "remove", "api")
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)
}

// =============================================================================
// Task Command Tests
// =============================================================================

func TestNewCommand_CreateTask(t *testing.T) {
	c, _ := newTestContainer(t)
	addProject(t, c, "api")

	out, err := execute(t, newNewCommand(c), "-p", "api", "--title", "Fix login", "--mode", "autonomous", "--step", "a", "--step", "b")
	require.NoError(t, err)
	assert.Contains(t, out, "Created task #1")

	task, err := c.Store.GetTask(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Fix login", task.Title)
	assert.Equal(t, domain.ModeAutonomous, task.Mode)
	assert.Equal(t, domain.StatusPending, task.Status)

	subtasks, err := c.Store.ListSubtasks(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, subtasks, 2)
}

func TestNewCommand_Errors(t *testing.T) {
	c, _ := newTestContainer(t)
	addProject(t, c, "api")

	_, err := execute(t, newNewCommand(c), "-p", "api", "--title", "x", "--mode", "yolo")
	assert.ErrorIs(t, err, domain.ErrInvalidMode)

	_, err = execute(t, newNewCommand(c), "-p", "nope", "--title", "x")
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)

	_, err = execute(t, newNewCommand(c), "-p", "api")
	assert.Error(t, err, "title is required")
}

func TestListCommand(t *testing.T) {
	c, _ := newTestContainer(t)
	addProject(t, c, "api")
	addProject(t, c, "web")
	_, err := execute(t, newNewCommand(c), "-p", "api", "--title", "First")
	require.NoError(t, err)
	_, err = execute(t, newNewCommand(c), "-p", "web", "--title", "Second")
	require.NoError(t, err)

	out, err := execute(t, newListCommand(c))
	require.NoError(t, err)
	assert.Contains(t, out, "First")
	assert.Contains(t, out, "Second")

	out, err = execute(t, newListCommand(c), "-p", "web")
	require.NoError(t, err)
	assert.NotContains(t, out, "First")
	assert.Contains(t, out, "Second")

	_, err = execute(t, newListCommand(c), "--status", "bogus")
	assert.Error(t, err)
}

func TestMoveAndRmCommands(t *testing.T) {
	c, _ := newTestContainer(t)
	addProject(t, c, "api")
	for _, title := range []string{"A", "B"} {
		_, err := execute(t, newNewCommand(c), "-p", "api", "--title", title, "--mode", "autonomous")
		require.NoError(t, err)
	}

	out, err := execute(t, newMoveCommand(c), "2", "up")
	require.NoError(t, err)
	assert.Contains(t, out, "Moved task #2 up")

	next, err := c.Store.NextEligibleTask(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, int64(2), next.ID)

	_, err = execute(t, newMoveCommand(c), "2", "sideways")
	assert.Error(t, err)

	out, err = execute(t, newRmCommand(c), "#1")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted task #1")

	_, err = c.Store.GetTask(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestImportCommand_FromStdin(t *testing.T) {
	c, _ := newTestContainer(t)
	addProject(t, c, "api")
	yaml := `tasks:
  - title: Add login page
    mode: autonomous
    subtasks:
      - Write the handler
      - Add tests
  - title: Update README
`

	cmd := newImportCommand(c)
	cmd.SetIn(strings.NewReader(yaml))
	out, err := execute(t, cmd, "-p", "api", "--dry-run", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "Dry run")
	assert.Contains(t, out, "Task 2: Update README")

	tasks, err := c.Store.ListTasks(context.Background(), domain.TaskFilter{})
	require.NoError(t, err)
	assert.Empty(t, tasks)

	cmd = newImportCommand(c)
	cmd.SetIn(strings.NewReader(yaml))
	out, err = execute(t, cmd, "-p", "api", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "Created task #1: Add login page")
	assert.Contains(t, out, "Steps: Write the handler; Add tests")
}

// =============================================================================
// Session Command Tests
// =============================================================================

func TestLaunchCommand(t *testing.T) {
	c, deps := newTestContainer(t)
	addProject(t, c, "api")
	_, err := execute(t, newNewCommand(c), "-p", "api", "--title", "Fix login")
	require.NoError(t, err)

	out, err := execute(t, newLaunchCommand(c), "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Launched task #1")
	assert.Contains(t, out, "Pane:      deck-")
	assert.Len(t, deps.terminal.Panes, 1)
	assert.Len(t, deps.workspaces.Created, 1)

	task, err := c.Store.GetTask(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, task.Status)

	_, err = execute(t, newLaunchCommand(c), "1")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestReportThenDone_EndToEnd(t *testing.T) {
	c, deps := newTestContainer(t)
	ctx := context.Background()
	addProject(t, c, "api")
	_, err := execute(t, newNewCommand(c), "-p", "api", "--title", "Fix login")
	require.NoError(t, err)
	_, err = execute(t, newLaunchCommand(c), "1")
	require.NoError(t, err)

	sess, err := c.Store.ActiveSessionForTask(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, sess)

	_, err = execute(t, newReportCommand(c), "--session", sess.ID,
		"--done", "--pr", "https://github.com/acme/api/pull/7", "--input-tokens", "100", "--output-tokens", "20")
	require.NoError(t, err)

	task, err := c.Store.GetTask(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInReview, task.Status)
	assert.Equal(t, "https://github.com/acme/api/pull/7", task.PRURL)
	assert.Equal(t, []string{"Fix login"}, deps.notifier.Notified())

	out, err := execute(t, newDoneCommand(c), "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Task #1 is done")
	assert.Contains(t, out, "Tore down session "+sess.ID)
	assert.Contains(t, out, "1 files changed, +4 -2")
	assert.Equal(t, []string{sess.Pane}, deps.terminal.Closed)
}

func TestErrorCommand(t *testing.T) {
	c, _ := newTestContainer(t)
	addProject(t, c, "api")
	_, err := execute(t, newNewCommand(c), "-p", "api", "--title", "Fix login")
	require.NoError(t, err)

	_, err = execute(t, newErrorCommand(c), "1")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = execute(t, newLaunchCommand(c), "1")
	require.NoError(t, err)

	out, err := execute(t, newErrorCommand(c), "1", "-m", "stuck")
	require.NoError(t, err)
	assert.Contains(t, out, "marked as error")

	task, err := c.Store.GetTask(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, task.Status)
}

func TestFocusCommand(t *testing.T) {
	c, deps := newTestContainer(t)
	addProject(t, c, "api")
	_, err := execute(t, newNewCommand(c), "-p", "api", "--title", "Fix login")
	require.NoError(t, err)

	_, err = execute(t, newFocusCommand(c))
	assert.Error(t, err)

	_, err = execute(t, newFocusCommand(c), "1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = execute(t, newLaunchCommand(c), "1")
	require.NoError(t, err)
	_, err = execute(t, newFocusCommand(c), "1")
	require.NoError(t, err)
	assert.Len(t, deps.terminal.Focused, 1)
}

// =============================================================================
// Report Command Tests
// =============================================================================

func withRecordingReporter(t *testing.T) *testutil.RecordingReporter {
	t.Helper()
	rec := &testutil.RecordingReporter{}
	orig := reportTargetFunc
	reportTargetFunc = func(*app.Container) domain.StatusReporter { return rec }
	t.Cleanup(func() { reportTargetFunc = orig })
	return rec
}

func TestReportCommand_AppliesInOrder(t *testing.T) {
	rec := withRecordingReporter(t)
	t.Setenv(domain.SessionEnv, "sess-1")

	_, err := execute(t, newReportCommand(nil),
		"--usage-5h", "40", "--usage-7d", "12",
		"--rate-limited", "--resets-at", "2026-01-02T15:00:00Z",
		"--cost", "0.5",
		"--done", "--pr", "https://github.com/acme/api/pull/1",
		"--status", "working", "--message", "wrapping up",
	)
	require.NoError(t, err)

	reports := rec.All()
	require.Len(t, reports, 5)

	status, ok := reports[0].(domain.StatusReport)
	require.True(t, ok)
	assert.Equal(t, "sess-1", status.SessionID)
	assert.Equal(t, domain.AgentWorking, status.Status)
	assert.Equal(t, "wrapping up", status.Message)

	completion, ok := reports[1].(domain.CompletionReport)
	require.True(t, ok)
	assert.Equal(t, "https://github.com/acme/api/pull/1", completion.PRURL)

	tokens, ok := reports[2].(domain.TokenReport)
	require.True(t, ok)
	assert.InDelta(t, 0.5, tokens.Cost, 1e-9)

	limit, ok := reports[3].(domain.RateLimitReport)
	require.True(t, ok)
	assert.Equal(t, domain.WindowFiveHour, limit.Window)
	require.NotNil(t, limit.ResetsAt)
	assert.Equal(t, time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC), limit.ResetsAt.UTC())

	usage, ok := reports[4].(domain.UsageReport)
	require.True(t, ok)
	assert.InDelta(t, 40, usage.Usage.FiveHour.Percent, 1e-9)
	assert.InDelta(t, 12, usage.Usage.SevenDay.Percent, 1e-9)
}

func TestReportCommand_StatusDoneCompletesOnce(t *testing.T) {
	rec := withRecordingReporter(t)

	_, err := execute(t, newReportCommand(nil), "--session", "s", "--status", "done", "--done")
	require.NoError(t, err)

	require.Len(t, rec.All(), 1)
	_, ok := rec.All()[0].(domain.StatusReport)
	assert.True(t, ok)
}

func TestReportCommand_Errors(t *testing.T) {
	t.Run("no session", func(t *testing.T) {
		withRecordingReporter(t)
		t.Setenv(domain.SessionEnv, "")

		_, err := execute(t, newReportCommand(nil), "--status", "working")

		assert.ErrorIs(t, err, domain.ErrNoSessionID)
	})

	t.Run("nothing to report", func(t *testing.T) {
		withRecordingReporter(t)

		_, err := execute(t, newReportCommand(nil), "--session", "s")

		assert.ErrorIs(t, err, errNothingToReport)
	})

	t.Run("invalid status", func(t *testing.T) {
		withRecordingReporter(t)

		_, err := execute(t, newReportCommand(nil), "--session", "s", "--status", "sleeping")

		assert.ErrorIs(t, err, domain.ErrInvalidAgentStatus)
	})

	t.Run("invalid reset time", func(t *testing.T) {
		withRecordingReporter(t)

		_, err := execute(t, newReportCommand(nil), "--session", "s", "--rate-limited", "--resets-at", "tomorrow")

		assert.Error(t, err)
	})
}

func TestReportCommand_UnknownSession(t *testing.T) {
	c, _ := newTestContainer(t)

	_, err := execute(t, newReportCommand(c), "--session", "missing", "--status", "working")

	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

// =============================================================================
// Setup Command Tests
// =============================================================================

func TestConfigCommand(t *testing.T) {
	c, deps := newTestContainer(t)
	deps.configs.GlobalConfigInfo = domain.ConfigInfo{Path: "/etc/global.toml"}
	deps.configs.HomeConfigInfo = domain.ConfigInfo{Path: "/home/config.toml", Exists: true}

	out, err := execute(t, newConfigCommand(c), "show")
	require.NoError(t, err)
	assert.Contains(t, out, "- /etc/global.toml (not found)")
	assert.Contains(t, out, "- /home/config.toml\n")
	assert.Contains(t, out, "[Effective Config]")
	assert.Contains(t, out, "[agent]")

	out, err = execute(t, newConfigCommand(c), "template")
	require.NoError(t, err)
	assert.Contains(t, out, `command = "claude"`)

	out, err = execute(t, newConfigCommand(c), "init", "--global")
	require.NoError(t, err)
	assert.Contains(t, out, "Created config file: /etc/global.toml")
}

func TestMigrateCommand(t *testing.T) {
	c, _ := newTestContainer(t)

	out, err := execute(t, newMigrateCommand(c))

	require.NoError(t, err)
	assert.Contains(t, out, "schema version")
}

func TestRootCommand_PrintsConfigWarnings(t *testing.T) {
	c, _ := newTestContainer(t)
	c.AppConfig.Warnings = []string{"unknown key: foo"}

	root := NewRootCommand(c, "test")
	out, err := execute(t, root, "migrate")

	require.NoError(t, err)
	assert.Contains(t, out, "Warning: unknown key: foo")
}

func TestParseTaskID(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{input: "1", want: 1},
		{input: "#42", want: 42},
		{input: "0", wantErr: true},
		{input: "-3", wantErr: true},
		{input: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseTaskID(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
