// Package tui provides the terminal dashboard.
package tui

import (
	"context"
	"io"
	"os/exec"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/runoshun/agentdeck/internal/domain"
	"github.com/runoshun/agentdeck/internal/loop"
	"github.com/runoshun/agentdeck/internal/usecase"
)

// DefaultTickInterval is used when Deps.Interval is zero.
const DefaultTickInterval = 2 * time.Second

// Deps holds what the dashboard drives.
// Fields are ordered to minimize memory padding.
type Deps struct {
	Overview   *usecase.Overview
	Loop       *loop.Loop // nil when another process runs the loop
	Launch     *usecase.LaunchTask
	MarkDone   *usecase.MarkDone
	Clock      domain.Clock
	AttachArgs func(pane string) []string // tmux arguments attaching to a pane
	Interval   time.Duration
}

// Mode represents the current interaction mode.
type Mode int

// Interaction modes.
const (
	ModeNormal Mode = iota
	ModeConfirmDone
)

// Model is the main bubbletea model of the dashboard.
// Fields are ordered to minimize memory padding.
type Model struct {
	deps     Deps
	overview *usecase.OverviewOutput
	err      error

	// Tasks in display order (grouped by project)
	tasks []*domain.Task

	keys   KeyMap
	styles Styles
	help   help.Model

	notice  string
	cursor  int
	width   int
	mode    Mode
	ticking bool // A loop tick is in flight
}

// New creates a new Model.
func New(deps Deps) *Model {
	if deps.Interval <= 0 {
		deps.Interval = DefaultTickInterval
	}
	return &Model{
		deps:   deps,
		keys:   DefaultKeyMap(),
		styles: DefaultStyles(),
		help:   help.New(),
		mode:   ModeNormal,
	}
}

// Init initializes the model and returns the initial command.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.refresh(), m.scheduleTick())
}

// SelectedTask returns the task under the cursor, or nil if none.
func (m *Model) SelectedTask() *domain.Task {
	if m.cursor < 0 || m.cursor >= len(m.tasks) {
		return nil
	}
	return m.tasks[m.cursor]
}

// Mode returns the current interaction mode.
func (m *Model) Mode() Mode {
	return m.mode
}

func (m *Model) scheduleTick() tea.Cmd {
	return tea.Tick(m.deps.Interval, func(time.Time) tea.Msg {
		return MsgTick{}
	})
}

// refresh returns a command that reloads the overview.
func (m *Model) refresh() tea.Cmd {
	return func() tea.Msg {
		out, err := m.deps.Overview.Execute(context.Background())
		if err != nil {
			return MsgError{Err: err}
		}
		return MsgRefreshed{Overview: out}
	}
}

// runTick returns a command that runs one control loop tick.
func (m *Model) runTick() tea.Cmd {
	return func() tea.Msg {
		res, err := m.deps.Loop.Tick(context.Background())
		return MsgTicked{Result: res, Err: err}
	}
}

// launchTask returns a command that launches a task.
func (m *Model) launchTask(taskID int64) tea.Cmd {
	return func() tea.Msg {
		out, err := m.deps.Launch.Execute(context.Background(), usecase.LaunchTaskInput{TaskID: taskID})
		if err != nil {
			return MsgError{Err: err}
		}
		return MsgLaunched{TaskID: taskID, Pane: out.Pane}
	}
}

// markDone returns a command that confirms a task done.
func (m *Model) markDone(taskID int64) tea.Cmd {
	return func() tea.Msg {
		if _, err := m.deps.MarkDone.Execute(context.Background(), usecase.MarkDoneInput{TaskID: taskID}); err != nil {
			return MsgError{Err: err}
		}
		return MsgMarkedDone{TaskID: taskID}
	}
}

// tmuxAttachCmd implements tea.ExecCommand for attaching to a pane.
type tmuxAttachCmd struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	args   []string
}

func (c *tmuxAttachCmd) Run() error {
	// #nosec G204 - args are built from the configured socket and a stored pane name
	cmd := exec.Command("tmux", c.args...)
	cmd.Stdin = c.stdin
	cmd.Stdout = c.stdout
	cmd.Stderr = c.stderr
	return cmd.Run()
}

func (c *tmuxAttachCmd) SetStdin(r io.Reader)  { c.stdin = r }
func (c *tmuxAttachCmd) SetStdout(w io.Writer) { c.stdout = w }
func (c *tmuxAttachCmd) SetStderr(w io.Writer) { c.stderr = w }

// attachToPane returns a tea.Cmd that attaches to a session pane.
// The overview is reloaded after the user detaches.
func (m *Model) attachToPane(pane string) tea.Cmd {
	return tea.Exec(&tmuxAttachCmd{args: m.deps.AttachArgs(pane)}, func(err error) tea.Msg {
		return MsgAttachDone{Err: err}
	})
}
