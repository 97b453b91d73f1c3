package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/runoshun/agentdeck/internal/domain"
	"github.com/runoshun/agentdeck/internal/usecase"
)

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case MsgTick:
		if m.deps.Loop == nil {
			return m, tea.Batch(m.refresh(), m.scheduleTick())
		}
		// Ticks never overlap; a slow tick skips the next one.
		if m.ticking {
			return m, m.scheduleTick()
		}
		m.ticking = true
		return m, tea.Batch(m.runTick(), m.scheduleTick())

	case MsgTicked:
		m.ticking = false
		if msg.Err != nil {
			m.err = msg.Err
		}
		if r := msg.Result; r != nil {
			switch {
			case len(r.Done) > 0:
				m.notice = fmt.Sprintf("Merged: %s", formatIDs(r.Done))
			case len(r.Fed) > 0:
				m.notice = fmt.Sprintf("Fed: %s", formatIDs(r.Fed))
			case r.Resumed:
				m.notice = "Rate limit reset, feeding resumed"
			}
		}
		return m, m.refresh()

	case MsgRefreshed:
		m.applyOverview(msg.Overview)
		return m, nil

	case MsgLaunched:
		m.notice = fmt.Sprintf("Launched #%d in %s", msg.TaskID, msg.Pane)
		return m, m.refresh()

	case MsgMarkedDone:
		m.notice = fmt.Sprintf("Marked #%d done", msg.TaskID)
		return m, m.refresh()

	case MsgAttachDone:
		if msg.Err != nil {
			m.err = msg.Err
		}
		return m, m.refresh()

	case MsgError:
		m.err = msg.Err
		return m, nil
	}

	return m, nil
}

// applyOverview replaces the displayed state, keeping the selected task.
func (m *Model) applyOverview(out *usecase.OverviewOutput) {
	var selected int64
	if t := m.SelectedTask(); t != nil {
		selected = t.ID
	}

	m.overview = out
	m.tasks = m.tasks[:0]
	for _, p := range out.Projects {
		for _, t := range out.Tasks {
			if t.ProjectID == p.ID {
				m.tasks = append(m.tasks, t)
			}
		}
	}

	m.cursor = min(m.cursor, max(len(m.tasks)-1, 0))
	for i, t := range m.tasks {
		if t.ID == selected {
			m.cursor = i
			break
		}
	}
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = nil
	if m.mode == ModeConfirmDone {
		return m.handleConfirmMode(msg)
	}
	return m.handleNormalMode(msg)
}

func (m *Model) handleNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.tasks)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, m.refresh()

	case key.Matches(msg, m.keys.Launch):
		task := m.SelectedTask()
		if task == nil {
			return m, nil
		}
		if task.Status != domain.StatusPending {
			m.notice = fmt.Sprintf("#%d is %s; only pending tasks can be launched", task.ID, task.Status.Display())
			return m, nil
		}
		m.notice = fmt.Sprintf("Launching #%d...", task.ID)
		return m, m.launchTask(task.ID)

	case key.Matches(msg, m.keys.Done):
		task := m.SelectedTask()
		if task == nil {
			return m, nil
		}
		if task.Status != domain.StatusInReview {
			m.notice = fmt.Sprintf("#%d is not in review", task.ID)
			return m, nil
		}
		m.mode = ModeConfirmDone
		return m, nil

	case key.Matches(msg, m.keys.Focus):
		task := m.SelectedTask()
		if task == nil {
			return m, nil
		}
		sess := m.sessionFor(task.ID)
		if sess == nil {
			m.notice = fmt.Sprintf("#%d has no active session", task.ID)
			return m, nil
		}
		return m, m.attachToPane(sess.Pane)
	}

	return m, nil
}

func (m *Model) handleConfirmMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = ModeNormal
	task := m.SelectedTask()
	switch msg.String() {
	case "y", "Y", "enter":
		if task == nil {
			return m, nil
		}
		return m, m.markDone(task.ID)
	default:
		m.notice = "Cancelled"
		return m, nil
	}
}

func (m *Model) sessionFor(taskID int64) *domain.Session {
	if m.overview == nil {
		return nil
	}
	return m.overview.Sessions[taskID]
}

func formatIDs(ids []int64) string {
	s := ""
	for i, id := range ids {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("#%d", id)
	}
	return s
}
