package tui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/runoshun/agentdeck/internal/domain"
	"github.com/runoshun/agentdeck/internal/loop"
	"github.com/runoshun/agentdeck/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func testOverview() *usecase.OverviewOutput {
	return &usecase.OverviewOutput{
		Projects: []*domain.Project{
			{ID: 2, Name: "beta"},
			{ID: 1, Name: "alpha"},
		},
		Tasks: []*domain.Task{
			{ID: 1, ProjectID: 1, Title: "Fix login", Status: domain.StatusPending, Mode: domain.ModeAutonomous},
			{ID: 2, ProjectID: 1, Title: "Add docs", Status: domain.StatusInReview, Mode: domain.ModeSupervised},
			{ID: 3, ProjectID: 2, Title: "Refactor", Status: domain.StatusInProgress, Mode: domain.ModeAutonomous, InputTokens: 1200, OutputTokens: 300},
		},
		Sessions: map[int64]*domain.Session{
			3: {ID: "s-3", Pane: "deck-3", AgentStatus: domain.AgentWorking},
		},
	}
}

func loaded(t *testing.T) *Model {
	t.Helper()
	m := New(Deps{})
	_, cmd := m.Update(MsgRefreshed{Overview: testOverview()})
	assert.Nil(t, cmd)
	return m
}

func TestUpdate_MsgRefreshed_GroupsByProject(t *testing.T) {
	m := loaded(t)

	require.Len(t, m.tasks, 3)
	// Projects are shown in overview order
	assert.Equal(t, int64(3), m.tasks[0].ID)
	assert.Equal(t, int64(1), m.tasks[1].ID)
	assert.Equal(t, int64(2), m.tasks[2].ID)
	assert.Equal(t, int64(3), m.SelectedTask().ID)
}

func TestUpdate_MsgRefreshed_KeepsSelection(t *testing.T) {
	m := loaded(t)
	m.Update(runes("j"))
	require.Equal(t, int64(1), m.SelectedTask().ID)

	ov := testOverview()
	ov.Tasks = ov.Tasks[:2] // task 3 disappears
	m.Update(MsgRefreshed{Overview: ov})

	assert.Equal(t, int64(1), m.SelectedTask().ID)
}

func TestUpdate_MsgRefreshed_ClampsCursor(t *testing.T) {
	m := loaded(t)
	m.Update(runes("j"))
	m.Update(runes("j"))
	require.Equal(t, 2, m.cursor)

	ov := testOverview()
	ov.Tasks = nil
	m.Update(MsgRefreshed{Overview: ov})

	assert.Equal(t, 0, m.cursor)
	assert.Nil(t, m.SelectedTask())
}

func TestUpdate_CursorBounds(t *testing.T) {
	m := loaded(t)

	m.Update(runes("k"))
	assert.Equal(t, 0, m.cursor)

	for range 5 {
		m.Update(runes("j"))
	}
	assert.Equal(t, 2, m.cursor)

	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 1, m.cursor)
}

func TestUpdate_Launch(t *testing.T) {
	t.Run("pending task launches", func(t *testing.T) {
		m := loaded(t)
		m.Update(runes("j")) // task 1, pending

		_, cmd := m.Update(runes("l"))

		assert.NotNil(t, cmd)
		assert.Contains(t, m.notice, "Launching #1")
	})

	t.Run("started task is rejected", func(t *testing.T) {
		m := loaded(t) // task 3, in progress

		_, cmd := m.Update(runes("l"))

		assert.Nil(t, cmd)
		assert.Contains(t, m.notice, "only pending tasks can be launched")
	})
}

func TestUpdate_Done(t *testing.T) {
	t.Run("requires review", func(t *testing.T) {
		m := loaded(t)

		_, cmd := m.Update(runes("d"))

		assert.Nil(t, cmd)
		assert.Equal(t, ModeNormal, m.Mode())
		assert.Contains(t, m.notice, "not in review")
	})

	t.Run("confirm", func(t *testing.T) {
		m := loaded(t)
		m.Update(runes("j"))
		m.Update(runes("j")) // task 2, in review

		_, cmd := m.Update(runes("d"))
		assert.Nil(t, cmd)
		assert.Equal(t, ModeConfirmDone, m.Mode())

		_, cmd = m.Update(runes("y"))
		assert.NotNil(t, cmd)
		assert.Equal(t, ModeNormal, m.Mode())
	})

	t.Run("cancel", func(t *testing.T) {
		m := loaded(t)
		m.Update(runes("j"))
		m.Update(runes("j"))
		m.Update(runes("d"))

		_, cmd := m.Update(runes("n"))

		assert.Nil(t, cmd)
		assert.Equal(t, ModeNormal, m.Mode())
		assert.Equal(t, "Cancelled", m.notice)
	})
}

func TestUpdate_Focus(t *testing.T) {
	t.Run("attaches to the session pane", func(t *testing.T) {
		var pane string
		m := New(Deps{AttachArgs: func(p string) []string {
			pane = p
			return []string{"attach", "-t", p}
		}})
		m.Update(MsgRefreshed{Overview: testOverview()})

		_, cmd := m.Update(runes("f"))

		assert.NotNil(t, cmd)
		assert.Equal(t, "deck-3", pane)
	})

	t.Run("no session", func(t *testing.T) {
		m := loaded(t)
		m.Update(runes("j"))

		_, cmd := m.Update(runes("f"))

		assert.Nil(t, cmd)
		assert.Contains(t, m.notice, "no active session")
	})
}

func TestUpdate_Quit(t *testing.T) {
	m := loaded(t)

	_, cmd := m.Update(runes("q"))

	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestUpdate_MsgTick_SkipsWhileTicking(t *testing.T) {
	m := New(Deps{Loop: &loop.Loop{}, Interval: time.Hour})

	_, cmd := m.Update(MsgTick{})
	assert.NotNil(t, cmd)
	assert.True(t, m.ticking)

	_, cmd = m.Update(MsgTick{})
	assert.NotNil(t, cmd) // only the next tick is scheduled
	assert.True(t, m.ticking)

	m.Update(MsgTicked{Result: &loop.TickResult{}})
	assert.False(t, m.ticking)
}

func TestUpdate_MsgTicked(t *testing.T) {
	t.Run("reports merged tasks", func(t *testing.T) {
		m := loaded(t)

		_, cmd := m.Update(MsgTicked{Result: &loop.TickResult{Done: []int64{2, 5}}})

		assert.NotNil(t, cmd)
		assert.Equal(t, "Merged: #2, #5", m.notice)
	})

	t.Run("reports resumed feeding", func(t *testing.T) {
		m := loaded(t)

		m.Update(MsgTicked{Result: &loop.TickResult{Resumed: true}})

		assert.Contains(t, m.notice, "feeding resumed")
	})

	t.Run("keeps the error", func(t *testing.T) {
		m := loaded(t)
		boom := errors.New("boom")

		m.Update(MsgTicked{Err: boom})

		assert.ErrorIs(t, m.err, boom)
	})
}

func TestUpdate_KeyClearsError(t *testing.T) {
	m := loaded(t)
	m.Update(MsgError{Err: errors.New("boom")})
	require.Error(t, m.err)

	m.Update(runes("j"))

	assert.NoError(t, m.err)
}

func TestFormatIDs(t *testing.T) {
	assert.Equal(t, "", formatIDs(nil))
	assert.Equal(t, "#1", formatIDs([]int64{1}))
	assert.Equal(t, "#1, #2", formatIDs([]int64{1, 2}))
}
