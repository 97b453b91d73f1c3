package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeSupervised, m)

	m, err = ParseMode("autonomous")
	require.NoError(t, err)
	assert.Equal(t, ModeAutonomous, m)

	_, err = ParseMode("auto")
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestBuildPrompt(t *testing.T) {
	task := &Task{Title: "Add login", Description: "Use OAuth.\n"}

	t.Run("without subtasks", func(t *testing.T) {
		assert.Equal(t, "Add login\n\nUse OAuth.", BuildPrompt(task, nil, nil))
	})

	t.Run("empty description", func(t *testing.T) {
		assert.Equal(t, "Fix typo", BuildPrompt(&Task{Title: "Fix typo"}, nil, nil))
	})

	t.Run("with current subtask", func(t *testing.T) {
		subs := []*Subtask{
			{ID: 1, Title: "schema"},
			{ID: 2, Title: "handler"},
			{ID: 3, Title: "tests"},
		}
		got := BuildPrompt(task, subs, subs[1])
		assert.Contains(t, got, "Add login\n\nUse OAuth.")
		assert.Contains(t, got, "Current step (2/3): handler")
	})
}

func TestSession_IsBoundTo(t *testing.T) {
	id := int64(7)
	s := &Session{TaskID: &id}
	assert.True(t, s.IsBoundTo(7))
	assert.False(t, s.IsBoundTo(8))
	assert.False(t, (&Session{}).IsBoundTo(7))
	assert.True(t, s.IsActive())

	now := time.Now()
	s.ClosedAt = &now
	assert.False(t, s.IsActive())
}

func TestRateLimitState_Limited(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	later := now.Add(time.Hour)
	earlier := now.Add(-time.Hour)

	var nilState *RateLimitState
	assert.False(t, nilState.Limited(now))
	assert.False(t, (&RateLimitState{}).Limited(now))
	assert.True(t, (&RateLimitState{Paused: true}).Limited(now))
	assert.True(t, (&RateLimitState{Paused: true, ResetsAt: &later}).Limited(now))
	assert.False(t, (&RateLimitState{Paused: true, ResetsAt: &earlier}).Limited(now))

	assert.True(t, (&RateLimitState{Paused: true, ResetsAt: &earlier}).Expired(now))
	assert.False(t, (&RateLimitState{Paused: true}).Expired(now))
}

func TestUsageSnapshot_Exhausted(t *testing.T) {
	reset5 := time.Date(2026, 1, 1, 17, 0, 0, 0, time.UTC)
	reset7 := time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC)

	_, _, ok := UsageSnapshot{FiveHour: UsageWindow{Percent: 99.9}}.Exhausted()
	assert.False(t, ok)

	w, at, ok := UsageSnapshot{FiveHour: UsageWindow{Percent: 100, ResetsAt: &reset5}}.Exhausted()
	assert.True(t, ok)
	assert.Equal(t, WindowFiveHour, w)
	assert.Equal(t, &reset5, at)

	w, at, ok = UsageSnapshot{
		FiveHour: UsageWindow{Percent: 100, ResetsAt: &reset5},
		SevenDay: UsageWindow{Percent: 104, ResetsAt: &reset7},
	}.Exhausted()
	assert.True(t, ok)
	assert.Equal(t, WindowSevenDay, w)
	assert.Equal(t, &reset7, at)
}
