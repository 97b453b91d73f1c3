// Package domain contains core business entities and interfaces.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// Mode decides whether a task chains into the next queued task on completion.
type Mode string

const (
	ModeAutonomous Mode = "autonomous"
	ModeSupervised Mode = "supervised"
)

// ParseMode converts a string into a Mode. Empty defaults to supervised.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", string(ModeSupervised):
		return ModeSupervised, nil
	case string(ModeAutonomous):
		return ModeAutonomous, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// Task represents a unit of work queued against a project.
// Fields are ordered to minimize memory padding.
type Task struct {
	Created      time.Time  `db:"created_at"`
	StartedAt    *time.Time `db:"started_at"`
	CompletedAt  *time.Time `db:"completed_at"`
	SessionID    *string    `db:"session_id"` // Session currently (or last) executing the task
	Title        string     `db:"title"`
	Description  string     `db:"description"` // Free-text prompt
	Status       Status     `db:"status"`
	Mode         Mode       `db:"mode"`
	PRURL        string     `db:"pr_url"`
	Cost         float64    `db:"cost_usd"`
	ID           int64      `db:"id"`
	ProjectID    int64      `db:"project_id"`
	InputTokens  int64      `db:"input_tokens"`
	OutputTokens int64      `db:"output_tokens"`
	SortOrder    int        `db:"sort_order"`
}

// IsAutonomous reports whether completion chains into the next queued task.
func (t *Task) IsAutonomous() bool {
	return t.Mode == ModeAutonomous
}

// SubtaskStatus is the lifecycle of a single step within a task.
type SubtaskStatus string

const (
	SubtaskPending    SubtaskStatus = "pending"
	SubtaskInProgress SubtaskStatus = "in_progress"
	SubtaskDone       SubtaskStatus = "done"
)

// Subtask is an ordered step of a task, fed to the session one at a time.
type Subtask struct {
	Title     string        `db:"title"`
	Status    SubtaskStatus `db:"status"`
	ID        int64         `db:"id"`
	TaskID    int64         `db:"task_id"`
	SortOrder int           `db:"sort_order"`
}

// BuildPrompt composes the text handed to the agent for a task.
// When current is non-nil it is appended as the active step.
func BuildPrompt(t *Task, subtasks []*Subtask, current *Subtask) string {
	var b strings.Builder
	b.WriteString(t.Title)
	if d := strings.TrimSpace(t.Description); d != "" {
		b.WriteString("\n\n")
		b.WriteString(d)
	}
	if current == nil || len(subtasks) == 0 {
		return b.String()
	}

	pos := 0
	for i, s := range subtasks {
		if s.ID == current.ID {
			pos = i + 1
			break
		}
	}
	fmt.Fprintf(&b, "\n\nCurrent step (%d/%d): %s", pos, len(subtasks), current.Title)
	b.WriteString("\nReport completion when this step is finished; the next step will follow.")
	return b.String()
}
