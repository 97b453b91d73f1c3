package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/agentdeck/internal/domain"
)

// DefaultPeekLines is the default number of lines to display.
const DefaultPeekLines = 30

// PeekSessionInput contains the parameters for peeking at a session.
type PeekSessionInput struct {
	TaskID int64
	Lines  int // Number of lines to display (0 uses default)
}

// PeekSessionOutput contains the captured pane output.
type PeekSessionOutput struct {
	Output string
	Pane   string
}

// PeekSession is the use case for viewing a task's pane without attaching.
type PeekSession struct {
	sessions domain.SessionRepository
	terminal domain.Terminal
}

// NewPeekSession creates a new PeekSession use case.
func NewPeekSession(sessions domain.SessionRepository, terminal domain.Terminal) *PeekSession {
	return &PeekSession{
		sessions: sessions,
		terminal: terminal,
	}
}

// Execute captures the last lines of the pane serving the task.
func (uc *PeekSession) Execute(ctx context.Context, in PeekSessionInput) (*PeekSessionOutput, error) {
	session, err := requireTaskSession(ctx, uc.sessions, in.TaskID)
	if err != nil {
		return nil, err
	}

	lines := in.Lines
	if lines <= 0 {
		lines = DefaultPeekLines
	}

	output, err := uc.terminal.Peek(session.Pane, lines)
	if err != nil {
		return nil, fmt.Errorf("peek pane: %w", err)
	}
	return &PeekSessionOutput{Output: output, Pane: session.Pane}, nil
}
