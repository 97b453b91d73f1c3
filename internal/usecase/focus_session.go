package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/agentdeck/internal/domain"
)

// FocusSessionInput contains the parameters for focusing a session.
// Either TaskID or SessionID identifies the session.
type FocusSessionInput struct {
	SessionID string
	TaskID    int64
}

// FocusSessionOutput contains the focused pane.
type FocusSessionOutput struct {
	Pane string
}

// FocusSession is the use case for switching the terminal to a session's pane.
type FocusSession struct {
	sessions domain.SessionRepository
	terminal domain.Terminal
}

// NewFocusSession creates a new FocusSession use case.
func NewFocusSession(sessions domain.SessionRepository, terminal domain.Terminal) *FocusSession {
	return &FocusSession{
		sessions: sessions,
		terminal: terminal,
	}
}

// Execute focuses the pane.
func (uc *FocusSession) Execute(ctx context.Context, in FocusSessionInput) (*FocusSessionOutput, error) {
	var (
		session *domain.Session
		err     error
	)
	if in.SessionID == "" && in.TaskID != 0 {
		session, err = requireTaskSession(ctx, uc.sessions, in.TaskID)
	} else {
		session, err = requireActiveSession(ctx, uc.sessions, in.SessionID)
		if err != nil {
			return nil, err
		}
	}

	if err := uc.terminal.Focus(session.Pane); err != nil {
		return nil, fmt.Errorf("focus pane: %w", err)
	}
	return &FocusSessionOutput{Pane: session.Pane}, nil
}
