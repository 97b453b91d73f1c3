package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/runoshun/agentdeck/internal/domain"
)

var errEmptyText = errors.New("text cannot be empty")

// SendKeysInput contains the parameters for sending text to a session.
// Fields are ordered to minimize memory padding.
type SendKeysInput struct {
	Text   string
	TaskID int64
}

// SendKeys is the use case for typing a message into a task's pane.
type SendKeys struct {
	sessions domain.SessionRepository
	terminal domain.Terminal
	logger   domain.Logger
}

// NewSendKeys creates a new SendKeys use case.
func NewSendKeys(sessions domain.SessionRepository, terminal domain.Terminal, logger domain.Logger) *SendKeys {
	return &SendKeys{
		sessions: sessions,
		terminal: terminal,
		logger:   logger,
	}
}

// Execute sends the text followed by Enter to the pane serving the task.
func (uc *SendKeys) Execute(ctx context.Context, in SendKeysInput) error {
	if in.Text == "" {
		return errEmptyText
	}
	session, err := requireTaskSession(ctx, uc.sessions, in.TaskID)
	if err != nil {
		return err
	}
	if err := uc.terminal.Send(session.Pane, in.Text); err != nil {
		return fmt.Errorf("send text: %w", err)
	}
	uc.logger.Info(in.TaskID, "session", fmt.Sprintf("sent %d bytes to %s", len(in.Text), session.Pane))
	return nil
}
