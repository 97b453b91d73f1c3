package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/runoshun/agentdeck/internal/domain"
)

// FeedNextInput contains the parameters for feeding a session.
type FeedNextInput struct {
	SessionID string
}

// FeedNextOutput contains the result of a feed attempt.
type FeedNextOutput struct {
	TaskID   int64 // Task bound to the session, 0 if none was fed
	Deferred bool  // The rate-limit gate was closed
}

// FeedNext is the use case for handing the next queued autonomous task of a
// project to an idle session. It re-checks the rate-limit gate on every
// attempt.
// Fields are ordered to minimize memory padding.
type FeedNext struct {
	store    domain.Store
	terminal domain.Terminal
	clock    domain.Clock
	logger   domain.Logger
}

// NewFeedNext creates a new FeedNext use case.
func NewFeedNext(store domain.Store, terminal domain.Terminal, clock domain.Clock, logger domain.Logger) *FeedNext {
	return &FeedNext{
		store:    store,
		terminal: terminal,
		clock:    clock,
		logger:   logger,
	}
}

// Execute binds and prompts the next eligible task, defers when the gate is
// closed, or leaves the session idle when the queue is empty.
func (uc *FeedNext) Execute(ctx context.Context, in FeedNextInput) (*FeedNextOutput, error) {
	session, err := requireActiveSession(ctx, uc.store, in.SessionID)
	if err != nil {
		return nil, err
	}

	next, err := uc.store.NextEligibleTask(ctx, session.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("select next task: %w", err)
	}
	if next == nil {
		if session.FeedDeferred {
			if err := uc.store.SetFeedDeferred(ctx, session.ID, false); err != nil {
				return nil, fmt.Errorf("clear deferred feed: %w", err)
			}
		}
		uc.logger.Debug(0, "feed", fmt.Sprintf("session %s: queue empty, staying idle", session.ID))
		return &FeedNextOutput{}, nil
	}

	now := uc.clock.Now()
	gate, err := uc.store.GetRateLimit(ctx)
	if err != nil {
		return nil, fmt.Errorf("get rate limit: %w", err)
	}
	if gate.Limited(now) {
		if !session.FeedDeferred {
			if err := uc.store.SetFeedDeferred(ctx, session.ID, true); err != nil {
				return nil, fmt.Errorf("defer feed: %w", err)
			}
			uc.logger.Info(next.ID, "feed", fmt.Sprintf("rate limited (%s), deferring feed of session %s", gate.Window, session.ID))
		}
		return &FeedNextOutput{Deferred: true}, nil
	}

	current, err := uc.store.BindNextTask(ctx, session.ID, next.ID, now)
	if err != nil {
		if errors.Is(err, domain.ErrTaskBusy) {
			// The session picked up work since the read above.
			return &FeedNextOutput{}, nil
		}
		return nil, fmt.Errorf("bind next task: %w", err)
	}

	subtasks, err := uc.store.ListSubtasks(ctx, next.ID)
	if err != nil {
		return nil, fmt.Errorf("list subtasks: %w", err)
	}
	prompt := domain.BuildPrompt(next, subtasks, current)
	if err := uc.terminal.Send(session.Pane, prompt); err != nil {
		uc.logger.Error(next.ID, "feed", fmt.Sprintf("deliver prompt to %s: %v", session.Pane, err))
	}

	uc.logger.Info(next.ID, "feed", fmt.Sprintf("fed to session %s", session.ID))
	return &FeedNextOutput{TaskID: next.ID}, nil
}
