package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/agentdeck/internal/domain"
)

// ReportCompletionOutput contains the result of a completion report.
// Fields are ordered to minimize memory padding.
type ReportCompletionOutput struct {
	NextSubtask *domain.Subtask // Step now active on the same task
	Fed         *FeedNextOutput // Autonomous follow-up, nil for supervised tasks
	TaskID      int64
	Completed   bool // Task moved to in_review
	Ignored     bool // Task was not in progress; nothing changed
}

// ReportCompletion is the use case for an agent finishing its current unit
// of work. With subtasks, each report advances exactly one step; the task
// moves to in_review once none remain.
// Fields are ordered to minimize memory padding.
type ReportCompletion struct {
	store    domain.Store
	terminal domain.Terminal
	notifier domain.Notifier
	feed     *FeedNext
	clock    domain.Clock
	logger   domain.Logger
}

// NewReportCompletion creates a new ReportCompletion use case.
func NewReportCompletion(
	store domain.Store,
	terminal domain.Terminal,
	notifier domain.Notifier,
	feed *FeedNext,
	clock domain.Clock,
	logger domain.Logger,
) *ReportCompletion {
	return &ReportCompletion{
		store:    store,
		terminal: terminal,
		notifier: notifier,
		feed:     feed,
		clock:    clock,
		logger:   logger,
	}
}

// Execute applies the completion report.
func (uc *ReportCompletion) Execute(ctx context.Context, in domain.CompletionReport) (*ReportCompletionOutput, error) {
	session, err := requireActiveSession(ctx, uc.store, in.SessionID)
	if err != nil {
		return nil, err
	}
	if session.TaskID == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrNoTaskBound, session.ID)
	}
	task, err := requireTask(ctx, uc.store, *session.TaskID)
	if err != nil {
		return nil, err
	}

	out := &ReportCompletionOutput{TaskID: task.ID}
	if task.Status != domain.StatusInProgress {
		uc.logger.Debug(task.ID, "report", fmt.Sprintf("completion ignored, task is %s", task.Status))
		out.Ignored = true
		return out, nil
	}

	next, _, err := uc.store.AdvanceSubtask(ctx, task.ID)
	if err != nil {
		return nil, fmt.Errorf("advance subtask: %w", err)
	}
	now := uc.clock.Now()

	if next != nil {
		if in.PRURL != "" {
			if err := uc.store.SetTaskPR(ctx, task.ID, in.PRURL); err != nil {
				return nil, fmt.Errorf("store pr: %w", err)
			}
		}
		if err := uc.store.UpdateAgentStatus(ctx, session.ID, domain.AgentWorking, in.Message, now); err != nil {
			return nil, fmt.Errorf("update agent status: %w", err)
		}
		subtasks, err := uc.store.ListSubtasks(ctx, task.ID)
		if err != nil {
			return nil, fmt.Errorf("list subtasks: %w", err)
		}
		if err := uc.terminal.Send(session.Pane, domain.BuildPrompt(task, subtasks, next)); err != nil {
			uc.logger.Error(task.ID, "report", fmt.Sprintf("deliver next step to %s: %v", session.Pane, err))
		}
		uc.logger.Info(task.ID, "report", fmt.Sprintf("step done, next: %q", next.Title))
		out.NextSubtask = next
		return out, nil
	}

	if err := uc.store.CompleteTask(ctx, task.ID, session.ID, in.PRURL, in.Message, now); err != nil {
		return nil, fmt.Errorf("complete task: %w", err)
	}
	out.Completed = true
	uc.logger.Info(task.ID, "report", "completed, in review")
	uc.notifier.Notify(task.Title)

	if !task.IsAutonomous() {
		return out, nil
	}
	out.Fed, err = uc.feed.Execute(ctx, FeedNextInput{SessionID: session.ID})
	if err != nil {
		return out, fmt.Errorf("feed next task: %w", err)
	}
	return out, nil
}
