package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/agentdeck/internal/domain"
)

// ReportStatus is the use case for recording the agent's status and message.
// A done status completes the current unit of work.
type ReportStatus struct {
	sessions   domain.SessionRepository
	completion *ReportCompletion
	clock      domain.Clock
}

// NewReportStatus creates a new ReportStatus use case.
func NewReportStatus(sessions domain.SessionRepository, completion *ReportCompletion, clock domain.Clock) *ReportStatus {
	return &ReportStatus{
		sessions:   sessions,
		completion: completion,
		clock:      clock,
	}
}

// Execute applies the status report.
func (uc *ReportStatus) Execute(ctx context.Context, in domain.StatusReport) error {
	status, err := domain.ParseAgentStatus(string(in.Status))
	if err != nil {
		return fmt.Errorf("%w: %q", err, in.Status)
	}
	if status == domain.AgentDone {
		_, err := uc.completion.Execute(ctx, domain.CompletionReport{
			SessionID: in.SessionID,
			Message:   in.Message,
		})
		return err
	}

	if _, err := requireActiveSession(ctx, uc.sessions, in.SessionID); err != nil {
		return err
	}
	if err := uc.sessions.UpdateAgentStatus(ctx, in.SessionID, status, in.Message, uc.clock.Now()); err != nil {
		return fmt.Errorf("update agent status: %w", err)
	}
	return nil
}
