package usecase

import (
	"context"

	"github.com/runoshun/agentdeck/internal/domain"
)

// ReportUsage is the use case for an agent reporting usage-window percentages.
type ReportUsage struct {
	sessions domain.SessionRepository
	apply    *ApplyUsage
}

// NewReportUsage creates a new ReportUsage use case.
func NewReportUsage(sessions domain.SessionRepository, apply *ApplyUsage) *ReportUsage {
	return &ReportUsage{
		sessions: sessions,
		apply:    apply,
	}
}

// Execute records the reported usage.
func (uc *ReportUsage) Execute(ctx context.Context, in domain.UsageReport) error {
	if _, err := requireActiveSession(ctx, uc.sessions, in.SessionID); err != nil {
		return err
	}
	_, err := uc.apply.Execute(ctx, in.Usage)
	return err
}
