package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/runoshun/agentdeck/internal/domain"
)

// ErrNegativeUsage is returned for token reports with negative amounts.
var ErrNegativeUsage = errors.New("token counts and cost must not be negative")

// ReportTokens is the use case for adding token usage to the bound task.
type ReportTokens struct {
	store  domain.Store
	logger domain.Logger
}

// NewReportTokens creates a new ReportTokens use case.
func NewReportTokens(store domain.Store, logger domain.Logger) *ReportTokens {
	return &ReportTokens{
		store:  store,
		logger: logger,
	}
}

// Execute adds the usage increment.
func (uc *ReportTokens) Execute(ctx context.Context, in domain.TokenReport) error {
	if in.InputTokens < 0 || in.OutputTokens < 0 || in.Cost < 0 {
		return ErrNegativeUsage
	}
	session, err := requireActiveSession(ctx, uc.store, in.SessionID)
	if err != nil {
		return err
	}
	if session.TaskID == nil {
		return fmt.Errorf("%w: %s", domain.ErrNoTaskBound, session.ID)
	}
	if err := uc.store.AddTokens(ctx, *session.TaskID, in.InputTokens, in.OutputTokens, in.Cost); err != nil {
		return fmt.Errorf("add tokens: %w", err)
	}
	uc.logger.Debug(*session.TaskID, "report",
		fmt.Sprintf("tokens +%d/+%d cost +%.4f", in.InputTokens, in.OutputTokens, in.Cost))
	return nil
}
