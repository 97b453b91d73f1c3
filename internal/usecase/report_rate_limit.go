package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/runoshun/agentdeck/internal/domain"
)

// ErrInvalidWindow is returned for an unknown usage window.
var ErrInvalidWindow = errors.New("window must be five_hour or seven_day")

// ReportRateLimit is the use case for an agent hitting a usage limit.
// It closes the process-wide feeding gate.
type ReportRateLimit struct {
	store  domain.Store
	clock  domain.Clock
	logger domain.Logger
}

// NewReportRateLimit creates a new ReportRateLimit use case.
func NewReportRateLimit(store domain.Store, clock domain.Clock, logger domain.Logger) *ReportRateLimit {
	return &ReportRateLimit{
		store:  store,
		clock:  clock,
		logger: logger,
	}
}

// Execute pauses feeding until the reported reset time.
func (uc *ReportRateLimit) Execute(ctx context.Context, in domain.RateLimitReport) error {
	window := in.Window
	if window == "" {
		window = domain.WindowFiveHour
	}
	if window != domain.WindowFiveHour && window != domain.WindowSevenDay {
		return fmt.Errorf("%w: %q", ErrInvalidWindow, window)
	}
	session, err := requireActiveSession(ctx, uc.store, in.SessionID)
	if err != nil {
		return err
	}

	if err := uc.store.PauseFeeding(ctx, window, in.ResetsAt, uc.clock.Now()); err != nil {
		return fmt.Errorf("pause feeding: %w", err)
	}
	until := "until cleared"
	if in.ResetsAt != nil {
		until = "until " + in.ResetsAt.Format("2006-01-02 15:04:05")
	}
	uc.logger.Warn(0, "ratelimit", fmt.Sprintf("session %s hit the %s limit, feeding paused %s", session.ID, window, until))
	return nil
}
