package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/runoshun/agentdeck/internal/domain"
)

// ApplyUsageOutput contains the result of recording a usage snapshot.
type ApplyUsageOutput struct {
	Window  string // Exhausted window, empty if none
	Paused  bool
	Resumed bool // An open-ended pause was lifted
}

// ApplyUsage records usage percentages and closes the feeding gate when a
// window is exhausted. A pause without a reset time is lifted by the first
// snapshot with no exhausted window. Agent reports and the usage poller
// share it.
type ApplyUsage struct {
	store  domain.RateLimitRepository
	clock  domain.Clock
	logger domain.Logger
}

// NewApplyUsage creates a new ApplyUsage use case.
func NewApplyUsage(store domain.RateLimitRepository, clock domain.Clock, logger domain.Logger) *ApplyUsage {
	return &ApplyUsage{
		store:  store,
		clock:  clock,
		logger: logger,
	}
}

// Execute records the snapshot.
func (uc *ApplyUsage) Execute(ctx context.Context, snapshot domain.UsageSnapshot) (*ApplyUsageOutput, error) {
	now := uc.clock.Now()
	if err := uc.store.UpdateUsage(ctx, snapshot, now); err != nil {
		return nil, fmt.Errorf("update usage: %w", err)
	}

	window, resetsAt, exhausted := snapshot.Exhausted()
	if !exhausted {
		return uc.liftOpenPause(ctx, now)
	}
	if err := uc.store.PauseFeeding(ctx, window, resetsAt, now); err != nil {
		return nil, fmt.Errorf("pause feeding: %w", err)
	}
	uc.logger.Warn(0, "ratelimit", fmt.Sprintf("%s usage exhausted, feeding paused", window))
	return &ApplyUsageOutput{Window: window, Paused: true}, nil
}

func (uc *ApplyUsage) liftOpenPause(ctx context.Context, now time.Time) (*ApplyUsageOutput, error) {
	gate, err := uc.store.GetRateLimit(ctx)
	if err != nil {
		return nil, fmt.Errorf("get rate limit: %w", err)
	}
	if gate == nil || !gate.Paused || gate.ResetsAt != nil {
		return &ApplyUsageOutput{}, nil
	}
	if err := uc.store.ResumeFeeding(ctx, now); err != nil {
		return nil, fmt.Errorf("resume feeding: %w", err)
	}
	uc.logger.Info(0, "ratelimit", "usage below limits, feeding resumed")
	return &ApplyUsageOutput{Resumed: true}, nil
}
