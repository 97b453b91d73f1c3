// Package loop implements the control loop of the supervising process.
//
// Each tick applies queued poller results, expires an elapsed rate-limit
// pause and retries deferred autonomous feeds. It re-reads the store every
// time and keeps no state across ticks.
package loop

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/runoshun/agentdeck/internal/domain"
	"github.com/runoshun/agentdeck/internal/poller"
	"github.com/runoshun/agentdeck/internal/usecase"
)

// TickResult summarizes what one tick changed.
type TickResult struct {
	Fed     []int64 // Tasks bound by deferred feeds
	Done    []int64 // Tasks confirmed by merge detection
	Applied int     // Poller results applied
	Resumed bool    // The rate-limit pause expired or was lifted
}

// Loop is the control loop.
// Fields are ordered to minimize memory padding.
type Loop struct {
	store      domain.Store
	feed       *usecase.FeedNext
	applyUsage *usecase.ApplyUsage
	markDone   *usecase.MarkDone
	queue      *poller.Queue
	clock      domain.Clock
	logger     domain.Logger
}

// New creates a new Loop.
func New(
	store domain.Store,
	feed *usecase.FeedNext,
	applyUsage *usecase.ApplyUsage,
	markDone *usecase.MarkDone,
	queue *poller.Queue,
	clock domain.Clock,
	logger domain.Logger,
) *Loop {
	return &Loop{
		store:      store,
		feed:       feed,
		applyUsage: applyUsage,
		markDone:   markDone,
		queue:      queue,
		clock:      clock,
		logger:     logger,
	}
}

// Tick runs one iteration. Failures of individual steps are collected and
// do not stop the remaining steps.
func (l *Loop) Tick(ctx context.Context) (*TickResult, error) {
	res := &TickResult{}
	var errs []error

	for _, r := range l.queue.Drain() {
		if err := l.apply(ctx, r, res); err != nil {
			errs = append(errs, err)
			continue
		}
		res.Applied++
	}

	gate, err := l.store.GetRateLimit(ctx)
	if err != nil {
		return res, errors.Join(append(errs, fmt.Errorf("get rate limit: %w", err))...)
	}
	now := l.clock.Now()
	if gate.Expired(now) {
		if err := l.store.ResumeFeeding(ctx, now); err != nil {
			errs = append(errs, fmt.Errorf("resume feeding: %w", err))
		} else {
			res.Resumed = true
			l.logger.Info(0, "ratelimit", fmt.Sprintf("%s window reset, feeding resumed", gate.Window))
			gate = &domain.RateLimitState{}
		}
	}

	if !gate.Limited(now) {
		if err := l.retryDeferred(ctx, res); err != nil {
			errs = append(errs, err)
		}
	}
	return res, errors.Join(errs...)
}

func (l *Loop) apply(ctx context.Context, r poller.Result, res *TickResult) error {
	switch r := r.(type) {
	case poller.UsageResult:
		out, err := l.applyUsage.Execute(ctx, r.Snapshot)
		if err != nil {
			return fmt.Errorf("apply usage: %w", err)
		}
		if out.Resumed {
			res.Resumed = true
		}
	case poller.MergeDetected:
		_, err := l.markDone.Execute(ctx, usecase.MarkDoneInput{TaskID: r.TaskID})
		if errors.Is(err, domain.ErrInvalidTransition) || errors.Is(err, domain.ErrTaskNotFound) {
			// Confirmed or deleted since the poll.
			l.logger.Debug(r.TaskID, "loop", fmt.Sprintf("merge of %s already handled: %v", r.PRURL, err))
			return nil
		}
		if err != nil {
			return fmt.Errorf("mark task %d done: %w", r.TaskID, err)
		}
		l.logger.Info(r.TaskID, "loop", "merged: "+r.PRURL)
		res.Done = append(res.Done, r.TaskID)
	default:
		return fmt.Errorf("unknown poller result %T", r)
	}
	return nil
}

func (l *Loop) retryDeferred(ctx context.Context, res *TickResult) error {
	sessions, err := l.store.ListSessions(ctx, domain.SessionFilter{ActiveOnly: true, FeedDeferred: true})
	if err != nil {
		return fmt.Errorf("list deferred sessions: %w", err)
	}
	var errs []error
	for _, s := range sessions {
		out, err := l.feed.Execute(ctx, usecase.FeedNextInput{SessionID: s.ID})
		if err != nil {
			errs = append(errs, fmt.Errorf("feed session %s: %w", s.ID, err))
			continue
		}
		if out.TaskID != 0 {
			res.Fed = append(res.Fed, out.TaskID)
		}
	}
	return errors.Join(errs...)
}

// Run ticks every interval until ctx is done.
func (l *Loop) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := l.Tick(ctx); err != nil {
				l.logger.Error(0, "loop", err.Error())
			}
		}
	}
}
