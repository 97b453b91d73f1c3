package poller

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/runoshun/agentdeck/internal/domain"
)

// UsagePoller fetches account usage windows and caches the latest snapshot.
// Fields are ordered to minimize memory padding.
type UsagePoller struct {
	fetcher domain.UsageFetcher
	logger  domain.Logger
	clock   domain.Clock
	queue   *Queue
	latest  atomic.Pointer[UsageResult]
	timeout time.Duration
	guard   Guard
}

// NewUsagePoller creates a new UsagePoller.
func NewUsagePoller(fetcher domain.UsageFetcher, queue *Queue, clock domain.Clock, logger domain.Logger, timeout time.Duration) *UsagePoller {
	return &UsagePoller{
		fetcher: fetcher,
		logger:  logger,
		clock:   clock,
		queue:   queue,
		timeout: timeout,
	}
}

// Trigger starts a fetch in the background unless one is in flight.
func (p *UsagePoller) Trigger(ctx context.Context) bool {
	if !p.guard.TryStart() {
		p.logger.Debug(0, "poll", "usage fetch still in flight, skipping")
		return false
	}
	go func() {
		defer p.guard.Done()
		p.poll(ctx)
	}()
	return true
}

// Latest returns the most recent successful fetch, or nil.
func (p *UsagePoller) Latest() *UsageResult {
	return p.latest.Load()
}

// InFlight reports whether a fetch is running.
func (p *UsagePoller) InFlight() bool {
	return p.guard.Running()
}

func (p *UsagePoller) poll(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	snapshot, err := p.fetcher.FetchUsage(ctx)
	if err != nil {
		p.logger.Warn(0, "poll", fmt.Sprintf("fetch usage: %v", err))
		return
	}
	result := UsageResult{Snapshot: snapshot, Fetched: p.clock.Now()}
	p.latest.Store(&result)
	if !p.queue.Push(result) {
		p.logger.Warn(0, "poll", "result queue full, usage result dropped")
	}
}
