// Package poller runs background reconciliation against external systems.
//
// Pollers never touch the store's write side. They push results onto a
// Queue that the control loop drains and applies on its own tick.
package poller

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/runoshun/agentdeck/internal/domain"
)

// Result is a reconciliation finding delivered to the control loop.
type Result interface {
	isResult()
}

// UsageResult carries a freshly fetched usage snapshot.
type UsageResult struct {
	Fetched  time.Time
	Snapshot domain.UsageSnapshot
}

// MergeDetected reports that a task's pull request was merged.
type MergeDetected struct {
	PRURL  string
	TaskID int64
}

func (UsageResult) isResult()   {}
func (MergeDetected) isResult() {}

// Guard is a single-flight token. A cycle runs only if TryStart wins.
type Guard struct {
	running atomic.Bool
}

// TryStart claims the guard. It returns false while a cycle is in flight.
func (g *Guard) TryStart() bool {
	return g.running.CompareAndSwap(false, true)
}

// Done releases the guard.
func (g *Guard) Done() {
	g.running.Store(false)
}

// Running reports whether a cycle is in flight.
func (g *Guard) Running() bool {
	return g.running.Load()
}

// Trigger starts one poll cycle in the background.
// It returns false when the previous cycle is still running.
type Trigger func(ctx context.Context) bool

// Every calls trigger on each interval until ctx is done. A trigger that
// returns false is a skipped cycle, not an error.
func Every(ctx context.Context, interval time.Duration, trigger Trigger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	trigger(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			trigger(ctx)
		}
	}
}
