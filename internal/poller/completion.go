package poller

import (
	"context"
	"fmt"
	"time"

	"github.com/runoshun/agentdeck/internal/domain"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentChecks bounds parallel review-system queries per cycle.
const maxConcurrentChecks = 4

// CompletionPoller detects merged pull requests of tasks in review.
// Fields are ordered to minimize memory padding.
type CompletionPoller struct {
	tasks   domain.TaskRepository
	checker domain.ReviewChecker
	logger  domain.Logger
	queue   *Queue
	timeout time.Duration
	guard   Guard
}

// NewCompletionPoller creates a new CompletionPoller.
func NewCompletionPoller(tasks domain.TaskRepository, checker domain.ReviewChecker, queue *Queue, logger domain.Logger, timeout time.Duration) *CompletionPoller {
	return &CompletionPoller{
		tasks:   tasks,
		checker: checker,
		logger:  logger,
		queue:   queue,
		timeout: timeout,
	}
}

// Trigger starts a check cycle in the background unless one is in flight.
func (p *CompletionPoller) Trigger(ctx context.Context) bool {
	if !p.guard.TryStart() {
		p.logger.Debug(0, "poll", "merge check still in flight, skipping")
		return false
	}
	go func() {
		defer p.guard.Done()
		p.poll(ctx)
	}()
	return true
}

// InFlight reports whether a cycle is running.
func (p *CompletionPoller) InFlight() bool {
	return p.guard.Running()
}

func (p *CompletionPoller) poll(ctx context.Context) {
	status := domain.StatusInReview
	tasks, err := p.tasks.ListTasks(ctx, domain.TaskFilter{Status: &status, HasPR: true})
	if err != nil {
		p.logger.Warn(0, "poll", fmt.Sprintf("list tasks in review: %v", err))
		return
	}
	if len(tasks) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var g errgroup.Group
	g.SetLimit(maxConcurrentChecks)
	for _, task := range tasks {
		g.Go(func() error {
			merged, err := p.checker.IsMerged(ctx, task.PRURL)
			if err != nil {
				p.logger.Warn(task.ID, "poll", fmt.Sprintf("check %s: %v", task.PRURL, err))
				return nil
			}
			if !merged {
				return nil
			}
			if !p.queue.Push(MergeDetected{TaskID: task.ID, PRURL: task.PRURL}) {
				p.logger.Warn(task.ID, "poll", "result queue full, merge result dropped")
			}
			return nil
		})
	}
	_ = g.Wait()
}
