package poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/runoshun/agentdeck/internal/domain"
	"github.com/runoshun/agentdeck/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuard(t *testing.T) {
	var g Guard
	require.True(t, g.TryStart())
	assert.True(t, g.Running())
	assert.False(t, g.TryStart(), "second start while in flight")
	g.Done()
	assert.False(t, g.Running())
	assert.True(t, g.TryStart())
}

func TestQueue_PushDrain(t *testing.T) {
	q := NewQueue(2)
	assert.Empty(t, q.Drain())

	assert.True(t, q.Push(MergeDetected{TaskID: 1}))
	assert.True(t, q.Push(MergeDetected{TaskID: 2}))
	assert.False(t, q.Push(MergeDetected{TaskID: 3}), "full queue drops")
	assert.Equal(t, int64(1), q.Dropped())

	assert.Equal(t, []Result{MergeDetected{TaskID: 1}, MergeDetected{TaskID: 2}}, q.Drain())
	assert.Empty(t, q.Drain())
}

func TestUsagePoller_SingleFlight(t *testing.T) {
	fetcher := &testutil.MockUsageFetcher{
		Block:    make(chan struct{}),
		Snapshot: domain.UsageSnapshot{FiveHour: domain.UsageWindow{Percent: 12}},
	}
	queue := NewQueue(4)
	clock := &testutil.MockClock{NowTime: time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)}
	p := NewUsagePoller(fetcher, queue, clock, &testutil.RecordingLogger{}, time.Minute)

	require.True(t, p.Trigger(context.Background()))
	require.Eventually(t, func() bool { return fetcher.CallCount() == 1 }, time.Second, time.Millisecond)
	assert.False(t, p.Trigger(context.Background()), "cycle still in flight")
	assert.False(t, p.Trigger(context.Background()))

	close(fetcher.Block)
	require.Eventually(t, func() bool { return !p.InFlight() }, time.Second, time.Millisecond)
	assert.Equal(t, 1, fetcher.CallCount(), "skipped cycles never fetched")

	results := queue.Drain()
	require.Len(t, results, 1)
	usage, ok := results[0].(UsageResult)
	require.True(t, ok)
	assert.InDelta(t, 12, usage.Snapshot.FiveHour.Percent, 1e-9)
	assert.Equal(t, clock.Now(), usage.Fetched)
	require.NotNil(t, p.Latest())
	assert.Equal(t, usage, *p.Latest())

	assert.True(t, p.Trigger(context.Background()), "guard released")
	require.Eventually(t, func() bool { return !p.InFlight() }, time.Second, time.Millisecond)
}

func TestUsagePoller_TimeoutReleasesGuard(t *testing.T) {
	fetcher := &testutil.MockUsageFetcher{Block: make(chan struct{})}
	queue := NewQueue(4)
	logger := &testutil.RecordingLogger{}
	p := NewUsagePoller(fetcher, queue, &testutil.MockClock{}, logger, 20*time.Millisecond)

	require.True(t, p.Trigger(context.Background()))
	require.Eventually(t, func() bool { return !p.InFlight() }, 2*time.Second, 5*time.Millisecond)
	assert.Empty(t, queue.Drain(), "failures are not enqueued")
	assert.Nil(t, p.Latest())
	require.NotEmpty(t, logger.Logged())
	assert.Contains(t, logger.Logged()[0], "deadline exceeded")
}

func TestUsagePoller_ErrorNotEnqueued(t *testing.T) {
	fetcher := &testutil.MockUsageFetcher{Err: errors.New("401")}
	queue := NewQueue(4)
	p := NewUsagePoller(fetcher, queue, &testutil.MockClock{}, &testutil.RecordingLogger{}, time.Second)

	require.True(t, p.Trigger(context.Background()))
	require.Eventually(t, func() bool { return !p.InFlight() }, time.Second, time.Millisecond)
	assert.Empty(t, queue.Drain())
}

// reviewTasks is a TaskRepository returning a fixed list of tasks in review.
type reviewTasks struct {
	domain.TaskRepository
	filter domain.TaskFilter
	tasks  []*domain.Task
}

func (r *reviewTasks) ListTasks(_ context.Context, filter domain.TaskFilter) ([]*domain.Task, error) {
	r.filter = filter
	return r.tasks, nil
}

func TestCompletionPoller_EnqueuesMerged(t *testing.T) {
	tasks := &reviewTasks{tasks: []*domain.Task{
		{ID: 1, PRURL: "https://github.com/acme/demo/pull/1"},
		{ID: 2, PRURL: "https://github.com/acme/demo/pull/2"},
		{ID: 3, PRURL: "https://github.com/acme/demo/pull/3"},
	}}
	checker := testutil.NewMockReviewChecker()
	checker.Merged["https://github.com/acme/demo/pull/2"] = true
	checker.Errs["https://github.com/acme/demo/pull/3"] = errors.New("gh: not found")
	queue := NewQueue(4)
	logger := &testutil.RecordingLogger{}
	p := NewCompletionPoller(tasks, checker, queue, logger, time.Second)

	require.True(t, p.Trigger(context.Background()))
	require.Eventually(t, func() bool { return !p.InFlight() }, time.Second, time.Millisecond)

	assert.Equal(t, []Result{MergeDetected{TaskID: 2, PRURL: "https://github.com/acme/demo/pull/2"}}, queue.Drain())
	require.NotNil(t, tasks.filter.Status)
	assert.Equal(t, domain.StatusInReview, *tasks.filter.Status)
	assert.True(t, tasks.filter.HasPR)
	assert.Len(t, logger.Logged(), 1, "the failed check is logged")
}

func TestCompletionPoller_SingleFlight(t *testing.T) {
	const (
		first  = "https://github.com/acme/demo/pull/1"
		second = "https://github.com/acme/demo/pull/2"
	)
	tasks := &reviewTasks{tasks: []*domain.Task{
		{ID: 1, PRURL: first},
		{ID: 2, PRURL: second},
	}}
	checker := testutil.NewMockReviewChecker()
	checker.Block = make(chan struct{})
	checker.Merged[first] = true
	queue := NewQueue(4)
	p := NewCompletionPoller(tasks, checker, queue, &testutil.RecordingLogger{}, time.Minute)

	require.True(t, p.Trigger(context.Background()))
	require.Eventually(t, func() bool { return checker.CallCount() == 2 }, time.Second, time.Millisecond)
	assert.False(t, p.Trigger(context.Background()), "cycle still in flight")
	assert.False(t, p.Trigger(context.Background()))

	close(checker.Block)
	require.Eventually(t, func() bool { return !p.InFlight() }, time.Second, time.Millisecond)
	assert.Equal(t, 1, checker.CheckedCount(first), "skipped cycles never checked")
	assert.Equal(t, 1, checker.CheckedCount(second))
	assert.Equal(t, []Result{MergeDetected{TaskID: 1, PRURL: first}}, queue.Drain())

	assert.True(t, p.Trigger(context.Background()), "guard released")
	require.Eventually(t, func() bool { return !p.InFlight() }, time.Second, time.Millisecond)
}

func TestEvery_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := make(chan struct{}, 16)
	done := make(chan struct{})
	go func() {
		Every(ctx, 5*time.Millisecond, func(context.Context) bool {
			select {
			case calls <- struct{}{}:
			default:
			}
			return true
		})
		close(done)
	}()

	for range 3 {
		select {
		case <-calls:
		case <-time.After(time.Second):
			t.Fatal("trigger not called")
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Every did not return")
	}
}
