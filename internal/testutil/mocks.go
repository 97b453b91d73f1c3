// Package testutil provides shared test utilities and mock implementations.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/runoshun/agentdeck/internal/domain"
)

// MockClock is a test double for domain.Clock.
type MockClock struct {
	NowTime time.Time
	mu      sync.Mutex
}

// Now returns the configured time.
func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.NowTime
}

// Advance moves the clock forward.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NowTime = m.NowTime.Add(d)
}

// MockTerminal is a test double for domain.Terminal.
// Fields are ordered to minimize memory padding.
type MockTerminal struct {
	Panes     map[string]domain.OpenPaneOptions
	OpenErr   error
	SendErr   error
	FocusErr  error
	CloseErr  error
	Sent      map[string][]string // Texts sent per pane, in order
	Focused   []string
	Closed    []string
	Output    map[string]string // Captured output returned by Peek, per pane
	PeekErr   error
	mu        sync.Mutex
	OpenCalls int
}

// NewMockTerminal creates a new MockTerminal.
func NewMockTerminal() *MockTerminal {
	return &MockTerminal{
		Panes: make(map[string]domain.OpenPaneOptions),
		Sent:  make(map[string][]string),
	}
}

// Open records the pane.
func (m *MockTerminal) Open(_ context.Context, opts domain.OpenPaneOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OpenCalls++
	if m.OpenErr != nil {
		return m.OpenErr
	}
	m.Panes[opts.Name] = opts
	return nil
}

// Send records the text.
func (m *MockTerminal) Send(pane, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendErr != nil {
		return m.SendErr
	}
	m.Sent[pane] = append(m.Sent[pane], text)
	return nil
}

// SentTo returns a copy of the texts sent to pane.
func (m *MockTerminal) SentTo(pane string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Sent[pane]...)
}

// Focus records the pane.
func (m *MockTerminal) Focus(pane string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FocusErr != nil {
		return m.FocusErr
	}
	m.Focused = append(m.Focused, pane)
	return nil
}

// Peek returns the configured output of a running pane.
func (m *MockTerminal) Peek(pane string, _ int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PeekErr != nil {
		return "", m.PeekErr
	}
	if _, ok := m.Panes[pane]; !ok {
		return "", fmt.Errorf("pane not running: %s", pane)
	}
	return m.Output[pane], nil
}

// Close removes the pane.
func (m *MockTerminal) Close(pane string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CloseErr != nil {
		return m.CloseErr
	}
	m.Closed = append(m.Closed, pane)
	delete(m.Panes, pane)
	return nil
}

// IsRunning reports whether the pane was opened and not closed.
func (m *MockTerminal) IsRunning(pane string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Panes[pane]
	return ok, nil
}

// MockWorkspaceManager is a test double for domain.WorkspaceManager.
type MockWorkspaceManager struct {
	Created   map[string]string // path -> branch
	CreateErr error
	RemoveErr error
	Removed   []string
	mu        sync.Mutex
}

// NewMockWorkspaceManager creates a new MockWorkspaceManager.
func NewMockWorkspaceManager() *MockWorkspaceManager {
	return &MockWorkspaceManager{Created: make(map[string]string)}
}

// Create records the workspace.
func (m *MockWorkspaceManager) Create(_, path, branch string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.Created[path] = branch
	return nil
}

// ForceRemove records the removal.
func (m *MockWorkspaceManager) ForceRemove(_, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RemoveErr != nil {
		return m.RemoveErr
	}
	m.Removed = append(m.Removed, path)
	delete(m.Created, path)
	return nil
}

// MockSeeder is a test double for domain.WorkspaceSeeder.
type MockSeeder struct {
	Err    error
	Seeded []string
}

// Seed records the workspace.
func (m *MockSeeder) Seed(workspace string, _ *domain.Project) error {
	if m.Err != nil {
		return m.Err
	}
	m.Seeded = append(m.Seeded, workspace)
	return nil
}

// MockDiffStatter is a test double for domain.DiffStatter.
type MockDiffStatter struct {
	HeadErr  error
	StatsErr error
	Head     string
	Result   domain.DiffStats
}

// HeadCommit returns the configured commit.
func (m *MockDiffStatter) HeadCommit(_ string) (string, error) {
	if m.HeadErr != nil {
		return "", m.HeadErr
	}
	if m.Head == "" {
		return "0000000000000000000000000000000000000000", nil
	}
	return m.Head, nil
}

// Stats returns the configured statistics.
func (m *MockDiffStatter) Stats(_, _ string) (domain.DiffStats, error) {
	if m.StatsErr != nil {
		return domain.DiffStats{}, m.StatsErr
	}
	return m.Result, nil
}

// MockNotifier is a test double for domain.Notifier.
type MockNotifier struct {
	Titles []string
	mu     sync.Mutex
}

// Notify records the title.
func (m *MockNotifier) Notify(title string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Titles = append(m.Titles, title)
}

// Notified returns a copy of the recorded titles.
func (m *MockNotifier) Notified() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Titles...)
}

// MockUsageFetcher is a test double for domain.UsageFetcher.
// Block, when set, is waited on before returning, to simulate a hung call.
type MockUsageFetcher struct {
	Block    chan struct{}
	Err      error
	Snapshot domain.UsageSnapshot
	mu       sync.Mutex
	Calls    int
}

// FetchUsage returns the configured snapshot.
func (m *MockUsageFetcher) FetchUsage(ctx context.Context) (domain.UsageSnapshot, error) {
	m.mu.Lock()
	m.Calls++
	block := m.Block
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return domain.UsageSnapshot{}, ctx.Err()
		}
	}
	if m.Err != nil {
		return domain.UsageSnapshot{}, m.Err
	}
	return m.Snapshot, nil
}

// CallCount returns the number of FetchUsage calls.
func (m *MockUsageFetcher) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}

// MockReviewChecker is a test double for domain.ReviewChecker.
// Block, when set, is waited on before returning, to simulate a hung call.
type MockReviewChecker struct {
	Merged  map[string]bool
	Errs    map[string]error
	Checked map[string]int // Calls per pull-request reference
	Block   chan struct{}
	mu      sync.Mutex
	Calls   int
}

// NewMockReviewChecker creates a new MockReviewChecker.
func NewMockReviewChecker() *MockReviewChecker {
	return &MockReviewChecker{
		Merged:  make(map[string]bool),
		Errs:    make(map[string]error),
		Checked: make(map[string]int),
	}
}

// IsMerged returns the configured state for prURL.
func (m *MockReviewChecker) IsMerged(ctx context.Context, prURL string) (bool, error) {
	m.mu.Lock()
	m.Calls++
	m.Checked[prURL]++
	block := m.Block
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.Errs[prURL]; err != nil {
		return false, err
	}
	return m.Merged[prURL], nil
}

// CallCount returns the number of IsMerged calls.
func (m *MockReviewChecker) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}

// CheckedCount returns the number of IsMerged calls for prURL.
func (m *MockReviewChecker) CheckedCount(prURL string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Checked[prURL]
}

// MockExecutor is a test double for domain.CommandExecutor.
type MockExecutor struct {
	Outputs  map[string][]byte // Keyed by "program arg1 arg2"
	Err      error
	Commands []domain.ExecCommand
	mu       sync.Mutex
}

// Execute records the command and returns the configured output.
func (m *MockExecutor) Execute(_ context.Context, cmd *domain.ExecCommand) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Commands = append(m.Commands, *cmd)
	if m.Err != nil {
		return nil, m.Err
	}
	key := cmd.Program
	for _, a := range cmd.Args {
		key += " " + a
	}
	return m.Outputs[key], nil
}

// RecordingLogger is a domain.Logger that keeps entries in memory.
type RecordingLogger struct {
	Entries []string
	mu      sync.Mutex
}

func (l *RecordingLogger) add(level string, taskID int64, category, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Entries = append(l.Entries, fmt.Sprintf("%s task-%d [%s] %s", level, taskID, category, msg))
}

// Debug records a debug entry.
func (l *RecordingLogger) Debug(taskID int64, category, msg string) { l.add("DEBUG", taskID, category, msg) }

// Info records an info entry.
func (l *RecordingLogger) Info(taskID int64, category, msg string) { l.add("INFO", taskID, category, msg) }

// Warn records a warning entry.
func (l *RecordingLogger) Warn(taskID int64, category, msg string) { l.add("WARN", taskID, category, msg) }

// Error records an error entry.
func (l *RecordingLogger) Error(taskID int64, category, msg string) { l.add("ERROR", taskID, category, msg) }

// Logged returns a copy of the recorded entries.
func (l *RecordingLogger) Logged() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.Entries...)
}

// RecordingReporter is a domain.StatusReporter that keeps reports in memory.
type RecordingReporter struct {
	Err     error // Returned by every call when set
	Reports []any
	mu      sync.Mutex
}

func (r *RecordingReporter) add(v any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Reports = append(r.Reports, v)
	return nil
}

// SetErr changes the error returned by later calls.
func (r *RecordingReporter) SetErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Err = err
}

// All returns a copy of the recorded reports.
func (r *RecordingReporter) All() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]any(nil), r.Reports...)
}

// ReportStatus records the report.
func (r *RecordingReporter) ReportStatus(_ context.Context, v domain.StatusReport) error {
	return r.add(v)
}

// ReportCompletion records the report.
func (r *RecordingReporter) ReportCompletion(_ context.Context, v domain.CompletionReport) error {
	return r.add(v)
}

// ReportTokens records the report.
func (r *RecordingReporter) ReportTokens(_ context.Context, v domain.TokenReport) error {
	return r.add(v)
}

// ReportRateLimit records the report.
func (r *RecordingReporter) ReportRateLimit(_ context.Context, v domain.RateLimitReport) error {
	return r.add(v)
}

// ReportUsage records the report.
func (r *RecordingReporter) ReportUsage(_ context.Context, v domain.UsageReport) error {
	return r.add(v)
}

// MockConfigManager is a test double for domain.ConfigManager.
// Fields are ordered to minimize memory padding.
type MockConfigManager struct {
	InitErr          error
	GlobalConfigInfo domain.ConfigInfo
	HomeConfigInfo   domain.ConfigInfo
	Written          map[string]*domain.Config
}

// NewMockConfigManager creates a new MockConfigManager.
func NewMockConfigManager() *MockConfigManager {
	return &MockConfigManager{Written: make(map[string]*domain.Config)}
}

// GetGlobalConfigInfo returns the configured info.
func (m *MockConfigManager) GetGlobalConfigInfo() domain.ConfigInfo { return m.GlobalConfigInfo }

// GetHomeConfigInfo returns the configured info.
func (m *MockConfigManager) GetHomeConfigInfo() domain.ConfigInfo { return m.HomeConfigInfo }

// InitGlobalConfig records the config under the global path.
func (m *MockConfigManager) InitGlobalConfig(cfg *domain.Config) (string, error) {
	return m.init(m.GlobalConfigInfo.Path, cfg)
}

// InitHomeConfig records the config under the home path.
func (m *MockConfigManager) InitHomeConfig(cfg *domain.Config) (string, error) {
	return m.init(m.HomeConfigInfo.Path, cfg)
}

func (m *MockConfigManager) init(path string, cfg *domain.Config) (string, error) {
	if m.InitErr != nil {
		return "", m.InitErr
	}
	m.Written[path] = cfg
	return path, nil
}
