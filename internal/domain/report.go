package domain

import (
	"context"
	"time"
)

// Status reports arrive from agent processes. SessionID is always set by the
// transport boundary (environment, connection binding), never by agent input.

// StatusReport carries the agent's current status and message.
type StatusReport struct {
	SessionID string
	Status    AgentStatus
	Message   string
}

// CompletionReport signals that the current task or subtask is finished.
type CompletionReport struct {
	SessionID string
	PRURL     string // optional
	Message   string
}

// TokenReport carries incremental token usage and cost for the bound task.
type TokenReport struct {
	SessionID    string
	InputTokens  int64
	OutputTokens int64
	Cost         float64
}

// RateLimitReport signals that the agent hit a usage limit.
type RateLimitReport struct {
	ResetsAt  *time.Time
	SessionID string
	Window    string
}

// UsageReport carries usage-window percentages.
type UsageReport struct {
	SessionID string
	Usage     UsageSnapshot
}

// StatusReporter is the set of mutations reachable through the status
// update channel. Every transport is an adapter over one implementation.
type StatusReporter interface {
	ReportStatus(ctx context.Context, r StatusReport) error
	ReportCompletion(ctx context.Context, r CompletionReport) error
	ReportTokens(ctx context.Context, r TokenReport) error
	ReportRateLimit(ctx context.Context, r RateLimitReport) error
	ReportUsage(ctx context.Context, r UsageReport) error
}
