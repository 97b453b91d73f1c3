package usecase

import (
	"context"

	"github.com/runoshun/agentdeck/internal/domain"
)

// Ensure StatusChannel implements domain.StatusReporter.
var _ domain.StatusReporter = (*StatusChannel)(nil)

// StatusChannel routes status reports to their use cases. The one-shot
// command, the socket service and the MCP bridge all report through it.
// Fields are ordered to minimize memory padding.
type StatusChannel struct {
	status     *ReportStatus
	completion *ReportCompletion
	tokens     *ReportTokens
	rateLimit  *ReportRateLimit
	usage      *ReportUsage
}

// NewStatusChannel creates a new StatusChannel.
func NewStatusChannel(
	status *ReportStatus,
	completion *ReportCompletion,
	tokens *ReportTokens,
	rateLimit *ReportRateLimit,
	usage *ReportUsage,
) *StatusChannel {
	return &StatusChannel{
		status:     status,
		completion: completion,
		tokens:     tokens,
		rateLimit:  rateLimit,
		usage:      usage,
	}
}

// ReportStatus records the agent status.
func (c *StatusChannel) ReportStatus(ctx context.Context, r domain.StatusReport) error {
	return c.status.Execute(ctx, r)
}

// ReportCompletion completes the current task or subtask.
func (c *StatusChannel) ReportCompletion(ctx context.Context, r domain.CompletionReport) error {
	_, err := c.completion.Execute(ctx, r)
	return err
}

// ReportTokens adds token usage to the bound task.
func (c *StatusChannel) ReportTokens(ctx context.Context, r domain.TokenReport) error {
	return c.tokens.Execute(ctx, r)
}

// ReportRateLimit pauses feeding.
func (c *StatusChannel) ReportRateLimit(ctx context.Context, r domain.RateLimitReport) error {
	return c.rateLimit.Execute(ctx, r)
}

// ReportUsage records usage percentages.
func (c *StatusChannel) ReportUsage(ctx context.Context, r domain.UsageReport) error {
	return c.usage.Execute(ctx, r)
}
