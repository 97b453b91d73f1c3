// Package mcpbridge exposes the status reporting operations to the agent
// as MCP tools over stdio.
package mcpbridge

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/runoshun/agentdeck/internal/domain"
)

// Tool names.
const (
	ToolReportStatus      = "report_status"
	ToolReportCompletion  = "report_completion"
	ToolReportUsageTokens = "report_usage_tokens"
	ToolReportRateLimit   = "report_rate_limit"
	ToolReportUsageWindow = "report_usage_window"
)

// Bridge is an MCP server bound to one session.
// Fields are ordered to minimize memory padding.
type Bridge struct {
	reporter domain.StatusReporter
	server   *server.MCPServer
	session  string
}

// NewBridge creates a new Bridge whose tools report for session.
func NewBridge(reporter domain.StatusReporter, session, version string) *Bridge {
	b := &Bridge{
		reporter: reporter,
		session:  session,
		server: server.NewMCPServer(
			"agentdeck",
			version,
			server.WithToolCapabilities(true),
		),
	}
	b.registerTools()
	return b
}

// Serve runs the stdio transport until ctx is cancelled or in is closed.
func (b *Bridge) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(b.server).Listen(ctx, in, out)
}

func (b *Bridge) registerTools() {
	b.server.AddTool(
		mcp.NewTool(ToolReportStatus,
			mcp.WithDescription("Report what you are doing right now. Call with working when you start, waiting when you need the user, idle when you stop."),
			mcp.WithString("status",
				mcp.Required(),
				mcp.Description("One of: idle, working, waiting, done, error"),
			),
			mcp.WithString("message",
				mcp.Description("Short description of the current activity (optional)"),
			),
		),
		b.reportStatus,
	)

	b.server.AddTool(
		mcp.NewTool(ToolReportCompletion,
			mcp.WithDescription("Report that the current task or step is finished. Commit your work first."),
			mcp.WithString("pr_url",
				mcp.Description("URL of the pull request you opened (optional)"),
			),
			mcp.WithString("message",
				mcp.Description("Summary of what was done (optional)"),
			),
		),
		b.reportCompletion,
	)

	b.server.AddTool(
		mcp.NewTool(ToolReportUsageTokens,
			mcp.WithDescription("Add token usage and cost spent since the last report."),
			mcp.WithNumber("input_tokens", mcp.Description("Input tokens used")),
			mcp.WithNumber("output_tokens", mcp.Description("Output tokens used")),
			mcp.WithNumber("cost_usd", mcp.Description("Cost in US dollars")),
		),
		b.reportTokens,
	)

	b.server.AddTool(
		mcp.NewTool(ToolReportRateLimit,
			mcp.WithDescription("Report that the account hit a usage limit. Queued tasks wait until the reset time."),
			mcp.WithString("window",
				mcp.Description("Limiting window: five_hour or seven_day (default five_hour)"),
			),
			mcp.WithString("resets_at",
				mcp.Description("RFC 3339 time the limit resets (optional)"),
			),
		),
		b.reportRateLimit,
	)

	b.server.AddTool(
		mcp.NewTool(ToolReportUsageWindow,
			mcp.WithDescription("Report account usage percentages per window."),
			mcp.WithNumber("five_hour_pct", mcp.Description("Five-hour window utilization, 0-100")),
			mcp.WithNumber("seven_day_pct", mcp.Description("Seven-day window utilization, 0-100")),
			mcp.WithString("five_hour_resets_at", mcp.Description("RFC 3339 reset time (optional)")),
			mcp.WithString("seven_day_resets_at", mcp.Description("RFC 3339 reset time (optional)")),
		),
		b.reportUsageWindow,
	)
}

func (b *Bridge) reportStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("status")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	status, err := domain.ParseAgentStatus(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%v: %q", err, raw)), nil
	}
	return b.result(b.reporter.ReportStatus(ctx, domain.StatusReport{
		SessionID: b.session,
		Status:    status,
		Message:   req.GetString("message", ""),
	}), "status recorded")
}

func (b *Bridge) reportCompletion(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return b.result(b.reporter.ReportCompletion(ctx, domain.CompletionReport{
		SessionID: b.session,
		PRURL:     req.GetString("pr_url", ""),
		Message:   req.GetString("message", ""),
	}), "completion recorded")
}

func (b *Bridge) reportTokens(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in := int64(req.GetFloat("input_tokens", 0))
	out := int64(req.GetFloat("output_tokens", 0))
	cost := req.GetFloat("cost_usd", 0)
	if in < 0 || out < 0 || cost < 0 {
		return mcp.NewToolResultError("token counts and cost must not be negative"), nil
	}
	return b.result(b.reporter.ReportTokens(ctx, domain.TokenReport{
		SessionID:    b.session,
		InputTokens:  in,
		OutputTokens: out,
		Cost:         cost,
	}), "usage recorded")
}

func (b *Bridge) reportRateLimit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	window := req.GetString("window", domain.WindowFiveHour)
	if window != domain.WindowFiveHour && window != domain.WindowSevenDay {
		return mcp.NewToolResultError(fmt.Sprintf("unknown window %q", window)), nil
	}
	resetsAt, err := parseTime(req.GetString("resets_at", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return b.result(b.reporter.ReportRateLimit(ctx, domain.RateLimitReport{
		SessionID: b.session,
		Window:    window,
		ResetsAt:  resetsAt,
	}), "rate limit recorded")
}

func (b *Bridge) reportUsageWindow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fiveReset, err := parseTime(req.GetString("five_hour_resets_at", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sevenReset, err := parseTime(req.GetString("seven_day_resets_at", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return b.result(b.reporter.ReportUsage(ctx, domain.UsageReport{
		SessionID: b.session,
		Usage: domain.UsageSnapshot{
			FiveHour: domain.UsageWindow{Percent: req.GetFloat("five_hour_pct", 0), ResetsAt: fiveReset},
			SevenDay: domain.UsageWindow{Percent: req.GetFloat("seven_day_pct", 0), ResetsAt: sevenReset},
		},
	}), "usage recorded")
}

// result turns a reporter error into a tool error the agent can read.
func (b *Bridge) result(err error, ok string) (*mcp.CallToolResult, error) {
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(ok), nil
}

func parseTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("invalid time %q: want RFC 3339", s)
	}
	return &t, nil
}
