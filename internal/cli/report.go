package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/runoshun/agentdeck/internal/app"
	"github.com/runoshun/agentdeck/internal/domain"
	"github.com/runoshun/agentdeck/internal/infra/mcpbridge"
	"github.com/runoshun/agentdeck/internal/infra/statusrpc"
	"github.com/spf13/cobra"
)

// errNothingToReport is returned by report when no flag selects an operation.
var errNothingToReport = errors.New("nothing to report: pass --status, --done, token, rate limit or usage flags")

// reportTargetFunc returns the reporter of the report command, allowing it to be mocked in tests.
var reportTargetFunc = func(c *app.Container) domain.StatusReporter {
	return c.StatusChannel()
}

// reportOptions holds the flags of the report command.
type reportOptions struct {
	ResetsAt     string
	Session      string
	Status       string
	Message      string
	PRURL        string
	Window       string
	Cost         float64
	Usage5h      float64
	Usage7d      float64
	InputTokens  int64
	OutputTokens int64
	Done         bool
	RateLimited  bool
}

// newReportCommand creates the report command used by agents and hooks.
func newReportCommand(c *app.Container) *cobra.Command {
	var opts reportOptions

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Report agent status for the current session",
		Long: `Report agent status for the current session.

The session defaults to $DECK_SESSION_ID, which is set in every session
pane. Selected operations are applied in this order: status, completion,
tokens, rate limit, usage.

Examples:
  # Agent started working
  deck report --status working --message "reading the codebase"

  # Task finished with a pull request
  deck report --done --pr https://github.com/acme/api/pull/12

  # Token usage after a turn
  deck report --input-tokens 1200 --output-tokens 340 --cost 0.02

  # Usage limit hit
  deck report --rate-limited --window five_hour --resets-at 2026-01-02T15:00:00Z`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.Session == "" {
				opts.Session = os.Getenv(domain.SessionEnv)
			}
			if opts.Session == "" {
				return domain.ErrNoSessionID
			}
			return applyReport(cmd, reportTargetFunc(c), opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.Session, "session", "", "Session ID (default: $DECK_SESSION_ID)")
	f.StringVar(&opts.Status, "status", "", "Agent status: idle, working, waiting, done, error")
	f.StringVar(&opts.Message, "message", "", "Status or completion message")
	f.BoolVar(&opts.Done, "done", false, "Report the current task or step as finished")
	f.StringVar(&opts.PRURL, "pr", "", "Pull request URL of the finished task")
	f.Int64Var(&opts.InputTokens, "input-tokens", 0, "Input tokens used since the last report")
	f.Int64Var(&opts.OutputTokens, "output-tokens", 0, "Output tokens used since the last report")
	f.Float64Var(&opts.Cost, "cost", 0, "Cost in USD since the last report")
	f.BoolVar(&opts.RateLimited, "rate-limited", false, "Report that a usage limit was hit")
	f.StringVar(&opts.Window, "window", domain.WindowFiveHour, "Limited window: five_hour or seven_day")
	f.StringVar(&opts.ResetsAt, "resets-at", "", "When the limit resets (RFC 3339)")
	f.Float64Var(&opts.Usage5h, "usage-5h", 0, "Five-hour window utilization in percent")
	f.Float64Var(&opts.Usage7d, "usage-7d", 0, "Seven-day window utilization in percent")

	return cmd
}

// applyReport sends the operations selected by opts to reporter.
func applyReport(cmd *cobra.Command, reporter domain.StatusReporter, opts reportOptions) error {
	ctx := cmd.Context()
	flags := cmd.Flags()
	applied := false

	if opts.Status != "" {
		status, err := domain.ParseAgentStatus(opts.Status)
		if err != nil {
			return err
		}
		if err := reporter.ReportStatus(ctx, domain.StatusReport{
			SessionID: opts.Session,
			Status:    status,
			Message:   opts.Message,
		}); err != nil {
			return fmt.Errorf("report status: %w", err)
		}
		applied = true
	}

	// --status done already completes the task
	if opts.Done && opts.Status != string(domain.AgentDone) {
		if err := reporter.ReportCompletion(ctx, domain.CompletionReport{
			SessionID: opts.Session,
			PRURL:     opts.PRURL,
			Message:   opts.Message,
		}); err != nil {
			return fmt.Errorf("report completion: %w", err)
		}
		applied = true
	}

	if flags.Changed("input-tokens") || flags.Changed("output-tokens") || flags.Changed("cost") {
		if err := reporter.ReportTokens(ctx, domain.TokenReport{
			SessionID:    opts.Session,
			InputTokens:  opts.InputTokens,
			OutputTokens: opts.OutputTokens,
			Cost:         opts.Cost,
		}); err != nil {
			return fmt.Errorf("report tokens: %w", err)
		}
		applied = true
	}

	if opts.RateLimited {
		report := domain.RateLimitReport{SessionID: opts.Session, Window: opts.Window}
		if opts.ResetsAt != "" {
			t, err := time.Parse(time.RFC3339, opts.ResetsAt)
			if err != nil {
				return fmt.Errorf("invalid --resets-at: %w", err)
			}
			report.ResetsAt = &t
		}
		if err := reporter.ReportRateLimit(ctx, report); err != nil {
			return fmt.Errorf("report rate limit: %w", err)
		}
		applied = true
	}

	if flags.Changed("usage-5h") || flags.Changed("usage-7d") {
		if err := reporter.ReportUsage(ctx, domain.UsageReport{
			SessionID: opts.Session,
			Usage: domain.UsageSnapshot{
				FiveHour: domain.UsageWindow{Percent: opts.Usage5h},
				SevenDay: domain.UsageWindow{Percent: opts.Usage7d},
			},
		}); err != nil {
			return fmt.Errorf("report usage: %w", err)
		}
		applied = true
	}

	if !applied {
		return errNothingToReport
	}
	return nil
}

// newMCPCommand creates the mcp command serving status tools over stdio.
func newMCPCommand(c *app.Container, version string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the status tools to the agent over MCP stdio",
		Long: `Serve report_status, report_completion, report_usage_tokens,
report_rate_limit and report_usage_window as MCP tools over stdio.

Registered in every workspace's .mcp.json. The session is taken from
$DECK_SESSION_ID. Reports go to 'deck serve' when it is running and are
applied to the store directly otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			session := os.Getenv(domain.SessionEnv)
			if session == "" {
				return domain.ErrNoSessionID
			}

			reporter, closeFn := mcpReporter(cmd.Context(), c, session)
			defer closeFn()

			bridge := mcpbridge.NewBridge(reporter, session, version)
			return bridge.Serve(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

// mcpReporter prefers the socket service and falls back to the store.
func mcpReporter(ctx context.Context, c *app.Container, session string) (domain.StatusReporter, func()) {
	client, err := statusrpc.Dial(ctx, c.Config.SocketPath, session)
	if err != nil {
		c.Logger.Debug(0, "mcp", fmt.Sprintf("status service unavailable, reporting directly: %v", err))
		return c.StatusChannel(), func() {}
	}
	return client, func() { _ = client.Close() }
}
