package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/runoshun/agentdeck/internal/app"
	"github.com/runoshun/agentdeck/internal/infra/statusrpc"
	"github.com/runoshun/agentdeck/internal/poller"
	"github.com/runoshun/agentdeck/internal/tui"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// newServeCommand creates the serve command running the supervisor headless.
func newServeCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the status service, pollers and control loop",
		Long: `Run the supervising process without the dashboard.

Listens for agent status reports on <home>/deck.sock, polls account usage
and pull request merge state, and runs the control loop that feeds
autonomous sessions. Stops on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			c.Logger.WithMirror(cmd.ErrOrStderr())

			server := statusrpc.NewServer(c.Config.SocketPath, c.StatusChannel(), c.Logger)
			if err := server.Listen(); err != nil {
				return err
			}

			sup := c.Supervisor()
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return server.Serve(gctx)
			})
			g.Go(func() error {
				sup.Loop.Run(gctx, c.AppConfig.Loop.Tick)
				return nil
			})
			startPollers(gctx, g, c, sup)

			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Serving on %s\n", c.Config.SocketPath)
			return g.Wait()
		},
	}
}

// startPollers runs both pollers on their configured intervals.
func startPollers(ctx context.Context, g *errgroup.Group, c *app.Container, sup *app.Supervisor) {
	g.Go(func() error {
		poller.Every(ctx, c.AppConfig.Poll.UsageInterval, sup.Usage.Trigger)
		return nil
	})
	g.Go(func() error {
		poller.Every(ctx, c.AppConfig.Poll.CompletionInterval, sup.Completion.Trigger)
		return nil
	})
}

// newDashboardCommand creates the dashboard command.
func newDashboardCommand(c *app.Container) *cobra.Command {
	var viewOnly bool

	cmd := &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"ui"},
		Short:   "Open the interactive dashboard",
		Long: `Open the interactive dashboard.

The dashboard hosts the status service, pollers and control loop unless
'deck serve' is already running or --view-only is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDashboard(cmd, c, viewOnly)
		},
	}

	cmd.Flags().BoolVar(&viewOnly, "view-only", false, "Do not run the control loop")

	return cmd
}

// runDashboard runs the dashboard, hosting the supervisor when no other
// process serves the socket.
func runDashboard(cmd *cobra.Command, c *app.Container, viewOnly bool) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	deps := tui.Deps{
		Overview:   c.OverviewUseCase(),
		Launch:     c.LaunchTaskUseCase(),
		MarkDone:   c.MarkDoneUseCase(),
		Clock:      c.Clock,
		AttachArgs: c.Tmux.AttachArgs,
		Interval:   c.AppConfig.Loop.Tick,
	}

	g, gctx := errgroup.WithContext(ctx)
	if !viewOnly {
		server := statusrpc.NewServer(c.Config.SocketPath, c.StatusChannel(), c.Logger)
		switch err := server.Listen(); {
		case errors.Is(err, statusrpc.ErrAlreadyServing):
			// Another process supervises; only display.
		case err != nil:
			return err
		default:
			sup := c.Supervisor()
			deps.Loop = sup.Loop
			g.Go(func() error {
				return server.Serve(gctx)
			})
			startPollers(gctx, g, c, sup)
		}
	}

	p := tea.NewProgram(tui.New(deps), tea.WithAltScreen(), tea.WithContext(ctx))
	_, runErr := p.Run()

	cancel()
	if err := g.Wait(); err != nil && runErr == nil {
		runErr = err
	}
	if errors.Is(runErr, tea.ErrProgramKilled) {
		return nil
	}
	return runErr
}
