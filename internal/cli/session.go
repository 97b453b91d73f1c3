package cli

import (
	"fmt"

	"github.com/runoshun/agentdeck/internal/app"
	"github.com/runoshun/agentdeck/internal/usecase"
	"github.com/spf13/cobra"
)

// newLaunchCommand creates the launch command for starting a task.
func newLaunchCommand(c *app.Container) *cobra.Command {
	var focus bool

	cmd := &cobra.Command{
		Use:   "launch <id>",
		Short: "Start a pending task in a new session",
		Long: `Start a pending task in a new session.

A git worktree is created on branch deck/task-<id>, seeded with the
configured instructions and hooks, and the agent is started in a
detached tmux session with the task prompt.

Examples:
  deck launch 3
  deck launch 3 --focus`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseTaskID(args[0])
			if err != nil {
				return fmt.Errorf("invalid task ID: %w", err)
			}

			out, err := c.LaunchTaskUseCase().Execute(cmd.Context(), usecase.LaunchTaskInput{TaskID: taskID})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "Launched task #%d\n", taskID)
			_, _ = fmt.Fprintf(w, "  Session:   %s\n", out.SessionID)
			_, _ = fmt.Fprintf(w, "  Pane:      %s\n", out.Pane)
			_, _ = fmt.Fprintf(w, "  Workspace: %s\n", out.Workspace)

			if focus {
				return c.Terminal.Focus(out.Pane)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&focus, "focus", false, "Attach to the session after launching")

	return cmd
}

// newFocusCommand creates the focus command for switching to a session.
func newFocusCommand(c *app.Container) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "focus [task-id]",
		Short: "Switch the terminal to a session's pane",
		Long: `Switch the terminal to the pane of a task's active session.

Inside tmux the client is switched; otherwise the session is attached.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := usecase.FocusSessionInput{SessionID: sessionID}
			if len(args) == 1 {
				taskID, err := parseTaskID(args[0])
				if err != nil {
					return fmt.Errorf("invalid task ID: %w", err)
				}
				input.TaskID = taskID
			}
			if input.SessionID == "" && input.TaskID == 0 {
				return fmt.Errorf("task ID or --session is required")
			}

			_, err := c.FocusSessionUseCase().Execute(cmd.Context(), input)
			return err
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID")

	return cmd
}

// newTeardownCommand creates the teardown command.
func newTeardownCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "teardown <session-id>",
		Short: "Close a session and remove its worktree",
		Long: `Close a session: diff statistics are captured, the pane is closed and
the worktree is force-removed. Uncommitted work in it is lost.

The bound task keeps its status.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := c.TeardownSessionUseCase().Execute(cmd.Context(), usecase.TeardownSessionInput{
				SessionID: args[0],
			})
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "Tore down session %s\n", args[0])
			printDiff(w, out.Diff)
			return nil
		},
	}
}

// newLogsCommand creates the logs command.
func newLogsCommand(c *app.Container) *cobra.Command {
	var lines int

	cmd := &cobra.Command{
		Use:   "logs [task-id]",
		Short: "Show the global log or a task's log",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var taskID int64
			if len(args) == 1 {
				id, err := parseTaskID(args[0])
				if err != nil {
					return fmt.Errorf("invalid task ID: %w", err)
				}
				taskID = id
			}

			out, err := c.ShowLogsUseCase().Execute(cmd.Context(), usecase.ShowLogsInput{
				TaskID: taskID,
				Lines:  lines,
			})
			if err != nil {
				return err
			}
			if out.Content != "" {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), out.Content)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines from the end (0 = all)")

	return cmd
}
