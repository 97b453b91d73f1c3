package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/runoshun/agentdeck/internal/app"
	"github.com/runoshun/agentdeck/internal/domain"
	"github.com/runoshun/agentdeck/internal/usecase"
	"github.com/spf13/cobra"
)

// newShowCommand creates the show command for displaying task details.
func newShowCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show task details",
		Long: `Show a task with its steps, usage and the session serving it.

Example:
  deck show 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseTaskID(args[0])
			if err != nil {
				return fmt.Errorf("invalid task ID: %w", err)
			}
			out, err := c.ShowTaskUseCase().Execute(cmd.Context(), usecase.ShowTaskInput{TaskID: taskID})
			if err != nil {
				return err
			}
			printTaskDetails(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

// printTaskDetails prints a task in a human-readable format.
func printTaskDetails(w io.Writer, out *usecase.ShowTaskOutput) {
	task := out.Task
	_, _ = fmt.Fprintf(w, "#%d %s\n\n", task.ID, task.Title)

	project := "-"
	if out.Project != nil {
		project = out.Project.Name
	}
	_, _ = fmt.Fprintf(w, "Project: %s\n", project)
	_, _ = fmt.Fprintf(w, "Status: %s\n", task.Status.Display())
	_, _ = fmt.Fprintf(w, "Mode: %s\n", task.Mode)
	_, _ = fmt.Fprintf(w, "Created: %s\n", task.Created.Format("2006-01-02 15:04"))
	if task.StartedAt != nil {
		_, _ = fmt.Fprintf(w, "Started: %s\n", task.StartedAt.Format("2006-01-02 15:04"))
	}
	if task.CompletedAt != nil {
		_, _ = fmt.Fprintf(w, "Completed: %s\n", task.CompletedAt.Format("2006-01-02 15:04"))
	}
	if task.PRURL != "" {
		_, _ = fmt.Fprintf(w, "PR: %s\n", task.PRURL)
	}
	_, _ = fmt.Fprintf(w, "Tokens: %d in / %d out ($%.2f)\n", task.InputTokens, task.OutputTokens, task.Cost)

	if len(out.Subtasks) > 0 {
		_, _ = fmt.Fprintln(w, "\nSteps:")
		for i, st := range out.Subtasks {
			mark := " "
			switch st.Status {
			case domain.SubtaskDone:
				mark = "x"
			case domain.SubtaskInProgress:
				mark = ">"
			}
			_, _ = fmt.Fprintf(w, "  [%s] %d. %s\n", mark, i+1, st.Title)
		}
	}

	if s := out.Session; s != nil {
		_, _ = fmt.Fprintln(w, "\nSession:")
		_, _ = fmt.Fprintf(w, "  ID: %s\n", s.ID)
		_, _ = fmt.Fprintf(w, "  Pane: %s\n", s.Pane)
		_, _ = fmt.Fprintf(w, "  Workspace: %s\n", s.Workspace)
		agent := string(s.AgentStatus)
		if s.StatusMessage != "" {
			agent += " (" + s.StatusMessage + ")"
		}
		_, _ = fmt.Fprintf(w, "  Agent: %s\n", agent)
		if !s.IsActive() {
			_, _ = fmt.Fprintf(w, "  Closed: %s\n", s.ClosedAt.Format("2006-01-02 15:04"))
		}
		printDiff(w, s.Diff)
	}

	if strings.TrimSpace(task.Description) != "" {
		_, _ = fmt.Fprintf(w, "\nDescription:\n%s\n", task.Description)
	}
}

// newPruneCommand creates the prune command for removing finished tasks.
func newPruneCommand(c *app.Container) *cobra.Command {
	var opts usecase.PruneTasksInput

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete done tasks",
		Long: `Delete every task in the done state.

Tasks still bound to an active session are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := c.PruneTasksUseCase().Execute(cmd.Context(), opts)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(out.Deleted) == 0 {
				_, _ = fmt.Fprintln(w, "Nothing to prune")
			}
			verb := "Deleted"
			if opts.DryRun {
				verb = "Would delete"
			}
			for _, task := range out.Deleted {
				_, _ = fmt.Fprintf(w, "%s task #%d: %s\n", verb, task.ID, task.Title)
			}
			for _, task := range out.Skipped {
				_, _ = fmt.Fprintf(w, "Skipped task #%d: session still active\n", task.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Project, "project", "p", "", "Limit to one project")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Only list what would be deleted")

	return cmd
}

// newPeekCommand creates the peek command for viewing a pane without attaching.
func newPeekCommand(c *app.Container) *cobra.Command {
	var lines int

	cmd := &cobra.Command{
		Use:   "peek <task-id>",
		Short: "Print the latest output of a task's session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseTaskID(args[0])
			if err != nil {
				return fmt.Errorf("invalid task ID: %w", err)
			}
			out, err := c.PeekSessionUseCase().Execute(cmd.Context(), usecase.PeekSessionInput{
				TaskID: taskID,
				Lines:  lines,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), out.Output)
			return nil
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", usecase.DefaultPeekLines, "Number of lines to capture")

	return cmd
}

// newSendCommand creates the send command for typing into a task's session.
func newSendCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "send <task-id> <text>...",
		Short: "Type a message into a task's session",
		Long: `Type a message into the agent pane of a task, followed by Enter.

Example:
  deck send 3 also update the changelog`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseTaskID(args[0])
			if err != nil {
				return fmt.Errorf("invalid task ID: %w", err)
			}
			text := strings.Join(args[1:], " ")
			if err := c.SendKeysUseCase().Execute(cmd.Context(), usecase.SendKeysInput{TaskID: taskID, Text: text}); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Sent to task #%d\n", taskID)
			return nil
		},
	}
}

// newDiffCommand creates the diff command for a task's change statistics.
func newDiffCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "diff <task-id>",
		Short: "Show how much a task has changed",
		Long: `Show files and lines changed since the session's base commit.

Active sessions are measured now; torn down sessions show the statistics
captured at teardown.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseTaskID(args[0])
			if err != nil {
				return fmt.Errorf("invalid task ID: %w", err)
			}
			out, err := c.ShowDiffUseCase().Execute(cmd.Context(), usecase.ShowDiffInput{TaskID: taskID})
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "Task #%d (%s from %s)\n", taskID, out.Workspace, shortCommit(out.BaseCommit))
			printDiff(w, &out.Stats)
			if out.Final {
				_, _ = fmt.Fprintln(w, "  captured at teardown")
			}
			return nil
		},
	}
}

func shortCommit(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
