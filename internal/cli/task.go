package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/runoshun/agentdeck/internal/app"
	"github.com/runoshun/agentdeck/internal/domain"
	"github.com/runoshun/agentdeck/internal/usecase"
	"github.com/spf13/cobra"
)

// newNewCommand creates the new command for creating tasks.
func newNewCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Project     string
		Title       string
		Description string
		Mode        string
		Subtasks    []string
	}

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Queue a new task",
		Long: `Queue a new task at the end of a project's queue.

Autonomous tasks are fed to a finished session of the same project
without confirmation. Supervised tasks (the default) are only started
with 'deck launch'.

Examples:
  # Queue a supervised task
  deck new -p api --title "Fix login redirect"

  # Queue an autonomous task with steps
  deck new -p api --title "Add rate limiter" --mode autonomous \
    --step "Write middleware" --step "Add tests"

  # Task with a prompt body using HEREDOC
  deck new -p api --title "Refactor auth" --body "$(cat <<'EOF'
Move token parsing into its own package.
EOF
)"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := c.NewTaskUseCase().Execute(cmd.Context(), usecase.NewTaskInput{
				Project:     opts.Project,
				Title:       opts.Title,
				Description: opts.Description,
				Mode:        opts.Mode,
				Subtasks:    opts.Subtasks,
			})
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created task #%d\n", out.TaskID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Project, "project", "p", "", "Project name (required)")
	cmd.Flags().StringVar(&opts.Title, "title", "", "Task title (required)")
	cmd.Flags().StringVar(&opts.Description, "body", "", "Task prompt")
	cmd.Flags().StringVar(&opts.Mode, "mode", string(domain.ModeSupervised), "autonomous or supervised")
	cmd.Flags().StringArrayVar(&opts.Subtasks, "step", nil, "Ordered subtask (can specify multiple)")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

// newListCommand creates the list command for listing tasks.
func newListCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Project string
		Status  string
	}

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks in queue order",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			input := usecase.ListTasksInput{Project: opts.Project}
			if opts.Status != "" {
				status := domain.Status(opts.Status)
				if !status.IsValid() {
					return fmt.Errorf("invalid status: %q", opts.Status)
				}
				input.Status = &status
			}

			out, err := c.ListTasksUseCase().Execute(cmd.Context(), input)
			if err != nil {
				return err
			}
			printTaskList(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Project, "project", "p", "", "Filter by project")
	cmd.Flags().StringVar(&opts.Status, "status", "", "Filter by status")

	return cmd
}

// printTaskList prints tasks in a table.
func printTaskList(w io.Writer, out *usecase.ListTasksOutput) {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	defer func() { _ = tw.Flush() }()

	_, _ = fmt.Fprintln(tw, "ID\tPROJECT\tSTATUS\tMODE\tTOKENS\tTITLE")
	for _, task := range out.Tasks {
		project := "-"
		if p := out.Projects[task.ProjectID]; p != nil {
			project = p.Name
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\n",
			task.ID,
			project,
			task.Status,
			task.Mode,
			task.InputTokens+task.OutputTokens,
			task.Title,
		)
	}
}

// newRmCommand creates the rm command for deleting tasks.
func newRmCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a task",
		Long:  `Delete a task and its subtasks. Tasks bound to an active session cannot be deleted.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseTaskID(args[0])
			if err != nil {
				return fmt.Errorf("invalid task ID: %w", err)
			}
			if err := c.DeleteTaskUseCase().Execute(cmd.Context(), usecase.DeleteTaskInput{TaskID: taskID}); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted task #%d\n", taskID)
			return nil
		},
	}
}

// newMoveCommand creates the move command for reordering the queue.
func newMoveCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <up|down>",
		Short: "Move a task within its project's queue",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseTaskID(args[0])
			if err != nil {
				return fmt.Errorf("invalid task ID: %w", err)
			}
			var up bool
			switch args[1] {
			case "up":
				up = true
			case "down":
			default:
				return fmt.Errorf("invalid direction %q: must be up or down", args[1])
			}
			if err := c.MoveTaskUseCase().Execute(cmd.Context(), usecase.MoveTaskInput{TaskID: taskID, Up: up}); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Moved task #%d %s\n", taskID, args[1])
			return nil
		},
	}
}

// newImportCommand creates the import command for bulk task creation.
func newImportCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Project string
		DryRun  bool
	}

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Queue tasks from a YAML file",
		Long: `Queue tasks from a YAML file. Use - to read standard input.

File format:
  tasks:
    - title: Add login page
      mode: autonomous
      description: Use the existing session middleware.
      subtasks:
        - Write the handler
        - Add tests
    - title: Update README`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var content []byte
			var err error
			if args[0] == "-" {
				content, err = io.ReadAll(cmd.InOrStdin())
			} else {
				content, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("read file: %w", err)
			}

			out, err := c.ImportTasksUseCase().Execute(cmd.Context(), usecase.ImportTasksInput{
				Project: opts.Project,
				Content: string(content),
				DryRun:  opts.DryRun,
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if opts.DryRun {
				_, _ = fmt.Fprintln(w, "Dry run - tasks that would be created:")
			}
			for i, draft := range out.Drafts {
				if opts.DryRun {
					_, _ = fmt.Fprintf(w, "Task %d: %s\n", i+1, draft.Title)
				} else {
					_, _ = fmt.Fprintf(w, "Created task #%d: %s\n", out.TaskIDs[i], draft.Title)
				}
				if len(draft.Subtasks) > 0 {
					_, _ = fmt.Fprintf(w, "  Steps: %s\n", strings.Join(draft.Subtasks, "; "))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Project, "project", "p", "", "Project name (required)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Validate without creating tasks")
	_ = cmd.MarkFlagRequired("project")

	return cmd
}

// newDoneCommand creates the done command confirming a reviewed task.
func newDoneCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Confirm a task in review as done",
		Long: `Confirm a task in review as done.

If the task's session still serves this task it is torn down: the pane
is closed and the worktree removed. Uncommitted work in it is lost.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseTaskID(args[0])
			if err != nil {
				return fmt.Errorf("invalid task ID: %w", err)
			}
			out, err := c.MarkDoneUseCase().Execute(cmd.Context(), usecase.MarkDoneInput{TaskID: taskID})
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "Task #%d is done\n", taskID)
			if out.Teardown != nil {
				_, _ = fmt.Fprintf(w, "Tore down session %s\n", out.SessionID)
				printDiff(w, out.Teardown.Diff)
			}
			return nil
		},
	}
}

// newErrorCommand creates the error command failing a running task.
func newErrorCommand(c *app.Container) *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "error <id>",
		Short: "Mark a running task as failed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseTaskID(args[0])
			if err != nil {
				return fmt.Errorf("invalid task ID: %w", err)
			}
			if err := c.MarkErrorUseCase().Execute(cmd.Context(), usecase.MarkErrorInput{
				TaskID:  taskID,
				Message: message,
			}); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Task #%d marked as error\n", taskID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "Reason shown on the session")

	return cmd
}

// parseTaskID parses a task ID string (with or without # prefix).
func parseTaskID(s string) (int64, error) {
	// Remove leading # if present
	s = strings.TrimPrefix(s, "#")
	var id int64
	_, err := fmt.Sscanf(s, "%d", &id)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, fmt.Errorf("task ID must be positive")
	}
	return id, nil
}

func printDiff(w io.Writer, diff *domain.DiffStats) {
	if diff == nil {
		return
	}
	_, _ = fmt.Fprintf(w, "  %d files changed, +%d -%d\n", diff.FilesChanged, diff.LinesAdded, diff.LinesRemoved)
}
