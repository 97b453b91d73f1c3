package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/runoshun/agentdeck/internal/app"
	"github.com/runoshun/agentdeck/internal/usecase"
	"github.com/spf13/cobra"
)

// newProjectCommand creates the project command.
func newProjectCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage registered repositories",
		// No RunE: shows subcommand list when called without arguments
	}

	cmd.AddCommand(newProjectAddCommand(c))
	cmd.AddCommand(newProjectListCommand(c))
	cmd.AddCommand(newProjectRemoveCommand(c))

	return cmd
}

func newProjectAddCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> [path]",
		Short: "Register a repository as a project",
		Long: `Register a git repository as a project.

The path defaults to the current directory. Task worktrees are created
from the repository's HEAD.

Examples:
  deck project add api ~/src/api
  deck project add web`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) == 2 {
				path = args[1]
			}
			out, err := c.AddProjectUseCase().Execute(cmd.Context(), usecase.AddProjectInput{
				Name:     args[0],
				RepoPath: path,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added project %s (%s)\n", out.Project.Name, out.Project.RepoPath)
			return nil
		},
	}
}

func newProjectListCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List projects",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := c.ListProjectsUseCase().Execute(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			defer func() { _ = tw.Flush() }()

			_, _ = fmt.Fprintln(tw, "ID\tNAME\tPATH")
			for _, p := range out.Projects {
				_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\n", p.ID, p.Name, p.RepoPath)
			}
			return nil
		},
	}
}

func newProjectRemoveCommand(c *app.Container) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:     "remove <name>",
		Aliases: []string{"rm"},
		Short:   "Remove a project with its tasks and sessions",
		Long: `Remove a project together with its tasks, subtasks and session records.

Removal is refused while a session of the project is active. With --force
active sessions are torn down first; uncommitted work in their worktrees
is lost.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := c.RemoveProjectUseCase().Execute(cmd.Context(), usecase.RemoveProjectInput{
				Name:  args[0],
				Force: force,
			})
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, id := range out.TornDown {
				_, _ = fmt.Fprintf(w, "Tore down session %s\n", id)
			}
			_, _ = fmt.Fprintf(w, "Removed project %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Tear down active sessions first")

	return cmd
}
