// Package cli provides the command-line interface for agentdeck.
package cli

import (
	"fmt"

	"github.com/runoshun/agentdeck/internal/app"
	"github.com/spf13/cobra"
)

// Command group IDs.
const (
	groupSetup   = "setup"
	groupTask    = "task"
	groupSession = "session"
	groupAgent   = "agent"
)

// NewRootCommand creates the root command for agentdeck.
// It receives the container for dependency injection and version for display.
func NewRootCommand(c *app.Container, version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "deck",
		Short: "Supervise AI coding agents across projects",
		Long: `agentdeck runs AI coding agents in isolated git worktrees and tmux
sessions, one task per session, and feeds autonomous sessions the next
queued task of their project when they finish.

Run without arguments to open the dashboard.`,
		Version: version,
		// SilenceUsage prevents usage from being printed on errors
		SilenceUsage: true,
		// SilenceErrors prevents Cobra from printing errors (we handle it in main)
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip if container is nil (e.g. in tests)
			if c == nil || c.AppConfig == nil {
				return nil
			}
			for _, w := range c.AppConfig.Warnings {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", w)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDashboard(cmd, c, false)
		},
	}

	// Define command groups
	root.AddGroup(
		&cobra.Group{ID: groupSetup, Title: "Setup Commands:"},
		&cobra.Group{ID: groupTask, Title: "Task Management:"},
		&cobra.Group{ID: groupSession, Title: "Session Management:"},
		&cobra.Group{ID: groupAgent, Title: "Agent Commands:"},
	)

	withGroup := func(id string, cmds ...*cobra.Command) []*cobra.Command {
		for _, cmd := range cmds {
			cmd.GroupID = id
		}
		return cmds
	}

	root.AddCommand(withGroup(groupSetup,
		newProjectCommand(c),
		newConfigCommand(c),
		newMigrateCommand(c),
	)...)
	root.AddCommand(withGroup(groupTask,
		newNewCommand(c),
		newListCommand(c),
		newShowCommand(c),
		newRmCommand(c),
		newPruneCommand(c),
		newMoveCommand(c),
		newImportCommand(c),
		newDoneCommand(c),
		newErrorCommand(c),
	)...)
	root.AddCommand(withGroup(groupSession,
		newLaunchCommand(c),
		newFocusCommand(c),
		newPeekCommand(c),
		newDiffCommand(c),
		newSendCommand(c),
		newTeardownCommand(c),
		newLogsCommand(c),
		newServeCommand(c),
		newDashboardCommand(c),
	)...)
	root.AddCommand(withGroup(groupAgent,
		newReportCommand(c),
		newMCPCommand(c, version),
	)...)

	return root
}
