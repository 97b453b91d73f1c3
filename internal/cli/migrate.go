package cli

import (
	"fmt"

	"github.com/runoshun/agentdeck/internal/app"
	"github.com/spf13/cobra"
)

// newMigrateCommand creates the migrate command.
func newMigrateCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending store migrations",
		Long: `Apply pending store migrations and print the schema version.

Migrations also run whenever the store is opened; this command only
makes the upgrade explicit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			version, err := c.Store.SchemaVersion(cmd.Context())
			if err != nil {
				return fmt.Errorf("read schema version: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Store %s is at schema version %d\n", c.Config.StorePath, version)
			return nil
		},
	}
}
