package bootstrap

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simple-easy-sites/simple-sales-crm/apps/cli/cmd/workspace"
	"github.com/simple-easy-sites/simple-sales-crm/platform/go/persistence"
)

// Notes/constraints:
// - Bootstrap is idempotent: every DDL statement uses IF NOT EXISTS.
// - The schema is created when missing and the DDL runs in one transaction.

// Command applies the CRM schema.
func Command() *cobra.Command {
	var opts workspace.Options

	c := &cobra.Command{
		Use:   "bootstrap",
		Short: "Create the leads and quick_notes tables",
		Long:  "Create the target schema if missing and apply the embedded leads and quick notes DDL.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			pool, err := workspace.Connect(ctx, opts)
			if err != nil {
				return err
			}
			defer persistence.ClosePool(pool)

			schema := opts.Schema
			if schema == "" {
				schema = persistence.DefaultSchema
			}
			if err := persistence.BootstrapSchema(ctx, pool, schema); err != nil {
				return fmt.Errorf("bootstrap schema: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Bootstrap complete. Schema: %s\n", schema)
			return nil
		},
	}

	opts.Bind(c, false)
	return c
}
