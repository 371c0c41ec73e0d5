package seed

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/simple-easy-sites/simple-sales-crm/apps/cli/cmd/workspace"
)

// Command fills an agent's workspace with demo leads and quick notes.
func Command() *cobra.Command {
	var (
		opts       workspace.Options
		leadCount  int
		noteCount  int
		randomSeed int64
	)

	c := &cobra.Command{
		Use:   "seed",
		Short: "Create demo leads and quick notes for an agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			if leadCount < 0 || noteCount < 0 {
				return fmt.Errorf("counts must not be negative")
			}

			ctx, ws, err := workspace.Open(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer ws.Close()

			logger := workspace.Logger(ctx)
			gen := NewGenerator(randomSeed)
			today := time.Now().In(ws.Location)

			for i := 0; i < leadCount; i++ {
				lead, err := ws.Leads.Create(ctx, gen.Lead(today))
				if err != nil {
					return fmt.Errorf("create lead %d: %w", i+1, err)
				}
				logger.Debug("seeded lead", zap.String("lead_id", lead.ID.String()), zap.String("status", string(lead.Status)))
			}
			for i := 0; i < noteCount; i++ {
				if _, err := ws.QuickNotes.Create(ctx, gen.QuickNote()); err != nil {
					return fmt.Errorf("create quick note %d: %w", i+1, err)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Seed complete. Agent: %s | Leads: %d | Quick notes: %d\n", opts.AgentID, leadCount, noteCount)
			return nil
		},
	}

	opts.Bind(c, true)
	c.Flags().IntVar(&leadCount, "leads", 25, "number of leads to create")
	c.Flags().IntVar(&noteCount, "quick-notes", 5, "number of pending quick notes to create")
	c.Flags().Int64Var(&randomSeed, "seed", 0, "random seed; 0 picks one")

	return c
}
