package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/pipelineiq/pipelineiq/internal/seed"
	"github.com/pipelineiq/pipelineiq/internal/store"
)

func init() {
	rootCmd.AddCommand(newSeedCmd())
}

func newSeedCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the demo dataset",
		Long: `Load the demo dataset: one company, twelve campaigns and three
hundred leads, with attribution precomputed under every model.

Seeding is deterministic, so repeated runs into fresh databases
produce identical data.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(s *store.SQLiteStore) error {
				ctx := context.Background()

				companies, err := s.ListCompanies(ctx)
				if err != nil {
					return fmt.Errorf("failed to inspect database: %w", err)
				}
				if len(companies) > 0 && !yes {
					prompt := promptui.Prompt{
						Label:     fmt.Sprintf("Database already has %d company(ies). Seed anyway", len(companies)),
						IsConfirm: true,
					}
					if _, err := prompt.Run(); err != nil {
						if err == promptui.ErrInterrupt || err == promptui.ErrAbort {
							os.Exit(0)
						}
						fmt.Println("Aborted.")
						return nil
					}
				}

				result, err := seed.Run(ctx, s)
				if errors.Is(err, seed.ErrAlreadySeeded) {
					fmt.Println("Database already seeded. Nothing to do.")
					return nil
				}
				if err != nil {
					return fmt.Errorf("failed to seed database: %w", err)
				}

				fmt.Printf("Seeded demo company (id %d)\n", result.CompanyID)
				fmt.Printf("  Campaigns:           %d\n", result.Campaigns)
				fmt.Printf("  Leads:               %d\n", result.Leads)
				fmt.Printf("  Attribution results: %d\n", result.Results)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")

	return cmd
}
