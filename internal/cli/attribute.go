package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pipelineiq/pipelineiq/internal/attribution"
	"github.com/pipelineiq/pipelineiq/internal/store"
)

func init() {
	rootCmd.AddCommand(newAttributeCmd())
}

func newAttributeCmd() *cobra.Command {
	var modelName string

	cmd := &cobra.Command{
		Use:   "attribute <lead-id>",
		Short: "Recompute attribution for a lead",
		Long: `Recompute revenue attribution for one lead under one model and
replace the stored results for that lead/model pair.

Example:
  piq attribute 42 --model time_decay`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			leadID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || leadID <= 0 {
				return fmt.Errorf("invalid lead id: %s", args[0])
			}

			model := attribution.Model(modelName)
			if !model.Valid() {
				return fmt.Errorf("invalid model '%s' (valid: %v)", modelName, attribution.Models())
			}

			return withStore(func(s *store.SQLiteStore) error {
				ctx := context.Background()

				lead, err := s.GetLead(ctx, leadID)
				if err != nil {
					if err == store.ErrNotFound {
						return fmt.Errorf("lead %d not found", leadID)
					}
					return fmt.Errorf("failed to get lead: %w", err)
				}

				results, err := attribution.AttributeLead(ctx, s, leadID, model)
				if err != nil {
					return fmt.Errorf("failed to attribute lead: %w", err)
				}

				fmt.Printf("LEAD: %s (id %d)\n", lead.Name, lead.ID)
				fmt.Printf("MODEL: %s\n", model)
				fmt.Printf("DEAL VALUE: $%.2f\n", lead.DealValue)
				fmt.Println()

				if len(results) == 0 {
					fmt.Println("No touchpoints; stored attribution cleared.")
					return nil
				}

				fmt.Println("CAMPAIGN   WEIGHT    ATTRIBUTED REVENUE")
				for _, r := range results {
					var id int64
					if r.CampaignID != nil {
						id = *r.CampaignID
					}
					fmt.Printf("%-9d  %-8.4f  $%.2f\n", id, r.Weight, r.AttributedRevenue)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&modelName, "model", "m", string(attribution.Linear), "attribution model")

	return cmd
}
