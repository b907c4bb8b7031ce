package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pipelineiq/pipelineiq/internal/attribution"
	"github.com/pipelineiq/pipelineiq/internal/budget"
	"github.com/pipelineiq/pipelineiq/internal/store"
)

func init() {
	rootCmd.AddCommand(newRecommendCmd())
}

func newRecommendCmd() *cobra.Command {
	var modelName string

	cmd := &cobra.Command{
		Use:   "recommend <company-id>",
		Short: "Show budget recommendations for a company",
		Long: `Evaluate every campaign against the cohort averages and print
ranked budget recommendations.

Example:
  piq recommend 1 --model linear`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			companyID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || companyID <= 0 {
				return fmt.Errorf("invalid company id: %s", args[0])
			}

			model := attribution.Model(modelName)
			if !model.Valid() {
				return fmt.Errorf("invalid model '%s' (valid: %v)", modelName, attribution.Models())
			}

			return withStore(func(s *store.SQLiteStore) error {
				ctx := context.Background()

				company, err := s.GetCompany(ctx, companyID)
				if err != nil {
					if err == store.ErrNotFound {
						return fmt.Errorf("company %d not found", companyID)
					}
					return fmt.Errorf("failed to get company: %w", err)
				}

				campaigns, err := s.ListCampaigns(ctx, companyID)
				if err != nil {
					return fmt.Errorf("failed to list campaigns: %w", err)
				}
				aggs, err := s.CampaignAggregates(ctx, companyID, string(model))
				if err != nil {
					return fmt.Errorf("failed to aggregate attribution: %w", err)
				}

				recs := budget.Recommend(budget.DeriveAll(campaigns, aggs))

				fmt.Printf("COMPANY: %s\n", company.Name)
				fmt.Printf("MODEL: %s\n", model)
				fmt.Println()

				if len(recs) == 0 {
					fmt.Println("No recommendations. Create campaigns and run attribution first.")
					return nil
				}

				for i, r := range recs {
					fmt.Printf("%d. [%s] %s: %s\n", i+1, strings.ToUpper(r.Priority), r.Kind, r.CampaignName)
					fmt.Printf("   %s\n", r.Action)
					if r.TargetBudget != nil {
						fmt.Printf("   Target budget: $%.2f\n", *r.TargetBudget)
					}
					fmt.Printf("   Confidence: %.0f%%\n", r.Confidence*100)
					fmt.Println()
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&modelName, "model", "m", string(attribution.Linear), "attribution model")

	return cmd
}
