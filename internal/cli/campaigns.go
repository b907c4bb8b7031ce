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
	rootCmd.AddCommand(newCampaignsCmd())
}

func newCampaignsCmd() *cobra.Command {
	var modelName string

	cmd := &cobra.Command{
		Use:   "campaigns <company-id>",
		Short: "List a company's campaigns with performance metrics",
		Args:  cobra.ExactArgs(1),
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

				metrics := budget.DeriveAll(campaigns, aggs)

				fmt.Printf("COMPANY: %s\n", company.Name)
				fmt.Printf("MODEL: %s\n", model)
				fmt.Println()

				if len(metrics) == 0 {
					fmt.Println("No campaigns yet.")
					return nil
				}

				fmt.Println("CAMPAIGN          PLATFORM   SPEND        LEADS  CONV  REVENUE       ROAS")
				fmt.Println(strings.Repeat("─", 76))
				for _, m := range metrics {
					name := m.CampaignName
					if len(name) > 16 {
						name = name[:13] + "..."
					}
					fmt.Printf("%-16s  %-9s  $%-10.2f  %-5d  %-4d  $%-11.2f  %.2f\n",
						name, m.Platform, m.Spend, m.Leads, m.Conversions, m.AttributedRevenue, m.ROAS)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&modelName, "model", "m", string(attribution.Linear), "attribution model")

	return cmd
}
