package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pipelineiq/pipelineiq/internal/scoring"
	"github.com/pipelineiq/pipelineiq/internal/store"
)

func init() {
	rootCmd.AddCommand(newScoreCmd())
}

func newScoreCmd() *cobra.Command {
	var threshold float64

	cmd := &cobra.Command{
		Use:   "score <company-id>",
		Short: "Rank a company's leads by close probability",
		Long: `Score every open lead with the persisted deal-probability model
(training one if needed) and print those above the threshold,
best first.

Example:
  piq score 1 --threshold 60`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			companyID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || companyID <= 0 {
				return fmt.Errorf("invalid company id: %s", args[0])
			}
			if threshold < 0 || threshold > 100 {
				return fmt.Errorf("threshold must be between 0 and 100")
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

				leads, err := s.ListLeads(ctx, companyID)
				if err != nil {
					return fmt.Errorf("failed to list leads: %w", err)
				}
				costs, err := s.CampaignCosts(ctx, companyID)
				if err != nil {
					return fmt.Errorf("failed to load campaign costs: %w", err)
				}

				scored := scoring.NewScorer(s).ScoreLeads(ctx, leads, company.Industry, costs, threshold)

				fmt.Printf("COMPANY: %s\n", company.Name)
				fmt.Printf("THRESHOLD: %.0f\n", threshold)
				fmt.Println()

				if len(scored) == 0 {
					fmt.Println("No leads at or above the threshold.")
					return nil
				}

				fmt.Println("LEAD              STAGE        TOUCHES  DEAL VALUE   PROBABILITY")
				fmt.Println(strings.Repeat("─", 66))
				for _, l := range scored {
					name := l.Name
					if len(name) > 16 {
						name = name[:13] + "..."
					}
					fmt.Printf("%-16s  %-11s  %-7d  $%-10.2f  %.1f%%\n",
						name, l.Stage, l.Touchpoints, l.DealValue, l.Probability)
				}
				return nil
			})
		},
	}

	cmd.Flags().Float64VarP(&threshold, "threshold", "t", 50, "minimum probability to show (0-100)")

	return cmd
}
