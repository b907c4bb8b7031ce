package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pipelineiq/pipelineiq/internal/store"
)

func init() {
	rootCmd.AddCommand(newLeadsCmd())
}

func newLeadsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leads <company-id>",
		Short: "List a company's leads",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			companyID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || companyID <= 0 {
				return fmt.Errorf("invalid company id: %s", args[0])
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

				fmt.Printf("COMPANY: %s\n", company.Name)
				fmt.Println()

				if len(leads) == 0 {
					fmt.Println("No leads yet.")
					return nil
				}

				fmt.Println("ID     LEAD              STAGE        TOUCHES  DEAL VALUE")
				fmt.Println(strings.Repeat("─", 58))
				for _, l := range leads {
					name := l.Name
					if len(name) > 16 {
						name = name[:13] + "..."
					}
					fmt.Printf("%-5d  %-16s  %-11s  %-7d  $%.2f\n",
						l.ID, name, l.Stage, len(l.Touchpoints), l.DealValue)
				}
				fmt.Printf("\n%d lead(s)\n", len(leads))
				return nil
			})
		},
	}

	return cmd
}
