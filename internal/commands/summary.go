package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newSummaryCommand() *cobra.Command {
	var user, dir string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show a user's spending and risk summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummary(cmd.Context(), dir, user)
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "user ID (required)")
	_ = cmd.MarkFlagRequired("user")
	cmd.Flags().StringVar(&dir, "dir", ".", "project directory")

	return cmd
}

func runSummary(ctx context.Context, dir, user string) error {
	ws, err := openWorkspace(ctx, dir)
	if err != nil {
		return err
	}
	defer ws.Close()

	sum, err := ws.engine.Summary(ctx, user)
	if err != nil {
		return err
	}

	fmt.Printf("User %s: %d transactions, total spend %s\n",
		sum.UserID, sum.TransactionCount, sum.TotalSpend.StringFixed(2))
	fmt.Printf("Risk levels: %d normal, %d medium, %d high\n",
		sum.RiskLevels.Normal, sum.RiskLevels.Medium, sum.RiskLevels.High)

	if len(sum.Categories) > 0 {
		fmt.Println("By category:")
		for _, c := range sum.Categories {
			fmt.Printf("  %-16s %10s  (%d)\n", c.Category, c.Spend.StringFixed(2), c.Count)
		}
	}
	if len(sum.Monthly) > 0 {
		fmt.Println("By month:")
		for _, b := range sum.Monthly {
			fmt.Printf("  %s  %10s  (%d)\n", b.Start.Format("2006-01"), b.Spend.StringFixed(2), b.Count)
		}
	}
	return nil
}
