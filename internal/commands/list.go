package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spendguard-dev/spendguard/internal/model"
	"github.com/spendguard-dev/spendguard/internal/normalize"
	"github.com/spendguard-dev/spendguard/internal/storage"
)

func newListCommand() *cobra.Command {
	var user, category, risk, from, to, dir string
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a user's transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := storage.ListOptions{
				Category: category,
				Limit:    limit,
				Offset:   offset,
			}

			switch risk {
			case "":
			case "normal", "medium", "high":
				opts.RiskLevel = model.RiskLevel(risk)
			default:
				return fmt.Errorf("invalid --risk %q (want normal, medium, or high)", risk)
			}

			var err error
			if from != "" {
				if opts.From, err = normalize.ParseDate(from); err != nil {
					return fmt.Errorf("invalid --from: %w", err)
				}
			}
			if to != "" {
				if opts.To, err = normalize.ParseDate(to); err != nil {
					return fmt.Errorf("invalid --to: %w", err)
				}
			}

			return runList(cmd.Context(), dir, user, opts)
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "user ID (required)")
	_ = cmd.MarkFlagRequired("user")
	cmd.Flags().StringVar(&category, "category", "", "filter by category")
	cmd.Flags().StringVar(&risk, "risk", "", "filter by risk level")
	cmd.Flags().StringVar(&from, "from", "", "earliest posted date")
	cmd.Flags().StringVar(&to, "to", "", "latest posted date")
	cmd.Flags().IntVar(&limit, "limit", 50, "page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "page offset")
	cmd.Flags().StringVar(&dir, "dir", ".", "project directory")

	return cmd
}

func runList(ctx context.Context, dir, user string, opts storage.ListOptions) error {
	ws, err := openWorkspace(ctx, dir)
	if err != nil {
		return err
	}
	defer ws.Close()

	txs, err := ws.engine.List(ctx, user, opts)
	if err != nil {
		return err
	}
	if len(txs) == 0 {
		fmt.Println("No transactions.")
		return nil
	}

	for _, tx := range txs {
		flags := ""
		if len(tx.AnomalyFlags) > 0 {
			flags = "  [" + strings.Join(tx.AnomalyFlags, ", ") + "]"
		}
		fmt.Printf("%s  %10s  %-24s  %-14s %-6s %.2f%s\n",
			tx.PostedDate.Format("2006-01-02"),
			tx.Amount.StringFixed(2),
			tx.NormalizedVendor,
			tx.Category,
			tx.RiskLevel,
			tx.RiskScore,
			flags)
	}
	return nil
}
