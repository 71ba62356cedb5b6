package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/spendguard-dev/spendguard/internal/auditlog"
	"github.com/spendguard-dev/spendguard/internal/importer"
)

func newProcessCommand() *cobra.Command {
	var user string
	var format string
	var dir string

	cmd := &cobra.Command{
		Use:   "process <statement-file>",
		Short: "Score a statement file against a user's baseline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(cmd.Context(), dir, args[0], user, format)
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "user ID (required)")
	_ = cmd.MarkFlagRequired("user")
	cmd.Flags().StringVar(&format, "format", "csv", "statement format")
	cmd.Flags().StringVar(&dir, "dir", ".", "project directory")

	return cmd
}

func runProcess(ctx context.Context, dir, path, user, format string) error {
	ws, err := openWorkspace(ctx, dir)
	if err != nil {
		return err
	}
	defer ws.Close()

	parser, err := importer.DefaultRegistry().Get(format)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening statement: %w", err)
	}
	defer f.Close()

	rows, err := parser.Parse(f)
	if err != nil {
		return fmt.Errorf("parsing statement: %w", err)
	}

	started := time.Now()
	txs, report, batchErr := ws.engine.ProcessBatch(ctx, user, rows)

	status := "committed"
	if batchErr != nil {
		status = "failed"
	}
	entry := auditlog.Entry{
		Timestamp: time.Now().UTC(),
		BatchID:   uuid.NewString(),
		UserID:    user,
		Accepted:  report.AcceptedCount,
		Rejected:  len(report.RejectedRows),
		Duration:  time.Since(started),
		Status:    status,
	}
	if err := auditlog.Append(ws.root, []auditlog.Entry{entry}); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to write batch log: %v\n", err)
	}

	if batchErr != nil {
		return batchErr
	}

	fmt.Printf("Processed %d rows for %s: %d accepted, %d rejected\n",
		len(rows), user, report.AcceptedCount, len(report.RejectedRows))
	for _, r := range report.RejectedRows {
		fmt.Printf("  rejected row %d: %s\n", r.RowIndex+1, r.Reason)
	}

	flagged := 0
	for _, tx := range txs {
		if len(tx.AnomalyFlags) == 0 {
			continue
		}
		if flagged == 0 {
			fmt.Println("Flagged:")
		}
		flagged++
		fmt.Printf("  %s  %10s  %-24s  %-6s %.2f  [%s]\n",
			tx.PostedDate.Format("2006-01-02"),
			tx.Amount.StringFixed(2),
			tx.NormalizedVendor,
			tx.RiskLevel,
			tx.RiskScore,
			strings.Join(tx.AnomalyFlags, ", "))
	}
	if flagged == 0 {
		fmt.Println("No anomalies flagged.")
	}

	sum, err := ws.engine.Summary(ctx, user)
	if err != nil {
		return err
	}
	fmt.Printf("Totals: %d transactions, spend %s (%d normal / %d medium / %d high)\n",
		sum.TransactionCount, sum.TotalSpend.StringFixed(2),
		sum.RiskLevels.Normal, sum.RiskLevels.Medium, sum.RiskLevels.High)

	return nil
}
