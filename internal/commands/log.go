package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/spendguard-dev/spendguard/internal/auditlog"
)

func newLogCommand() *cobra.Command {
	var dir string
	var limit int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the batch processing log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			return runLog(absDir, limit)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "project directory")
	cmd.Flags().IntVar(&limit, "limit", 20, "number of recent batches to show")

	return cmd
}

func runLog(dir string, limit int) error {
	entries, err := auditlog.Read(dir)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No batches processed.")
		return nil
	}

	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	for _, e := range entries {
		fmt.Printf("%s  %s  user=%s  accepted=%d rejected=%d  %dms  %s\n",
			e.Timestamp.Format("2006-01-02 15:04:05"),
			e.BatchID,
			e.UserID,
			e.Accepted,
			e.Rejected,
			e.Duration.Milliseconds(),
			e.Status)
	}
	return nil
}
