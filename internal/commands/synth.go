package commands

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/spendguard-dev/spendguard/internal/synth"
)

func newSynthCommand() *cobra.Command {
	var rows int
	var seed uint64
	var start string

	cmd := &cobra.Command{
		Use:   "synth [output-file]",
		Short: "Generate a synthetic statement CSV for demos and testing",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := synth.Options{Rows: rows, Seed: seed}
			if start != "" {
				t, err := time.Parse("2006-01-02", start)
				if err != nil {
					return fmt.Errorf("invalid --start: %w", err)
				}
				opts.Start = t
			}

			var out io.Writer = os.Stdout
			if len(args) > 0 {
				f, err := os.Create(args[0])
				if err != nil {
					return fmt.Errorf("creating output file: %w", err)
				}
				defer f.Close()
				out = f
			}

			return synth.WriteCSV(out, synth.Statement(opts))
		},
	}

	cmd.Flags().IntVar(&rows, "rows", 100, "number of statement rows")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "random seed")
	cmd.Flags().StringVar(&start, "start", "", "first posting date (YYYY-MM-DD)")

	return cmd
}
