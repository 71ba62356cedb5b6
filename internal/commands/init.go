package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/spendguard-dev/spendguard/internal/categories"
	"github.com/spendguard-dev/spendguard/internal/config"
)

func newInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new spendguard project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(absDir)
		},
	}
}

func runInit(dir string) error {
	for _, d := range []string{"rules", "logs", "statements"} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	// Write spendguard.yaml with stock thresholds.
	if err := config.Save(filepath.Join(dir, configFile), config.Default()); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Write the starter category rules.
	svc := categories.NewService(categories.DefaultRules())
	if err := svc.Save(filepath.Join(dir, rulesFile)); err != nil {
		return fmt.Errorf("writing category rules: %w", err)
	}

	gitignore := ".env\nlogs/\nstatements/\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	fmt.Printf("Initialized spendguard project at %s\n", dir)
	return nil
}
