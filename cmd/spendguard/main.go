package main

import (
	"os"

	"github.com/spendguard-dev/spendguard/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
