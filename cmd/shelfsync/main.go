package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// main only assembles the command tree; wiring lives in app.go so both
// subcommands share one construction path.
func main() {
	root := &cobra.Command{
		Use:           "shelfsync",
		Short:         "Reconciles form-submitted borrow/return rows into the inventory ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newServeCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "shelfsync:", err)
		os.Exit(1)
	}
}
