package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"shelfsync/internal/platform/config"
	"shelfsync/internal/platform/logger"
	"shelfsync/internal/source"
)

// newRunCmd executes exactly one batch from a CSV export and exits, for
// schedulers that shell out instead of hitting the trigger endpoint.
func newRunCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one reconciliation batch from a CSV export",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			log := logger.New()

			if file == "" {
				file = cfg.SourcePath
			}
			if file == "" {
				return fmt.Errorf("no source: pass --file or set SHELFSYNC_SOURCE_PATH")
			}

			ctx := cmd.Context()
			a, err := buildApp(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			rows, err := source.NewCSV(file).Rows(ctx)
			if err != nil {
				return err
			}

			report, err := a.service.Run(ctx, rows)
			if err != nil {
				return err
			}
			return json.NewEncoder(os.Stdout).Encode(report)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "path to the CSV export")
	return cmd
}
