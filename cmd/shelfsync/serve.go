package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"shelfsync/internal/platform/config"
	"shelfsync/internal/platform/httpserver"
	"shelfsync/internal/platform/logger"
	"shelfsync/internal/source"
	httptransport "shelfsync/internal/transport/http"
)

// newServeCmd runs the ops server: the scheduler's trigger endpoint plus
// health and metrics. Each trigger re-reads the configured CSV export.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the scheduler trigger endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			log := logger.New()

			if cfg.SourcePath == "" {
				return fmt.Errorf("SHELFSYNC_SOURCE_PATH is required")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := buildApp(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			handler := httptransport.NewHandler(a.service, source.NewCSV(cfg.SourcePath), log)
			srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler))

			log.Info("starting shelfsync", "addr", cfg.Addr)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
			return g.Wait()
		},
	}
}
