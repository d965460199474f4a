package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rehmanul/okkyno.com-sub000/internal/api"
	"github.com/rehmanul/okkyno.com-sub000/internal/importer"
)

// serveCmd creates the "serve" subcommand.
func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the import trigger API",
		Long: `Serve the HTTP trigger API.

  POST /api/import/start      start a scrape import in the background
  POST /api/import/synthetic  start a synthetic import in the background
  GET  /api/import/runs       list runs
  GET  /api/import/runs/:id   one run with its per-item results
  GET  /api/health            liveness
  GET  /metrics               Prometheus metrics (when enabled)`,
		RunE: runServe,
	}
	cmd.Flags().String("addr", "", "listen address (overrides api.addr)")
	cmd.Flags().Bool("synthesize", false, "import a synthetic catalog when nothing is discovered")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer a.Close()

	im := importer.New(a.fetcher, a.store, a.cfg, a.logger, a.metrics)
	runner := importer.NewRunner(ctx, im, a.logger)

	srv := api.NewServer(a.cfg, runner, a.store.Name(), a.metrics, a.logger)
	if err := srv.Start(); err != nil {
		return fmt.Errorf("start API server: %w", err)
	}

	<-ctx.Done()
	a.logger.Info("received signal, shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("API shutdown", "error", err)
	}
	runner.Wait()
	return nil
}
