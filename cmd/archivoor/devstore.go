package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ethpandaops/archivoor/pkg/config"
	"github.com/ethpandaops/archivoor/pkg/devstore"
)

var devstoreCmd = &cobra.Command{
	Use:   "devstore",
	Short: "Run the development document store",
	Long: `Run a local document store implementing the archive wire contract
(per-document GET/PUT/DELETE with revision checks, plus a query endpoint).
Intended for development and integration testing, not production use.`,
	RunE: runDevStore,
}

func init() {
	rootCmd.AddCommand(devstoreCmd)
}

func runDevStore(cmd *cobra.Command, args []string) error {
	if len(cfgFiles) == 0 {
		return fmt.Errorf("config file is required (use --config)")
	}

	cfg, err := config.Load(cfgFiles...)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.ValidateDevStore(); err != nil {
		return fmt.Errorf("validating devstore config: %w", err)
	}

	// Set up context with signal handling.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	srv := devstore.NewServer(log, cfg.DevStore)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("starting devstore server: %w", err)
	}

	// Wait for shutdown signal.
	sig := <-sigCh
	log.WithField("signal", sig).Info("Shutting down devstore server")
	cancel()

	if err := srv.Stop(); err != nil {
		return fmt.Errorf("stopping devstore server: %w", err)
	}

	return nil
}
