package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ethpandaops/archivoor/pkg/archive"
	"github.com/ethpandaops/archivoor/pkg/docstore"
)

var discardCmd = &cobra.Command{
	Use:   "discard <run-id>",
	Short: "Discard a run and all of its records",
	Long: `Delete a run's log records, artifact records, and finally the run
document itself. The cascade is not atomic: if any record fails to delete
the run document stays in place and the command can safely be re-run.`,
	Args: cobra.ExactArgs(1),
	RunE: runDiscard,
}

func init() {
	rootCmd.AddCommand(discardCmd)
}

func runDiscard(cmd *cobra.Command, args []string) error {
	runID := args[0]
	ctx := context.Background()

	cfg, err := loadStoreConfig()
	if err != nil {
		return err
	}

	arc, client, err := newArchive(cfg)
	if err != nil {
		return err
	}

	doc, err := client.Get(ctx, cfg.Archive.Collections.Runs, runID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			log.WithField("run_id", runID).
				Info("Run document already absent, nothing to discard")

			return nil
		}

		return fmt.Errorf("fetching run document: %w", err)
	}

	var run archive.RunRecord
	if err := json.Unmarshal(doc.Fields, &run); err != nil {
		return fmt.Errorf("decoding run document: %w", err)
	}

	run.ID = runID

	return arc.DiscardRun(ctx, &run)
}
