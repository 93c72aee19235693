package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ethpandaops/archivoor/pkg/archive"
)

var updateCmd = &cobra.Command{
	Use:   "update <run-id>",
	Short: "Update a run's archived structure",
	Long: `Replace the archived structure of a run with the one read from
--file (YAML or JSON). The write uses optimistic concurrency: conflicting
writers are retried with the latest revision up to the configured bound.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpdate,
}

var updateFile string

func init() {
	updateCmd.Flags().StringVar(&updateFile, "file", "",
		"path to the run structure file (required)")
	_ = updateCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	runID := args[0]

	cfg, err := loadStoreConfig()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(updateFile)
	if err != nil {
		return fmt.Errorf("reading structure file: %w", err)
	}

	var structure archive.RunRecord
	if err := yaml.Unmarshal(data, &structure); err != nil {
		return fmt.Errorf("parsing structure file: %w", err)
	}

	arc, _, err := newArchive(cfg)
	if err != nil {
		return err
	}

	if err := arc.UpdateRunStructure(
		context.Background(), runID, &structure,
	); err != nil {
		return err
	}

	log.WithField("run_id", runID).
		WithField("revision", structure.Revision).
		Info("Run structure updated")

	return nil
}
