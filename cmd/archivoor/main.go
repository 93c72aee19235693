package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ethpandaops/archivoor/pkg/archive"
	"github.com/ethpandaops/archivoor/pkg/config"
	"github.com/ethpandaops/archivoor/pkg/docstore"
)

var (
	// Version information set at build time.
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	cfgFiles []string
	logLevel string
	log      *logrus.Logger
)

func main() {
	log = logrus.New()
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if err := rootCmd.Execute(); err != nil {
		log.WithError(err).Fatal("Failed to execute command")
	}
}

var rootCmd = &cobra.Command{
	Use:   "archivoor",
	Short: "Test run result archive tooling",
	Long: `Archivoor is the archival and retrieval layer for test run results.
It talks to a remote document store over HTTP and provides optimistic
updates, cascading discards, and criteria-based searches for run records.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", logLevel, err)
		}

		log.SetLevel(level)

		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("archivoor %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&cfgFiles, "config", nil,
		"config file path (repeatable, later files override earlier ones)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level ("+strings.Join(logLevels(), ", ")+")")

	rootCmd.AddCommand(versionCmd)
}

func logLevels() []string {
	levels := make([]string, 0, len(logrus.AllLevels))
	for _, level := range logrus.AllLevels {
		levels = append(levels, level.String())
	}

	return levels
}

// loadStoreConfig loads and validates the config for commands that talk to
// the remote document store.
func loadStoreConfig() (*config.Config, error) {
	if len(cfgFiles) == 0 {
		return nil, fmt.Errorf("config file is required (use --config)")
	}

	cfg, err := config.Load(cfgFiles...)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.ValidateStore(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// newArchive builds the document store client and the archive facade.
func newArchive(
	cfg *config.Config,
) (archive.Archive, docstore.Client, error) {
	client, err := docstore.NewClient(log, docstore.Options{
		URL:     cfg.Store.URL,
		Token:   cfg.Store.Token,
		Timeout: cfg.StoreTimeout(),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating store client: %w", err)
	}

	arc := archive.New(log, client, archive.Options{
		Collections: archive.Collections{
			Runs:      cfg.Archive.Collections.Runs,
			Logs:      cfg.Archive.Collections.Logs,
			Artifacts: cfg.Archive.Collections.Artifacts,
		},
		MaxUpdateAttempts: cfg.Archive.MaxUpdateAttempts,
	})

	return arc, client, nil
}
