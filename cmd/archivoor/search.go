package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ethpandaops/archivoor/pkg/archive"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search archived runs",
	Long: `Search the result archive for runs matching the given criteria.
All criteria combine with logical AND; repeated values within one flag
match any-of. Results are printed as JSON.`,
	RunE: runSearch,
}

var (
	searchRunNames      []string
	searchTestNames     []string
	searchResults       []string
	searchGroups        []string
	searchSubmissionIDs []string
	searchTags          []string
	searchDetails       []string
	searchQueuedFrom    string
	searchQueuedTo      string
)

func init() {
	searchCmd.Flags().StringSliceVar(&searchRunNames, "run-name", nil,
		"run name to match (repeatable)")
	searchCmd.Flags().StringSliceVar(&searchTestNames, "test-name", nil,
		"test name to match (repeatable)")
	searchCmd.Flags().StringSliceVar(&searchResults, "result", nil,
		"run result to match (repeatable)")
	searchCmd.Flags().StringSliceVar(&searchGroups, "group", nil,
		"run group to match (repeatable)")
	searchCmd.Flags().StringSliceVar(&searchSubmissionIDs, "submission-id",
		nil, "submission id to match (repeatable)")
	searchCmd.Flags().StringSliceVar(&searchTags, "tag", nil,
		"tag to match (repeatable)")
	searchCmd.Flags().StringSliceVar(&searchDetails, "detail", nil,
		"optional sub-structure to attach to results (repeatable)")
	searchCmd.Flags().StringVar(&searchQueuedFrom, "queued-from", "",
		"inclusive lower bound on queued time (RFC 3339)")
	searchCmd.Flags().StringVar(&searchQueuedTo, "queued-to", "",
		"exclusive upper bound on queued time (RFC 3339)")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadStoreConfig()
	if err != nil {
		return err
	}

	criteria, err := buildSearchCriteria()
	if err != nil {
		return err
	}

	arc, _, err := newArchive(cfg)
	if err != nil {
		return err
	}

	runs, err := arc.SearchRuns(context.Background(), criteria...)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if err := enc.Encode(runs); err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}

	return nil
}

// buildSearchCriteria translates the command flags into search criteria.
func buildSearchCriteria() ([]archive.Criterion, error) {
	var criteria []archive.Criterion

	if searchQueuedFrom != "" {
		t, err := time.Parse(time.RFC3339, searchQueuedFrom)
		if err != nil {
			return nil, fmt.Errorf(
				"parsing --queued-from %q: %w", searchQueuedFrom, err,
			)
		}

		criteria = append(criteria, archive.QueuedFrom(t))
	}

	if searchQueuedTo != "" {
		t, err := time.Parse(time.RFC3339, searchQueuedTo)
		if err != nil {
			return nil, fmt.Errorf(
				"parsing --queued-to %q: %w", searchQueuedTo, err,
			)
		}

		criteria = append(criteria, archive.QueuedTo(t))
	}

	if len(searchRunNames) > 0 {
		criteria = append(criteria, archive.RunName(searchRunNames))
	}

	if len(searchTestNames) > 0 {
		criteria = append(criteria, archive.TestName(searchTestNames))
	}

	if len(searchResults) > 0 {
		criteria = append(criteria, archive.Result(searchResults))
	}

	if len(searchGroups) > 0 {
		criteria = append(criteria, archive.Group(searchGroups))
	}

	if len(searchSubmissionIDs) > 0 {
		criteria = append(criteria, archive.SubmissionID(searchSubmissionIDs))
	}

	if len(searchTags) > 0 {
		criteria = append(criteria, archive.Tags(searchTags))
	}

	if len(searchDetails) > 0 {
		criteria = append(criteria, archive.Detail(searchDetails))
	}

	return criteria, nil
}
