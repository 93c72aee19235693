package archive

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/archivoor/pkg/docstore"
)

// DefaultMaxUpdateAttempts bounds the optimistic update retry loop: two
// conflicts are tolerated, the third attempt must succeed.
const DefaultMaxUpdateAttempts = 3

// DefaultCollections are the store collections used when none are
// configured.
var DefaultCollections = Collections{
	Runs:      "runs",
	Logs:      "logs",
	Artifacts: "artifacts",
}

// Collections names the store collections holding run, log, and artifact
// documents.
type Collections struct {
	Runs      string
	Logs      string
	Artifacts string
}

// Archive exposes the result archive operations to the rest of the
// platform. These are the only entry points; no other shape of access to
// the archive is permitted. Implementations hold no state across calls, so
// concurrent use needs no synchronization beyond the store's revision
// checks.
type Archive interface {
	// UpdateRunStructure replaces the stored run document under
	// optimistic concurrency control, retrying on revision conflicts.
	UpdateRunStructure(
		ctx context.Context, runID string, structure *RunRecord,
	) error

	// DiscardRun deletes the run's log and artifact records and then the
	// run document itself. Not atomic across documents: a failure leaves
	// already-deleted dependents gone and the run document in place, and
	// re-running the discard converges.
	DiscardRun(ctx context.Context, run *RunRecord) error

	// SearchRuns returns the runs matching the AND-combined criteria.
	SearchRuns(
		ctx context.Context, criteria ...Criterion,
	) ([]RunRecord, error)
}

// Compile-time interface check.
var _ Archive = (*archive)(nil)

type archive struct {
	log               logrus.FieldLogger
	client            docstore.Client
	cols              Collections
	maxUpdateAttempts int
}

// Options tunes the archive engines.
type Options struct {
	// Collections overrides the default collection names.
	Collections Collections

	// MaxUpdateAttempts bounds the optimistic update retry loop.
	// Defaults to DefaultMaxUpdateAttempts.
	MaxUpdateAttempts int
}

// New creates an Archive backed by the given document store client.
func New(
	log logrus.FieldLogger,
	client docstore.Client,
	opts Options,
) Archive {
	cols := opts.Collections
	if cols.Runs == "" {
		cols.Runs = DefaultCollections.Runs
	}

	if cols.Logs == "" {
		cols.Logs = DefaultCollections.Logs
	}

	if cols.Artifacts == "" {
		cols.Artifacts = DefaultCollections.Artifacts
	}

	attempts := opts.MaxUpdateAttempts
	if attempts <= 0 {
		attempts = DefaultMaxUpdateAttempts
	}

	return &archive{
		log:               log.WithField("component", "archive"),
		client:            client,
		cols:              cols,
		maxUpdateAttempts: attempts,
	}
}

// SearchRuns builds one backend query from the criteria and runs it.
func (a *archive) SearchRuns(
	ctx context.Context, criteria ...Criterion,
) ([]RunRecord, error) {
	query := BuildQuery(criteria...)

	var runs []RunRecord
	if err := a.client.Query(ctx, a.cols.Runs, query, &runs); err != nil {
		return nil, fmt.Errorf("failed to search runs: %w", err)
	}

	a.log.WithField("criteria", len(criteria)).
		WithField("matches", len(runs)).
		Debug("Run search complete")

	return runs, nil
}
