package archive

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ethpandaops/archivoor/pkg/docstore"
)

// DiscardRun deletes every log record, then every artifact record, then the
// run document itself. The store offers no multi-document transactions, so
// the cascade is fail-fast and not atomic: if any dependent deletion fails
// the run document is left in place and the already-deleted dependents stay
// gone. Re-running the discard converges because absent records are
// tolerated. Nothing here is retried; retry-after-partial-failure would
// mask inconsistent intermediate state.
func (a *archive) DiscardRun(ctx context.Context, run *RunRecord) error {
	log := a.log.WithField("run_id", run.ID)

	if err := a.deleteRecords(
		ctx, a.cols.Logs, run.LogRecordIDs,
	); err != nil {
		return fmt.Errorf("failed to discard run %s: %w", run.ID, err)
	}

	if err := a.deleteRecords(
		ctx, a.cols.Artifacts, run.ArtifactRecordIDs,
	); err != nil {
		return fmt.Errorf("failed to discard run %s: %w", run.ID, err)
	}

	// Every dependent is gone or was already absent; now the run document
	// itself may go.
	rev, err := a.resolveRevision(ctx, a.cols.Runs, run.ID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			log.Debug("Run document already absent")

			return nil
		}

		return fmt.Errorf("failed to discard run %s: %w", run.ID, err)
	}

	if err := a.client.Delete(
		ctx, a.cols.Runs, run.ID, rev,
	); err != nil && !errors.Is(err, docstore.ErrNotFound) {
		return fmt.Errorf("failed to discard run %s: %w", run.ID, err)
	}

	log.WithField("log_records", len(run.LogRecordIDs)).
		WithField("artifact_records", len(run.ArtifactRecordIDs)).
		Info("Run discarded")

	return nil
}

// deleteRecords removes every record in the set concurrently and waits for
// all of them before reporting. The fan-out width equals the number of
// records; order within the set is unspecified.
func (a *archive) deleteRecords(
	ctx context.Context, collection string, ids []string,
) error {
	if len(ids) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)

	for _, id := range ids {
		id := id

		g.Go(func() error {
			return a.deleteRecord(gctx, collection, id)
		})
	}

	return g.Wait()
}

// deleteRecord resolves a record's revision and deletes it. A record that
// is already absent, at resolve or delete time, counts as deleted. Each
// record is attempted exactly once.
func (a *archive) deleteRecord(
	ctx context.Context, collection, id string,
) error {
	rev, err := a.resolveRevision(ctx, collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		a.log.WithField("collection", collection).
			WithField("id", id).
			Debug("Record already absent, skipping delete")

		return nil
	}

	if err != nil {
		return err
	}

	if err := a.client.Delete(
		ctx, collection, id, rev,
	); err != nil && !errors.Is(err, docstore.ErrNotFound) {
		return err
	}

	return nil
}
