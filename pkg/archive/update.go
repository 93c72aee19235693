package archive

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethpandaops/archivoor/pkg/docstore"
)

// ErrMissingRunRevision is returned when an update is requested for a run
// document that does not exist. Updates never create documents; creation is
// a separate ingestion operation.
var ErrMissingRunRevision = errors.New("Failed to get run document revision")

// UpdateRunStructure replaces the stored run document with the caller's
// structure. If the structure carries no revision, the current one is
// resolved first. Writes rejected with a conflict are retried with a
// freshly resolved revision up to the configured attempt bound; the
// caller's fields always fully replace the stored fields, never a merge.
// On success the structure is updated in place with the new revision.
func (a *archive) UpdateRunStructure(
	ctx context.Context, runID string, structure *RunRecord,
) error {
	log := a.log.WithField("run_id", runID)

	rev := structure.Revision
	if rev == "" {
		r, err := a.resolveRevision(ctx, a.cols.Runs, runID)
		if err != nil {
			if errors.Is(err, docstore.ErrNotFound) {
				return ErrMissingRunRevision
			}

			return fmt.Errorf("failed to update run structure: %w", err)
		}

		rev = r
	}

	for attempt := 1; ; attempt++ {
		doc := *structure
		doc.ID = runID
		doc.Revision = rev

		newRev, err := a.client.Put(ctx, a.cols.Runs, runID, &doc)
		if err == nil {
			structure.ID = runID
			structure.Revision = newRev

			log.WithField("revision", newRev).
				Debug("Run structure updated")

			return nil
		}

		// Only conflicts are retried, and only while attempts remain.
		if !errors.Is(err, docstore.ErrConflict) ||
			attempt >= a.maxUpdateAttempts {
			return fmt.Errorf("failed to update run structure: %w", err)
		}

		log.WithField("attempt", attempt).
			Warn("Run structure write conflicted, retrying with latest revision")

		rev, err = a.resolveRevision(ctx, a.cols.Runs, runID)
		if err != nil {
			return fmt.Errorf("failed to update run structure: %w", err)
		}
	}
}
