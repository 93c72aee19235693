package archive_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethpandaops/archivoor/pkg/archive"
	"github.com/ethpandaops/archivoor/pkg/docstore"
)

// seedRun populates the fake store with a run and its dependents.
func seedRun(fc *fakeClient, run *archive.RunRecord) {
	fc.revisions["runs/"+run.ID] = run.Revision

	for _, id := range run.LogRecordIDs {
		fc.revisions["logs/"+id] = "1-log"
	}

	for _, id := range run.ArtifactRecordIDs {
		fc.revisions["artifacts/"+id] = "1-art"
	}
}

func testRun() *archive.RunRecord {
	return &archive.RunRecord{
		ID:                "ABC123",
		Revision:          "rev-X",
		RunName:           "U456",
		LogRecordIDs:      []string{"log1", "log2"},
		ArtifactRecordIDs: []string{"artifact1", "artifact2"},
	}
}

func TestDiscardRun_DeletesDependentsThenRun(t *testing.T) {
	arc, fc := setupArchive(t)

	run := testRun()
	seedRun(fc, run)

	require.NoError(t, arc.DiscardRun(context.Background(), run))

	// Everything is gone from the store.
	assert.Empty(t, fc.revisions)

	// All five documents were deleted exactly once.
	require.Len(t, fc.deletes, 5)
	assert.ElementsMatch(t, []string{
		"logs/log1", "logs/log2",
		"artifacts/artifact1", "artifacts/artifact2",
		"runs/ABC123",
	}, fc.deletes)

	// Log records go before artifact records, and the run document is
	// strictly last. Order within each group is unspecified.
	assert.ElementsMatch(t, []string{"logs/log1", "logs/log2"},
		fc.deletes[:2])
	assert.ElementsMatch(t,
		[]string{"artifacts/artifact1", "artifacts/artifact2"},
		fc.deletes[2:4])
	assert.Equal(t, "runs/ABC123", fc.deletes[4])
}

func TestDiscardRun_MissingDependentsSkippedCleanly(t *testing.T) {
	arc, fc := setupArchive(t)

	run := testRun()
	seedRun(fc, run)

	// log2 and artifact1 are already gone.
	delete(fc.revisions, "logs/log2")
	delete(fc.revisions, "artifacts/artifact1")

	require.NoError(t, arc.DiscardRun(context.Background(), run))

	// No delete call may be issued for the absent records.
	assert.NotContains(t, fc.deletes, "logs/log2")
	assert.NotContains(t, fc.deletes, "artifacts/artifact1")
	assert.Contains(t, fc.deletes, "runs/ABC123")
	assert.Empty(t, fc.revisions)
}

func TestDiscardRun_DependentFailureKeepsRunDocument(t *testing.T) {
	arc, fc := setupArchive(t)

	run := testRun()
	seedRun(fc, run)

	fc.deleteErrs["artifacts/artifact1"] = &docstore.StatusError{
		StatusCode: 500,
		Body:       "Internal server error",
	}

	err := arc.DiscardRun(context.Background(), run)
	require.Error(t, err)

	// The error names the run and carries the backend failure.
	assert.Contains(t, err.Error(), "ABC123")
	assert.Contains(t, err.Error(), "Internal server error")

	// The run document delete is never issued.
	assert.NotContains(t, fc.deletes, "runs/ABC123")
	assert.Contains(t, fc.revisions, "runs/ABC123")
}

func TestDiscardRun_DependentResolveFailureKeepsRunDocument(t *testing.T) {
	arc, fc := setupArchive(t)

	run := testRun()
	seedRun(fc, run)

	fc.getErrs["logs/log1"] = &docstore.StatusError{
		StatusCode: 502,
		Body:       "bad gateway",
	}

	err := arc.DiscardRun(context.Background(), run)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ABC123")

	// The failure happened in the log group, so neither the artifact
	// group nor the run document may be touched.
	assert.NotContains(t, fc.deletes, "artifacts/artifact1")
	assert.NotContains(t, fc.deletes, "artifacts/artifact2")
	assert.NotContains(t, fc.deletes, "runs/ABC123")
}

func TestDiscardRun_RerunConverges(t *testing.T) {
	arc, fc := setupArchive(t)

	run := testRun()
	seedRun(fc, run)

	// First attempt fails on artifact2, leaving a partial deletion.
	fc.deleteErrs["artifacts/artifact2"] = &docstore.StatusError{
		StatusCode: 500,
		Body:       "Internal server error",
	}

	require.Error(t, arc.DiscardRun(context.Background(), run))
	assert.Contains(t, fc.revisions, "runs/ABC123")

	// The backend recovers; re-running the same discard succeeds and
	// tolerates everything that is already gone.
	delete(fc.deleteErrs, "artifacts/artifact2")

	require.NoError(t, arc.DiscardRun(context.Background(), run))
	assert.Empty(t, fc.revisions)
}

func TestDiscardRun_AlreadyDiscardedRunSucceeds(t *testing.T) {
	arc, fc := setupArchive(t)

	// Nothing exists at all: the discard is a no-op that succeeds.
	run := testRun()

	require.NoError(t, arc.DiscardRun(context.Background(), run))
	assert.Empty(t, fc.deletes)
}

func TestDiscardRun_NoDependents(t *testing.T) {
	arc, fc := setupArchive(t)

	run := &archive.RunRecord{ID: "solo", Revision: "1-a"}
	fc.revisions["runs/solo"] = "1-a"

	require.NoError(t, arc.DiscardRun(context.Background(), run))
	assert.Equal(t, []string{"runs/solo"}, fc.deletes)
	assert.Empty(t, fc.revisions)
}
