package archive_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethpandaops/archivoor/pkg/archive"
	"github.com/ethpandaops/archivoor/pkg/config"
	"github.com/ethpandaops/archivoor/pkg/devstore"
	"github.com/ethpandaops/archivoor/pkg/docstore"
)

// setupLiveArchive runs a devstore on an ephemeral port and wires an
// Archive to it over HTTP.
func setupLiveArchive(t *testing.T) (archive.Archive, docstore.Client) {
	t.Helper()

	log := quietLogger(t)

	srv := devstore.NewServer(log, &config.DevStoreConfig{
		Listen: "127.0.0.1:0",
		Database: config.DatabaseConfig{
			Driver: "sqlite",
			SQLite: config.SQLiteConfig{Path: ":memory:"},
		},
	})

	require.NoError(t, srv.Start(context.Background()))
	t.Cleanup(func() {
		require.NoError(t, srv.Stop())
	})

	client, err := docstore.NewClient(log, docstore.Options{
		URL: "http://" + srv.Addr(),
	})
	require.NoError(t, err)

	return archive.New(log, client, archive.Options{}), client
}

// createDoc seeds a document and returns its minted revision.
func createDoc(
	t *testing.T, client docstore.Client, collection, id string,
	fields map[string]any,
) string {
	t.Helper()

	rev, err := client.Put(context.Background(), collection, id, fields)
	require.NoError(t, err)

	return rev
}

func TestIntegration_UpdateRunStructure(t *testing.T) {
	arc, client := setupLiveArchive(t)
	ctx := context.Background()

	createDoc(t, client, "runs", "run-1", map[string]any{
		"runName": "r1",
		"status":  "running",
	})

	// The caller does not know the current revision; the engine resolves
	// it before writing.
	structure := &archive.RunRecord{
		RunName: "r1",
		Status:  "finished",
		Result:  "Passed",
	}
	require.NoError(t, arc.UpdateRunStructure(ctx, "run-1", structure))
	require.NotEmpty(t, structure.Revision)

	doc, err := client.Get(ctx, "runs", "run-1")
	require.NoError(t, err)
	assert.Equal(t, structure.Revision, doc.Revision)

	// A second update reuses the revision the first one captured.
	structure.Status = "archived"
	require.NoError(t, arc.UpdateRunStructure(ctx, "run-1", structure))

	doc, err = client.Get(ctx, "runs", "run-1")
	require.NoError(t, err)
	assert.Equal(t, structure.Revision, doc.Revision)
}

func TestIntegration_UpdateRecoversFromConcurrentWrite(t *testing.T) {
	arc, client := setupLiveArchive(t)
	ctx := context.Background()

	rev := createDoc(t, client, "runs", "run-1", map[string]any{
		"status": "running",
	})

	// Another writer bumps the document behind our back.
	_, err := client.Put(ctx, "runs", "run-1", map[string]any{
		"revision": rev,
		"status":   "running",
		"note":     "concurrent",
	})
	require.NoError(t, err)

	// The engine holds the now-stale revision, hits the conflict, then
	// re-resolves and succeeds within the attempt bound.
	structure := &archive.RunRecord{Revision: rev, Status: "finished"}
	require.NoError(t, arc.UpdateRunStructure(ctx, "run-1", structure))

	doc, err := client.Get(ctx, "runs", "run-1")
	require.NoError(t, err)
	assert.Equal(t, structure.Revision, doc.Revision)
}

func TestIntegration_UpdateMissingRun(t *testing.T) {
	arc, _ := setupLiveArchive(t)

	err := arc.UpdateRunStructure(
		context.Background(), "ghost", &archive.RunRecord{},
	)
	require.EqualError(t, err, "Failed to get run document revision")
}

func TestIntegration_DiscardRun(t *testing.T) {
	arc, client := setupLiveArchive(t)
	ctx := context.Background()

	createDoc(t, client, "runs", "run-1", map[string]any{"runName": "r1"})
	createDoc(t, client, "logs", "log-1", map[string]any{"size": 1})
	createDoc(t, client, "logs", "log-2", map[string]any{"size": 2})
	createDoc(t, client, "artifacts", "art-1", map[string]any{"size": 3})

	run := &archive.RunRecord{
		ID:                "run-1",
		LogRecordIDs:      []string{"log-1", "log-2"},
		ArtifactRecordIDs: []string{"art-1"},
	}
	require.NoError(t, arc.DiscardRun(ctx, run))

	for _, probe := range []struct{ collection, id string }{
		{"runs", "run-1"},
		{"logs", "log-1"},
		{"logs", "log-2"},
		{"artifacts", "art-1"},
	} {
		_, err := client.Get(ctx, probe.collection, probe.id)
		assert.ErrorIs(t, err, docstore.ErrNotFound,
			"%s/%s must be gone", probe.collection, probe.id)
	}

	// Discarding again is a clean no-op.
	require.NoError(t, arc.DiscardRun(ctx, run))
}

func TestIntegration_SearchRuns(t *testing.T) {
	arc, client := setupLiveArchive(t)
	ctx := context.Background()

	queued := func(day, hour int) string {
		return time.Date(2026, 3, day, hour, 0, 0, 0, time.UTC).
			Format(time.RFC3339)
	}

	createDoc(t, client, "runs", "run-1", map[string]any{
		"runName": "r1",
		"result":  "Passed",
		"queued":  queued(1, 10),
		"tags":    []string{"nightly"},
	})
	createDoc(t, client, "runs", "run-2", map[string]any{
		"runName": "r2",
		"result":  "Failed",
		"queued":  queued(1, 12),
		"tags":    []string{"nightly", "smoke"},
	})
	createDoc(t, client, "runs", "run-3", map[string]any{
		"runName": "r3",
		"result":  "Passed",
		"queued":  queued(2, 9),
	})

	t.Run("no criteria returns everything", func(t *testing.T) {
		runs, err := arc.SearchRuns(ctx)
		require.NoError(t, err)
		assert.Len(t, runs, 3)
	})

	t.Run("time window with membership", func(t *testing.T) {
		runs, err := arc.SearchRuns(ctx,
			archive.QueuedFrom(
				time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
			archive.QueuedTo(
				time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)),
			archive.Result{"Failed"},
		)
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, "r2", runs[0].RunName)
	})

	t.Run("tag membership", func(t *testing.T) {
		runs, err := arc.SearchRuns(ctx, archive.Tags{"smoke"})
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, "r2", runs[0].RunName)
	})

	t.Run("blank-only criterion matches nothing extra", func(t *testing.T) {
		runs, err := arc.SearchRuns(ctx, archive.RunName{" "})
		require.NoError(t, err)
		assert.Len(t, runs, 3)
	})
}
