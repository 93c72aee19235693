package archive_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethpandaops/archivoor/pkg/archive"
	"github.com/ethpandaops/archivoor/pkg/docstore"
)

func TestBuildQuery_EmptyCriteriaList(t *testing.T) {
	q := archive.BuildQuery()

	assert.Empty(t, q.Clauses, "no criteria must build no clauses")
	assert.Empty(t, q.Include)
}

func TestBuildQuery_TimeWindowAndRunNames(t *testing.T) {
	from := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	q := archive.BuildQuery(
		archive.QueuedFrom(from),
		archive.RunName{"r1", "r2"},
	)

	require.Len(t, q.Clauses, 2)

	assert.Equal(t, docstore.Clause{
		Field: "queued",
		Op:    docstore.OpGTE,
		Value: "2026-03-01T12:00:00Z",
	}, q.Clauses[0])

	assert.Equal(t, docstore.Clause{
		Field:  "runName",
		Op:     docstore.OpIn,
		Values: []string{"r1", "r2"},
	}, q.Clauses[1])
}

func TestBuildQuery_QueuedBoundsAsymmetry(t *testing.T) {
	// Inclusive start, exclusive end: adjacent windows never overlap and
	// never leave a gap.
	boundary := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	q := archive.BuildQuery(
		archive.QueuedFrom(boundary),
		archive.QueuedTo(boundary.Add(24*time.Hour)),
	)

	require.Len(t, q.Clauses, 2)
	assert.Equal(t, docstore.OpGTE, q.Clauses[0].Op)
	assert.Equal(t, docstore.OpLT, q.Clauses[1].Op)
	assert.Equal(t, "queued", q.Clauses[0].Field)
	assert.Equal(t, "queued", q.Clauses[1].Field)
}

func TestBuildQuery_BlankValuesDropped(t *testing.T) {
	tests := []struct {
		name      string
		criterion archive.Criterion
		want      []string
	}{
		{
			name:      "all-blank set contributes no clause",
			criterion: archive.RunName{""},
			want:      nil,
		},
		{
			name:      "whitespace-only values are blank",
			criterion: archive.Tags{"  ", "\t"},
			want:      nil,
		},
		{
			name:      "blanks dropped, rest kept",
			criterion: archive.Result{"Passed", "", "Failed"},
			want:      []string{"Passed", "Failed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := archive.BuildQuery(tt.criterion)

			if tt.want == nil {
				assert.Empty(t, q.Clauses)

				return
			}

			require.Len(t, q.Clauses, 1)
			assert.Equal(t, tt.want, q.Clauses[0].Values)
		})
	}
}

func TestBuildQuery_AllMembershipKinds(t *testing.T) {
	q := archive.BuildQuery(
		archive.RunName{"r"},
		archive.TestName{"t"},
		archive.Result{"Passed"},
		archive.Group{"g"},
		archive.SubmissionID{"s"},
		archive.Tags{"tag"},
	)

	require.Len(t, q.Clauses, 6)

	fields := make([]string, 0, len(q.Clauses))
	for _, c := range q.Clauses {
		assert.Equal(t, docstore.OpIn, c.Op)
		fields = append(fields, c.Field)
	}

	assert.Equal(t, []string{
		"runName", "testName", "result", "group", "submissionId", "tags",
	}, fields)
}

func TestBuildQuery_DetailIsNotAFilter(t *testing.T) {
	q := archive.BuildQuery(archive.Detail{"methods", ""})

	assert.Empty(t, q.Clauses, "detail never contributes a clause")
	assert.Equal(t, []string{"methods"}, q.Include)
}

func TestBuildQuery_RepeatedKindsKeptIndependently(t *testing.T) {
	q := archive.BuildQuery(
		archive.RunName{"r1"},
		archive.RunName{"r2"},
	)

	// Criteria of the same kind are each translated, never merged.
	require.Len(t, q.Clauses, 2)
	assert.Equal(t, []string{"r1"}, q.Clauses[0].Values)
	assert.Equal(t, []string{"r2"}, q.Clauses[1].Values)
}
