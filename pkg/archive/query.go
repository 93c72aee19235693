package archive

import (
	"strings"
	"time"

	"github.com/ethpandaops/archivoor/pkg/docstore"
)

// BuildQuery translates an ordered list of criteria into a single backend
// query. Pure: no state, no I/O. Repeated criteria of the same kind each
// contribute their own clause; nothing is merged or deduplicated. An empty
// criteria list yields a query with no clauses, which matches everything.
func BuildQuery(criteria ...Criterion) docstore.Query {
	var q docstore.Query

	for _, c := range criteria {
		switch v := c.(type) {
		case QueuedFrom:
			q.Clauses = append(q.Clauses, docstore.Clause{
				Field: "queued",
				Op:    docstore.OpGTE,
				Value: time.Time(v).Format(time.RFC3339Nano),
			})
		case QueuedTo:
			q.Clauses = append(q.Clauses, docstore.Clause{
				Field: "queued",
				Op:    docstore.OpLT,
				Value: time.Time(v).Format(time.RFC3339Nano),
			})
		case RunName:
			appendIn(&q, c.Name(), v)
		case TestName:
			appendIn(&q, c.Name(), v)
		case Result:
			appendIn(&q, c.Name(), v)
		case Group:
			appendIn(&q, c.Name(), v)
		case SubmissionID:
			appendIn(&q, c.Name(), v)
		case Tags:
			appendIn(&q, c.Name(), v)
		case Detail:
			// Not a filter: tells the read path which sub-structures
			// to attach to each result.
			q.Include = append(q.Include, dropBlank(v)...)
		}
	}

	return q
}

// appendIn adds a membership clause for the given field. Blank values are
// dropped; a criterion left with no values contributes no clause at all
// rather than an always-false or always-true one.
func appendIn(q *docstore.Query, field string, values []string) {
	kept := dropBlank(values)
	if len(kept) == 0 {
		return
	}

	q.Clauses = append(q.Clauses, docstore.Clause{
		Field:  field,
		Op:     docstore.OpIn,
		Values: kept,
	})
}

// dropBlank filters out empty and whitespace-only values.
func dropBlank(values []string) []string {
	kept := make([]string, 0, len(values))

	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}

		kept = append(kept, v)
	}

	return kept
}
