package devstore

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/ethpandaops/archivoor/pkg/docstore"
)

// matchesClauses reports whether a document satisfies every clause.
// An empty clause list matches everything.
func matchesClauses(
	fields map[string]any, clauses []docstore.Clause,
) bool {
	for _, clause := range clauses {
		if !matchesClause(fields, clause) {
			return false
		}
	}

	return true
}

// matchesClause evaluates one clause against the document fields. A
// missing field never matches.
func matchesClause(fields map[string]any, clause docstore.Clause) bool {
	value, ok := fields[clause.Field]
	if !ok || value == nil {
		return false
	}

	switch clause.Op {
	case docstore.OpGTE:
		return compareOrdered(value, clause.Value) >= 0
	case docstore.OpLT:
		return compareOrdered(value, clause.Value) < 0
	case docstore.OpIn:
		return matchesIn(value, clause.Values)
	default:
		return false
	}
}

// compareOrdered compares a document field against a clause bound. RFC 3339
// timestamps compare as instants; anything else falls back to string order.
func compareOrdered(field any, bound string) int {
	fs, ok := field.(string)
	if !ok {
		return strings.Compare(fmt.Sprint(field), bound)
	}

	ft, errField := time.Parse(time.RFC3339Nano, fs)

	bt, errBound := time.Parse(time.RFC3339Nano, bound)
	if errField == nil && errBound == nil {
		return ft.Compare(bt)
	}

	return strings.Compare(fs, bound)
}

// matchesIn reports whether a scalar field equals, or an array field
// contains, any of the clause values.
func matchesIn(field any, values []string) bool {
	switch v := field.(type) {
	case string:
		return slices.Contains(values, v)
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && slices.Contains(values, s) {
				return true
			}
		}
	}

	return false
}
