package archive

import "time"

// Criterion is one search filter. Criteria are combined with logical AND;
// within a multi-value criterion any value matches (logical OR). The
// interface is sealed so the query builder's type switch stays exhaustive:
// adding a criterion kind is a compile-time change, not a runtime check.
type Criterion interface {
	// Name identifies the criterion kind in logs and errors.
	Name() string

	criterion()
}

// QueuedFrom matches runs queued at or after the given instant.
type QueuedFrom time.Time

// QueuedTo matches runs queued strictly before the given instant. Together
// with QueuedFrom's inclusive bound, adjacent windows never overlap and
// never leave a gap.
type QueuedTo time.Time

// RunName matches runs whose name is any of the given values.
type RunName []string

// TestName matches runs whose test name is any of the given values.
type TestName []string

// Result matches runs whose result is any of the given values.
type Result []string

// Group matches runs belonging to any of the given groups.
type Group []string

// SubmissionID matches runs with any of the given submission ids.
type SubmissionID []string

// Tags matches runs carrying any of the given tags.
type Tags []string

// Detail does not filter. It names the optional sub-structures (for
// example per-method history) the read path should attach to each result.
type Detail []string

func (QueuedFrom) Name() string   { return "queuedFrom" }
func (QueuedTo) Name() string     { return "queuedTo" }
func (RunName) Name() string      { return "runName" }
func (TestName) Name() string     { return "testName" }
func (Result) Name() string       { return "result" }
func (Group) Name() string        { return "group" }
func (SubmissionID) Name() string { return "submissionId" }
func (Tags) Name() string         { return "tags" }
func (Detail) Name() string       { return "detail" }

func (QueuedFrom) criterion()   {}
func (QueuedTo) criterion()     {}
func (RunName) criterion()      {}
func (TestName) criterion()     {}
func (Result) criterion()       {}
func (Group) criterion()        {}
func (SubmissionID) criterion() {}
func (Tags) criterion()         {}
func (Detail) criterion()       {}
