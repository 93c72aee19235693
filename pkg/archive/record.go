package archive

import "time"

// RunRecord is the authoritative structure for one test run. The revision
// token must reflect the last-read or last-written state of the document;
// the store rejects writes carrying a stale revision, so last-writer-wins
// can never happen silently.
type RunRecord struct {
	ID                string     `json:"id,omitempty" yaml:"id,omitempty"`
	Revision          string     `json:"revision,omitempty" yaml:"revision,omitempty"`
	RunName           string     `json:"runName,omitempty" yaml:"runName,omitempty"`
	TestName          string     `json:"testName,omitempty" yaml:"testName,omitempty"`
	Status            string     `json:"status,omitempty" yaml:"status,omitempty"`
	Result            string     `json:"result,omitempty" yaml:"result,omitempty"`
	Group             string     `json:"group,omitempty" yaml:"group,omitempty"`
	SubmissionID      string     `json:"submissionId,omitempty" yaml:"submissionId,omitempty"`
	Queued            *time.Time `json:"queued,omitempty" yaml:"queued,omitempty"`
	StartTime         *time.Time `json:"startTime,omitempty" yaml:"startTime,omitempty"`
	EndTime           *time.Time `json:"endTime,omitempty" yaml:"endTime,omitempty"`
	Tags              []string   `json:"tags,omitempty" yaml:"tags,omitempty"`
	LogRecordIDs      []string   `json:"logRecordIds,omitempty" yaml:"logRecordIds,omitempty"`
	ArtifactRecordIDs []string   `json:"artifactRecordIds,omitempty" yaml:"artifactRecordIds,omitempty"`
}

// LogRecord holds log output owned by exactly one run. This layer only ever
// deletes log records; creation happens at ingestion time elsewhere.
type LogRecord struct {
	ID       string `json:"id,omitempty"`
	Revision string `json:"revision,omitempty"`
}

// ArtifactRecord holds metadata for files a run produced. Like log records
// it is owned by exactly one run and only deleted here.
type ArtifactRecord struct {
	ID       string `json:"id,omitempty"`
	Revision string `json:"revision,omitempty"`
}
