package model

import "time"

// ImportKind distinguishes trip uploads from expense uploads.
type ImportKind string

const (
	ImportKindTrips    ImportKind = "trips"
	ImportKindExpenses ImportKind = "expenses"
)

// ImportRunStatus is the outcome recorded for an import run.
type ImportRunStatus string

const (
	ImportRunComplete ImportRunStatus = "complete"
	ImportRunFailed   ImportRunStatus = "failed"
)

// ImportRun is the ledger entry written after each confirmed import. The
// (kind, format, client, file hash) tuple identifies a re-upload.
type ImportRun struct {
	ID         string          `json:"id"`
	Kind       ImportKind      `json:"kind"`
	Format     string          `json:"format,omitempty"`
	ClientID   int64           `json:"client_id,omitempty"`
	FileSHA256 string          `json:"file_sha256"`
	Inserted   int             `json:"inserted"`
	Skipped    int             `json:"skipped"`
	Status     ImportRunStatus `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
}

// SkippedRecord explains why a previewed record was not imported.
type SkippedRecord struct {
	Record any    `json:"record"`
	Reason string `json:"reason"`
	Rule   string `json:"rule,omitempty"`
}

// ImportSummary is returned to the caller after a confirmed import.
type ImportSummary struct {
	ImportedCount  int             `json:"importedCount"`
	SkippedCount   int             `json:"skippedCount"`
	SkippedDetails []SkippedRecord `json:"skippedDetails"`
	FailOpenCount  int             `json:"failOpenCount,omitempty"`
}
