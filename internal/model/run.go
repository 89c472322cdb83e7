package model

import "time"

type RunKind string

const (
	RunDownload RunKind = "download"
	RunImport   RunKind = "import"
)

type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// ImportRun records one ingestion step.
type ImportRun struct {
	ID           string     `json:"id"`
	Kind         RunKind    `json:"kind"`
	Status       RunStatus  `json:"status"`
	RowsRead     int        `json:"rowsRead"`
	RowsKept     int        `json:"rowsKept"`
	RowsInserted int64      `json:"rowsInserted"`
	Error        string     `json:"error,omitempty"`
	StartedAt    time.Time  `json:"startedAt"`
	FinishedAt   *time.Time `json:"finishedAt,omitempty"`
}
