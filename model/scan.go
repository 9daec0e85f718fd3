package model

import "time"

// Scan report status values.
const (
	ScanStatusSuccess = "success"
	ScanStatusError   = "error"
)

// ScanReport summarizes a single library scan invocation. It is created
// when a scan starts, returned when it ends, and never persisted.
//
// Status is "error" only for the fatal precondition (library root missing);
// per-file failures leave Status at "success" and accumulate in Errors.
type ScanReport struct {
	ScanID        string    `json:"scanId"`
	Status        string    `json:"status"`
	Message       string    `json:"message,omitempty"`
	ScannedFiles  int       `json:"scannedFiles"`
	ImportedSongs int       `json:"importedSongs"`
	SkippedFiles  int       `json:"skippedFiles"`
	Errors        []string  `json:"errors"`
	StartedAt     time.Time `json:"startedAt"`
	FinishedAt    time.Time `json:"finishedAt"`
}

// ScanProgress is a point-in-time progress event emitted while a scan runs.
type ScanProgress struct {
	ScanID      string `json:"scanId"`
	Total       int    `json:"total"`
	Processed   int    `json:"processed"`
	CurrentFile string `json:"currentFile"`
	Status      string `json:"status"` // imported, duplicate, error, done
}
