package history

import "time"

const SchemaVersion = 1

// Run is one recorded analysis pass over a set of files.
type Run struct {
	ID               string    `json:"id"`
	SchemaVersion    int       `json:"schema_version"`
	StartedAt        time.Time `json:"started_at"`
	CommitHash       string    `json:"commit_hash,omitempty"`
	FileCount        int       `json:"file_count"`
	MissingCount     int       `json:"missing_count"`
	DefinedCount     int       `json:"defined_count"`
	UsedCount        int       `json:"used_count"`
	LocalImportCount int       `json:"local_import_count"`
	SyntaxErrorCount int       `json:"syntax_error_count"`
	DurationMillis   int64     `json:"duration_ms"`
}

// FileResult is the per-file detail attached to a run.
type FileResult struct {
	RunID        string   `json:"run_id"`
	Path         string   `json:"path"`
	Missing      []string `json:"missing"`
	DefinedCount int      `json:"defined_count"`
	UsedCount    int      `json:"used_count"`
	LocalImports int      `json:"local_imports"`
	SyntaxError  bool     `json:"syntax_error"`
}

// TrendPoint is one run enriched with deltas against its predecessor and a
// moving average over the window.
type TrendPoint struct {
	StartedAt         time.Time `json:"started_at"`
	CommitHash        string    `json:"commit_hash,omitempty"`
	FileCount         int       `json:"file_count"`
	MissingCount      int       `json:"missing_count"`
	LocalImportCount  int       `json:"local_import_count"`
	SyntaxErrorCount  int       `json:"syntax_error_count"`
	DeltaFiles        int       `json:"delta_files"`
	DeltaMissing      int       `json:"delta_missing"`
	DeltaLocalImports int       `json:"delta_local_imports"`
	AvgMissing        float64   `json:"avg_missing"`
	WindowHours       float64   `json:"window_hours"`
}

// TrendReport summarizes how missing-name pressure moves across runs.
type TrendReport struct {
	SchemaVersion int          `json:"schema_version"`
	Since         time.Time    `json:"since"`
	Until         time.Time    `json:"until"`
	Window        string       `json:"window"`
	RunCount      int          `json:"run_count"`
	Points        []TrendPoint `json:"points"`
}
