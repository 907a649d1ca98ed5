package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts during watch-mode churn.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// SaveRun records one analysis pass with its per-file results. A missing run
// ID gets a fresh UUID; the possibly-filled run is returned.
func (s *Store) SaveRun(run Run, results []FileResult) (Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	if run.SchemaVersion == 0 {
		run.SchemaVersion = SchemaVersion
	}
	if run.SchemaVersion != SchemaVersion {
		return Run{}, fmt.Errorf("unsupported run schema version %d", run.SchemaVersion)
	}

	err := s.withRetry("save run", func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if _, err := tx.Exec(`
INSERT INTO runs (
  id, schema_version, started_at_utc, commit_hash, file_count, missing_count,
  defined_count, used_count, local_import_count, syntax_error_count, duration_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID,
			run.SchemaVersion,
			run.StartedAt.UTC().Format(time.RFC3339Nano),
			run.CommitHash,
			run.FileCount,
			run.MissingCount,
			run.DefinedCount,
			run.UsedCount,
			run.LocalImportCount,
			run.SyntaxErrorCount,
			run.DurationMillis,
		); err != nil {
			return err
		}

		for _, fr := range results {
			if _, err := tx.Exec(`
INSERT INTO file_results (
  run_id, path, missing_names, defined_count, used_count, local_imports, syntax_error
) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				run.ID,
				fr.Path,
				strings.Join(fr.Missing, " "),
				fr.DefinedCount,
				fr.UsedCount,
				fr.LocalImports,
				boolToInt(fr.SyntaxError),
			); err != nil {
				return err
			}
		}

		return tx.Commit()
	})
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

// RecentRuns returns up to limit runs, oldest first.
func (s *Store) RecentRuns(limit int) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 50
	}

	var rows *sql.Rows
	err := s.withRetry("load runs", func() error {
		var qErr error
		rows, qErr = s.db.Query(`
SELECT id, schema_version, started_at_utc, commit_hash, file_count, missing_count,
       defined_count, used_count, local_import_count, syntax_error_count, duration_ms
FROM runs
ORDER BY started_at_utc DESC
LIMIT ?`, limit)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]Run, 0, limit)
	for rows.Next() {
		var run Run
		var tsRaw string
		if err := rows.Scan(
			&run.ID,
			&run.SchemaVersion,
			&tsRaw,
			&run.CommitHash,
			&run.FileCount,
			&run.MissingCount,
			&run.DefinedCount,
			&run.UsedCount,
			&run.LocalImportCount,
			&run.SyntaxErrorCount,
			&run.DurationMillis,
		); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, tsRaw)
		if err != nil {
			return nil, fmt.Errorf("parse run timestamp %q: %w", tsRaw, err)
		}
		run.StartedAt = ts.UTC()
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}

	// Oldest first, matching trend computation order.
	for i, j := 0, len(runs)-1; i < j; i, j = i+1, j-1 {
		runs[i], runs[j] = runs[j], runs[i]
	}
	return runs, nil
}

// FileResults returns the per-file detail of one run, ordered by path.
func (s *Store) FileResults(runID string) ([]FileResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows *sql.Rows
	err := s.withRetry("load file results", func() error {
		var qErr error
		rows, qErr = s.db.Query(`
SELECT run_id, path, missing_names, defined_count, used_count, local_imports, syntax_error
FROM file_results
WHERE run_id = ?
ORDER BY path ASC`, runID)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []FileResult
	for rows.Next() {
		var fr FileResult
		var missingRaw string
		var syntaxErr int
		if err := rows.Scan(
			&fr.RunID,
			&fr.Path,
			&missingRaw,
			&fr.DefinedCount,
			&fr.UsedCount,
			&fr.LocalImports,
			&syntaxErr,
		); err != nil {
			return nil, fmt.Errorf("scan file result row: %w", err)
		}
		if missingRaw != "" {
			fr.Missing = strings.Fields(missingRaw)
		}
		fr.SyntaxError = syntaxErr != 0
		results = append(results, fr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate file result rows: %w", err)
	}
	return results, nil
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
