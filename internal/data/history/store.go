package history

import (
	"context"
	"database/sql"
	"errors"
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

// SaveRun stores a run and its rule results atomically. A missing ID is
// generated and returned.
func (s *Store) SaveRun(ctx context.Context, run Run) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(run.ID) == "" {
		run.ID = uuid.NewString()
	}
	run.ProjectKey = projectKeyOrDefault(run.ProjectKey)
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	err := s.withRetry("save run", func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if err := insertRun(ctx, tx, run); err != nil {
			_ = tx.Rollback()
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return "", err
	}
	return run.ID, nil
}

func insertRun(ctx context.Context, tx *sql.Tx, run Run) error {
	if _, err := tx.ExecContext(ctx, `
INSERT INTO runs (
  id, project_key, schema_version, started_at_utc, duration_ms, passed, rule_count, failed_count, violation_count
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.ProjectKey,
		SchemaVersion,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.Duration.Milliseconds(),
		run.Passed,
		len(run.Rules),
		run.FailedCount(),
		run.ViolationCount(),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i, rule := range run.Rules {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO rule_results (
  run_id, position, name, description, kind, negated, passed, selected, error
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, i, rule.Name, rule.Description, rule.Kind, rule.Negated, rule.Passed, rule.Selected, rule.Error,
		); err != nil {
			return fmt.Errorf("insert rule result %d: %w", i, err)
		}
		for seq, line := range rule.Violations {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO violations (run_id, position, seq, line) VALUES (?, ?, ?, ?)`,
				run.ID, i, seq, line,
			); err != nil {
				return fmt.Errorf("insert violation %d/%d: %w", i, seq, err)
			}
		}
	}
	return nil
}

// LoadRuns returns runs started at or after since, oldest first. A positive
// limit keeps only the most recent runs.
func (s *Store) LoadRuns(ctx context.Context, projectKey string, since time.Time, limit int) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
SELECT id, project_key, started_at_utc, duration_ms, passed
FROM runs
WHERE project_key = ?`
	args := []any{projectKeyOrDefault(projectKey)}
	if !since.IsZero() {
		query += " AND started_at_utc >= ?"
		args = append(args, since.UTC().Format(time.RFC3339Nano))
	}
	query += " ORDER BY started_at_utc DESC, id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var runs []Run
	err := s.withRetry("load runs", func() error {
		var qErr error
		runs, qErr = s.queryRuns(ctx, query, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}

	for i := range runs {
		rules, err := s.loadRuleResults(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Rules = rules
	}
	for i, j := 0, len(runs)-1; i < j; i, j = i+1, j-1 {
		runs[i], runs[j] = runs[j], runs[i]
	}
	return runs, nil
}

// LatestRun returns the most recent run of a project, if any.
func (s *Store) LatestRun(ctx context.Context, projectKey string) (Run, bool, error) {
	runs, err := s.LoadRuns(ctx, projectKey, time.Time{}, 1)
	if err != nil || len(runs) == 0 {
		return Run{}, false, err
	}
	return runs[0], true, nil
}

func (s *Store) queryRuns(ctx context.Context, query string, args ...any) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		var (
			run        Run
			startedRaw string
			durationMS int64
		)
		if err := rows.Scan(&run.ID, &run.ProjectKey, &startedRaw, &durationMS, &run.Passed); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		started, err := time.Parse(time.RFC3339Nano, startedRaw)
		if err != nil {
			return nil, fmt.Errorf("parse run timestamp %q: %w", startedRaw, err)
		}
		run.StartedAt = started.UTC()
		run.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	return runs, nil
}

func (s *Store) loadRuleResults(ctx context.Context, runID string) ([]RuleResult, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT position, name, description, kind, negated, passed, selected, error
FROM rule_results
WHERE run_id = ?
ORDER BY position ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("load rule results: %w", err)
	}
	var results []RuleResult
	for rows.Next() {
		var r RuleResult
		if err := rows.Scan(&r.Position, &r.Name, &r.Description, &r.Kind, &r.Negated, &r.Passed, &r.Selected, &r.Error); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan rule result row: %w", err)
		}
		results = append(results, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rule result rows: %w", err)
	}

	for i := range results {
		lines, err := s.loadViolations(ctx, runID, results[i].Position)
		if err != nil {
			return nil, err
		}
		results[i].Violations = lines
	}
	return results, nil
}

func (s *Store) loadViolations(ctx context.Context, runID string, position int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT line FROM violations WHERE run_id = ? AND position = ? ORDER BY seq ASC`, runID, position)
	if err != nil {
		return nil, fmt.Errorf("load violations: %w", err)
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, fmt.Errorf("scan violation row: %w", err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func projectKeyOrDefault(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return "default"
	}
	return key
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

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func IsCorruptError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "malformed") || strings.Contains(msg, "not a database") || errors.Is(err, os.ErrInvalid)
}
