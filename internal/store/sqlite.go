package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmaddaus/cairn/internal/model"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and runs
// migrations. Use ":memory:" for an in-memory database. Parent directories
// are created as needed.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("create state dir %s: %w", dir, err)
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Enable WAL mode and foreign keys for better durability and integrity.
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec %s: %w", pragma, err)
		}
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// Runs
// ---------------------------------------------------------------------------

func (s *SQLiteStore) CreateRun(ctx context.Context, run *model.Run) error {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	if run.Status == "" {
		run.Status = model.RunInProgress
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, input_file, input_digest, repository, started_at, status)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.RunID, run.InputFile, run.InputDigest, run.Repository,
		run.StartedAt.Format(time.RFC3339), string(run.Status))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("run %s: %w", run.RunID, ErrDuplicateRun)
		}
		return err
	}
	return nil
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT run_id, input_file, input_digest, repository, started_at, completed_at, status
		 FROM runs WHERE run_id = ?`, runID)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	return run, err
}

func (s *SQLiteStore) FindRunByInputDigest(ctx context.Context, digest string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT run_id, input_file, input_digest, repository, started_at, completed_at, status
		 FROM runs WHERE input_digest = ? ORDER BY started_at DESC LIMIT 1`, digest)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return run, err
}

func (s *SQLiteStore) FindActiveRun(ctx context.Context, repository string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT run_id, input_file, input_digest, repository, started_at, completed_at, status
		 FROM runs WHERE repository = ? AND status = ? ORDER BY started_at DESC LIMIT 1`,
		repository, string(model.RunInProgress))
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return run, err
}

func (s *SQLiteStore) ListRuns(ctx context.Context) ([]*model.Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, input_file, input_digest, repository, started_at, completed_at, status
		 FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) MarkRunStatus(ctx context.Context, runID string, status model.RunStatus, completedAt *time.Time) error {
	var completed *string
	if completedAt != nil {
		t := completedAt.UTC().Format(time.RFC3339)
		completed = &t
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, completed_at = ? WHERE run_id = ?`,
		string(status), completed, runID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) DeleteRun(ctx context.Context, runID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM created_issues WHERE run_id = ?`, runID); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE run_id = ?`, runID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Created issues
// ---------------------------------------------------------------------------

func (s *SQLiteStore) RecordCreatedIssue(ctx context.Context, rec *model.CreatedIssue) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	var parentID *string
	if rec.ParentID != "" {
		parentID = &rec.ParentID
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO created_issues
		 (run_id, local_id, github_issue_number, github_issue_url, github_node_id,
		  title, fingerprint, parent_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.LocalID, rec.Number, rec.URL, rec.NodeID,
		rec.Title, rec.Fingerprint, parentID,
		rec.CreatedAt.Format(time.RFC3339))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("issue %s in run %s: %w", rec.LocalID, rec.RunID, ErrDuplicateIssue)
		}
		return err
	}
	return nil
}

func (s *SQLiteStore) GetCreatedIssue(ctx context.Context, runID, localID string) (*model.CreatedIssue, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT run_id, local_id, github_issue_number, github_issue_url, github_node_id,
		        title, fingerprint, parent_id, parent_issue_number, linked_at, created_at
		 FROM created_issues WHERE run_id = ? AND local_id = ?`, runID, localID)
	rec, err := scanCreatedIssue(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("issue %s in run %s: %w", localID, runID, ErrNotFound)
	}
	return rec, err
}

func (s *SQLiteStore) FindByFingerprint(ctx context.Context, fingerprint string) (*model.CreatedIssue, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT run_id, local_id, github_issue_number, github_issue_url, github_node_id,
		        title, fingerprint, parent_id, parent_issue_number, linked_at, created_at
		 FROM created_issues WHERE fingerprint = ? LIMIT 1`, fingerprint)
	rec, err := scanCreatedIssue(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

func (s *SQLiteStore) RecordLink(ctx context.Context, runID, localID string, parentNumber int, linkedAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE created_issues
		 SET parent_issue_number = ?, linked_at = ?
		 WHERE run_id = ? AND local_id = ? AND linked_at IS NULL`,
		parentNumber, linkedAt.UTC().Format(time.RFC3339), runID, localID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("unlinked issue %s in run %s: %w", localID, runID, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) ListCreatedIssues(ctx context.Context, runID string) ([]*model.CreatedIssue, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, local_id, github_issue_number, github_issue_url, github_node_id,
		        title, fingerprint, parent_id, parent_issue_number, linked_at, created_at
		 FROM created_issues WHERE run_id = ? ORDER BY created_at, local_id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*model.CreatedIssue
	for rows.Next() {
		rec, err := scanCreatedIssue(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (s *SQLiteStore) RunStats(ctx context.Context, runID string) (model.RunStats, error) {
	var stats model.RunStats
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(linked_at) FROM created_issues WHERE run_id = ?`,
		runID).Scan(&stats.Total, &stats.Linked)
	if err != nil {
		return model.RunStats{}, err
	}
	stats.Unlinked = stats.Total - stats.Linked
	return stats, nil
}

// ---------------------------------------------------------------------------
// Scan helpers
// ---------------------------------------------------------------------------

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (*model.Run, error) {
	var r model.Run
	var startedAt string
	var completedAt sql.NullString
	var status string

	err := row.Scan(&r.RunID, &r.InputFile, &r.InputDigest, &r.Repository,
		&startedAt, &completedAt, &status)
	if err != nil {
		return nil, err
	}

	r.Status = model.RunStatus(status)
	r.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
	if completedAt.Valid {
		t, _ := time.Parse(time.RFC3339, completedAt.String)
		if !t.IsZero() {
			r.CompletedAt = &t
		}
	}
	return &r, nil
}

func scanCreatedIssue(row scanner) (*model.CreatedIssue, error) {
	var rec model.CreatedIssue
	var parentID sql.NullString
	var parentNumber sql.NullInt64
	var linkedAt sql.NullString
	var createdAt string

	err := row.Scan(&rec.RunID, &rec.LocalID, &rec.Number, &rec.URL, &rec.NodeID,
		&rec.Title, &rec.Fingerprint, &parentID, &parentNumber, &linkedAt, &createdAt)
	if err != nil {
		return nil, err
	}

	if parentID.Valid {
		rec.ParentID = parentID.String
	}
	if parentNumber.Valid {
		v := int(parentNumber.Int64)
		rec.ParentNumber = &v
	}
	if linkedAt.Valid {
		t, _ := time.Parse(time.RFC3339, linkedAt.String)
		if !t.IsZero() {
			rec.LinkedAt = &t
		}
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &rec, nil
}
