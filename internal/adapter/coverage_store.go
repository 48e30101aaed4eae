package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	m "gooze.dev/pkg/unitmut/internal/model"
)

// CoverageStore records which test units ran against which mutant and
// whether they failed. It is the basis for running only the units that
// killed a mutant before.
type CoverageStore interface {
	BeginRun(ctx context.Context) (string, error)
	Record(ctx context.Context, runID string, verdict m.Verdict, results []m.TestResult) error
	KillersFor(ctx context.Context, mutantID string) ([]m.KillingUnit, error)
	Close() error
}

const coverageSchema = `
	CREATE TABLE IF NOT EXISTS runs (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL UNIQUE,
		created_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS unit_results (
		run_id TEXT NOT NULL REFERENCES runs(run_id),
		mutant_id TEXT NOT NULL,
		source TEXT NOT NULL,
		line INTEGER NOT NULL,
		unit_index INTEGER NOT NULL,
		unit_name TEXT NOT NULL,
		test_file TEXT NOT NULL,
		failed INTEGER NOT NULL,
		timed_out INTEGER NOT NULL,
		PRIMARY KEY (run_id, mutant_id, unit_index)
	);
	CREATE INDEX IF NOT EXISTS idx_unit_results_mutant ON unit_results(mutant_id);
`

// SQLiteCoverageStore implements CoverageStore on a SQLite database file.
type SQLiteCoverageStore struct {
	db *sql.DB
}

// NewSQLiteCoverageStore opens (or creates) the database at dbPath.
func NewSQLiteCoverageStore(dbPath string) (*SQLiteCoverageStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("%w: empty coverage database path", m.ErrInvalidArgument)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("create coverage database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open coverage database %s: %w", dbPath, err)
	}

	// Workers record concurrently; a single connection serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(coverageSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &SQLiteCoverageStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteCoverageStore) Close() error {
	return s.db.Close()
}

// BeginRun registers a new run and returns its id.
func (s *SQLiteCoverageStore) BeginRun(ctx context.Context) (string, error) {
	runID := uuid.NewString()

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, created_at) VALUES (?, ?)`,
		runID, time.Now().UTC(),
	); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	return runID, nil
}

// Record stores one row per result. Result i is the unit with index i.
func (s *SQLiteCoverageStore) Record(ctx context.Context, runID string, verdict m.Verdict, results []m.TestResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin coverage transaction: %w", err)
	}

	defer func() { _ = tx.Rollback() }()

	for i, result := range results {
		var name, file string
		if len(result.TestFiles) > 0 {
			name = result.TestFiles[0].Name
			file = string(result.TestFiles[0].Path)

			if origin := result.TestFiles[0].Origin; origin != "" {
				file = string(origin)
			}
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO unit_results (run_id, mutant_id, source, line, unit_index, unit_name, test_file, failed, timed_out)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(run_id, mutant_id, unit_index) DO UPDATE SET
				failed = excluded.failed,
				timed_out = excluded.timed_out
		`,
			runID,
			verdict.MutantID,
			string(verdict.Source),
			verdict.Line,
			i,
			name,
			file,
			result.Failed(),
			result.TimedOut,
		); err != nil {
			return fmt.Errorf("insert unit result: %w", err)
		}
	}

	return tx.Commit()
}

// KillersFor returns the units that killed mutantID in the latest run that
// tested it, in unit order.
func (s *SQLiteCoverageStore) KillersFor(ctx context.Context, mutantID string) ([]m.KillingUnit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.unit_index, r.unit_name, r.test_file
		FROM unit_results r
		JOIN runs ON runs.run_id = r.run_id
		WHERE r.mutant_id = ? AND r.failed = 1 AND runs.seq = (
			SELECT MAX(runs.seq) FROM runs
			JOIN unit_results u ON u.run_id = runs.run_id
			WHERE u.mutant_id = ?
		)
		ORDER BY r.unit_index
	`, mutantID, mutantID)
	if err != nil {
		return nil, fmt.Errorf("query killers: %w", err)
	}
	defer rows.Close()

	var killers []m.KillingUnit

	for rows.Next() {
		var (
			unit m.KillingUnit
			file string
		)

		if err := rows.Scan(&unit.Index, &unit.Name, &file); err != nil {
			return nil, err
		}

		unit.File = m.Path(file)
		killers = append(killers, unit)
	}

	return killers, rows.Err()
}
