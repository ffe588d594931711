// Package sqlite persists the output series of each run in a SQLite database.
// Missing values are stored as SQL NULL.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/couchcryptid/storm-track-etl/internal/domain"
	"github.com/couchcryptid/storm-track-etl/internal/pipeline"
)

// processedAtLayout is fixed width so processed_at orders correctly as text.
const processedAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store is a pipeline.Loader backed by a SQLite database.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the database at path and applies pending migrations.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	s := New(db, logger)
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing database handle. Callers must run Migrate.
func New(db *sql.DB, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger}
}

func (s *Store) Name() string { return "sqlite" }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// Load records the run and all of its series in a single transaction.
func (s *Store) Load(ctx context.Context, run domain.Run, series []pipeline.Series) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, source, processed_at) VALUES (?, ?, ?)`,
		run.ID, run.Source, run.ProcessedAt.UTC().Format(processedAtLayout),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	seriesStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO series (run_id, name, header, format, num_rows, num_columns) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare series insert: %w", err)
	}
	defer seriesStmt.Close()

	valueStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO series_values (run_id, name, row_idx, col_idx, value) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare value insert: %w", err)
	}
	defer valueStmt.Close()

	for _, ser := range series {
		if _, err := seriesStmt.ExecContext(ctx, run.ID, ser.Name, ser.Header, ser.Format, ser.Rows(), len(ser.Columns)); err != nil {
			return fmt.Errorf("insert series %s: %w", ser.Name, err)
		}
		for c, col := range ser.Columns {
			for r, v := range col {
				if _, err := valueStmt.ExecContext(ctx, run.ID, ser.Name, r, c, nullable(v)); err != nil {
					return fmt.Errorf("insert %s[%d][%d]: %w", ser.Name, r, c, err)
				}
			}
		}
		s.logger.Debug("series stored", "series", ser.Name, "rows", ser.Rows())
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func nullable(v float64) sql.NullFloat64 {
	if domain.IsMissing(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

// Columns reads back a stored series as columns, with NULL as missing.
func (s *Store) Columns(ctx context.Context, runID, name string) ([][]float64, error) {
	var rows, cols int
	err := s.db.QueryRowContext(ctx,
		`SELECT num_rows, num_columns FROM series WHERE run_id = ? AND name = ?`, runID, name,
	).Scan(&rows, &cols)
	if err != nil {
		return nil, fmt.Errorf("lookup series %s: %w", name, err)
	}

	out := make([][]float64, cols)
	for c := range out {
		out[c] = make([]float64, rows)
	}

	result, err := s.db.QueryContext(ctx,
		`SELECT row_idx, col_idx, value FROM series_values WHERE run_id = ? AND name = ?`, runID, name)
	if err != nil {
		return nil, err
	}
	defer result.Close()

	for result.Next() {
		var r, c int
		var v sql.NullFloat64
		if err := result.Scan(&r, &c, &v); err != nil {
			return nil, err
		}
		if v.Valid {
			out[c][r] = v.Float64
		} else {
			out[c][r] = domain.Missing()
		}
	}
	return out, result.Err()
}

// LatestRun returns the ID of the most recently processed run for a source.
func (s *Store) LatestRun(ctx context.Context, source string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id FROM runs WHERE source = ? ORDER BY processed_at DESC LIMIT 1`, source,
	).Scan(&id)
	return id, err
}

// Series reads back a stored series with its header and format.
func (s *Store) Series(ctx context.Context, runID, name string) (pipeline.Series, error) {
	out := pipeline.Series{Name: name}
	err := s.db.QueryRowContext(ctx,
		`SELECT header, format FROM series WHERE run_id = ? AND name = ?`, runID, name,
	).Scan(&out.Header, &out.Format)
	if err != nil {
		return pipeline.Series{}, fmt.Errorf("lookup series %s: %w", name, err)
	}
	out.Columns, err = s.Columns(ctx, runID, name)
	if err != nil {
		return pipeline.Series{}, err
	}
	return out, nil
}
