package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/appraisal-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS analyses (
	id         TEXT PRIMARY KEY,
	parcel_id  TEXT NOT NULL,
	address    TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS analysis_approaches (
	analysis_id TEXT NOT NULL REFERENCES analyses(id) ON DELETE CASCADE,
	approach    TEXT NOT NULL,
	data        TEXT NOT NULL,
	stored_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (analysis_id, approach)
);

CREATE INDEX IF NOT EXISTS idx_analyses_parcel_id ON analyses(parcel_id);
CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at);
`

// Migrate creates the analysis tables.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateAnalysis inserts a new analysis row and returns its id.
func (s *SQLiteStore) CreateAnalysis(ctx context.Context, parcelID, address string) (string, error) {
	if parcelID == "" {
		return "", eris.New("sqlite: parcel id is required")
	}
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO analyses (id, parcel_id, address, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, parcelID, address, now, now,
	)
	if err != nil {
		return "", eris.Wrapf(err, "sqlite: insert analysis for %s", parcelID)
	}
	return id, nil
}

// StoreApproach records an approach payload as JSON. Storing the same
// approach twice replaces the earlier payload.
func (s *SQLiteStore) StoreApproach(ctx context.Context, analysisID, approach string, data any) error {
	payload, err := marshalApproach(approach, data)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`UPDATE analyses SET updated_at = ? WHERE id = ?`,
		now, analysisID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: touch analysis %s", analysisID)
	}
	if err := checkRowsAffected(res, analysisID); err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO analysis_approaches (analysis_id, approach, data, stored_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (analysis_id, approach) DO UPDATE SET data = excluded.data, stored_at = excluded.stored_at`,
		analysisID, approach, string(payload), now,
	)
	return eris.Wrapf(err, "sqlite: store %s for %s", approach, analysisID)
}

// GetAnalysis loads an analysis and every approach payload stored for it.
func (s *SQLiteStore) GetAnalysis(ctx context.Context, id string) (*model.Analysis, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, parcel_id, address, created_at, updated_at FROM analyses WHERE id = ?`,
		id,
	)
	a, err := scanAnalysis(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: get analysis %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get analysis %s", id)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT approach, data FROM analysis_approaches WHERE analysis_id = ? ORDER BY stored_at, approach`,
		id,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list approaches for %s", id)
	}
	defer rows.Close() //nolint:errcheck

	a.Approaches = make(map[string]json.RawMessage)
	for rows.Next() {
		var name, data string
		if err := rows.Scan(&name, &data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan approach")
		}
		a.Approaches[name] = json.RawMessage(data)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: approaches iterate")
	}
	return a, nil
}

// ListAnalyses returns analyses newest first without their payloads.
func (s *SQLiteStore) ListAnalyses(ctx context.Context, filter AnalysisFilter) ([]model.Analysis, error) {
	query := `SELECT id, parcel_id, address, created_at, updated_at FROM analyses WHERE 1=1`
	var args []any

	if filter.ParcelID != "" {
		query += ` AND parcel_id = ?`
		args = append(args, filter.ParcelID)
	}
	query += ` ORDER BY created_at DESC, id LIMIT ?`
	args = append(args, filter.limit())

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list analyses")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan analysis")
		}
		out = append(out, *a)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list analyses iterate")
}

func checkRowsAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "analysis %s", id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanAnalysis(row scannable) (*model.Analysis, error) {
	var a model.Analysis
	if err := row.Scan(&a.ID, &a.ParcelID, &a.Address, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}
