package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/appraisal-cli/internal/db"
	"github.com/sells-group/appraisal-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection.
var preparedStatements = map[string]string{
	"insert_analysis": `INSERT INTO analyses (id, parcel_id, address, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
	"touch_analysis":  `UPDATE analyses SET updated_at = $1 WHERE id = $2`,
	"upsert_approach": `INSERT INTO analysis_approaches (analysis_id, approach, data, stored_at) VALUES ($1, $2, $3, $4) ON CONFLICT (analysis_id, approach) DO UPDATE SET data = EXCLUDED.data, stored_at = EXCLUDED.stored_at`,
	"get_analysis":    `SELECT id, parcel_id, address, created_at, updated_at FROM analyses WHERE id = $1`,
	"get_approaches":  `SELECT approach, data FROM analysis_approaches WHERE analysis_id = $1 ORDER BY stored_at, approach`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS analyses (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	parcel_id  TEXT NOT NULL,
	address    TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS analysis_approaches (
	analysis_id TEXT NOT NULL REFERENCES analyses(id) ON DELETE CASCADE,
	approach    TEXT NOT NULL,
	data        JSONB NOT NULL,
	stored_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (analysis_id, approach)
);

CREATE INDEX IF NOT EXISTS idx_analyses_parcel_id ON analyses(parcel_id);
CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at DESC);
`

// Migrate creates the analysis tables.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// CreateAnalysis inserts a new analysis row and returns its id.
func (s *PostgresStore) CreateAnalysis(ctx context.Context, parcelID, address string) (string, error) {
	if parcelID == "" {
		return "", eris.New("postgres: parcel id is required")
	}
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO analyses (id, parcel_id, address, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, parcelID, address, now, now,
	)
	if err != nil {
		return "", eris.Wrapf(err, "postgres: insert analysis for %s", parcelID)
	}
	return id, nil
}

// StoreApproach records an approach payload as JSONB, replacing any earlier
// payload for the same approach.
func (s *PostgresStore) StoreApproach(ctx context.Context, analysisID, approach string, data any) error {
	payload, err := marshalApproach(approach, data)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin store approach")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(ctx, `UPDATE analyses SET updated_at = $1 WHERE id = $2`, now, analysisID)
	if err != nil {
		return eris.Wrapf(err, "postgres: touch analysis %s", analysisID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "analysis %s", analysisID)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO analysis_approaches (analysis_id, approach, data, stored_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (analysis_id, approach) DO UPDATE SET data = EXCLUDED.data, stored_at = EXCLUDED.stored_at`,
		analysisID, approach, payload, now,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: store %s for %s", approach, analysisID)
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit store approach")
}

// GetAnalysis loads an analysis and every approach payload stored for it.
func (s *PostgresStore) GetAnalysis(ctx context.Context, id string) (*model.Analysis, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, parcel_id, address, created_at, updated_at FROM analyses WHERE id = $1`,
		id,
	)
	a, err := scanAnalysis(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: get analysis %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get analysis %s", id)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT approach, data FROM analysis_approaches WHERE analysis_id = $1 ORDER BY stored_at, approach`,
		id,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list approaches for %s", id)
	}
	defer rows.Close()

	a.Approaches = make(map[string]json.RawMessage)
	for rows.Next() {
		var name string
		var data []byte
		if err := rows.Scan(&name, &data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan approach")
		}
		a.Approaches[name] = json.RawMessage(data)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: approaches iterate")
	}
	return a, nil
}

// ListAnalyses returns analyses newest first without their payloads.
func (s *PostgresStore) ListAnalyses(ctx context.Context, filter AnalysisFilter) ([]model.Analysis, error) {
	query := `SELECT id, parcel_id, address, created_at, updated_at FROM analyses`
	var args []any

	if filter.ParcelID != "" {
		args = append(args, filter.ParcelID)
		query += ` WHERE parcel_id = $1`
	}
	args = append(args, filter.limit(), filter.Offset)
	query += ` ORDER BY created_at DESC, id LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list analyses")
	}
	defer rows.Close()

	var out []model.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan analysis")
		}
		out = append(out, *a)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list analyses iterate")
}
