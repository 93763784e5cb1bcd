package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

var analysisColumns = []string{"id", "parcel_id", "address", "created_at", "updated_at"}

func TestPostgresStore_ImplementsStore(t *testing.T) {
	var _ Store = (*PostgresStore)(nil)
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS analyses`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateAnalysis(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO analyses`).
		WithArgs(pgxmock.AnyArg(), "P1", "1 Oak Ave", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	id, err := s.CreateAnalysis(context.Background(), "P1", "1 Oak Ave")
	require.NoError(t, err)
	assert.Len(t, id, 36)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateAnalysis_Error(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO analyses`).
		WithArgs(pgxmock.AnyArg(), "P1", "", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))

	_, err := s.CreateAnalysis(context.Background(), "P1", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert analysis for P1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_StoreApproach_Upsert(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE analyses SET updated_at = \$1 WHERE id = \$2`).
		WithArgs(pgxmock.AnyArg(), "a1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`INSERT INTO analysis_approaches .* ON CONFLICT`).
		WithArgs("a1", "cost", []byte(`{"value":570000}`), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := s.StoreApproach(context.Background(), "a1", "cost", map[string]float64{"value": 570000})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_StoreApproach_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE analyses SET updated_at`).
		WithArgs(pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	err := s.StoreApproach(context.Background(), "missing", "cost", 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetAnalysis(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, parcel_id, address, created_at, updated_at FROM analyses WHERE id = \$1`).
		WithArgs("a1").
		WillReturnRows(pgxmock.NewRows(analysisColumns).AddRow("a1", "P1", "1 Oak Ave", now, now))
	mock.ExpectQuery(`SELECT approach, data FROM analysis_approaches`).
		WithArgs("a1").
		WillReturnRows(pgxmock.NewRows([]string{"approach", "data"}).
			AddRow("cost", []byte(`{"value":570000}`)).
			AddRow("reconciliation", []byte(`{"reconciled_value":311000}`)))

	a, err := s.GetAnalysis(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, "P1", a.ParcelID)
	assert.Equal(t, now, a.CreatedAt)
	require.Len(t, a.Approaches, 2)
	assert.JSONEq(t, `{"reconciled_value":311000}`, string(a.Approaches["reconciliation"]))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetAnalysis_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM analyses WHERE id = \$1`).
		WithArgs("nope").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetAnalysis(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListAnalyses_Filtered(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`FROM analyses WHERE parcel_id = \$1 ORDER BY created_at DESC, id LIMIT \$2 OFFSET \$3`).
		WithArgs("P1", 100, 0).
		WillReturnRows(pgxmock.NewRows(analysisColumns).
			AddRow("a2", "P1", "", now, now).
			AddRow("a1", "P1", "", now, now))

	out, err := s.ListAnalyses(context.Background(), AnalysisFilter{ParcelID: "P1"})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "a2", out[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListAnalyses_Paged(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM analyses ORDER BY created_at DESC, id LIMIT \$1 OFFSET \$2`).
		WithArgs(5, 10).
		WillReturnRows(pgxmock.NewRows(analysisColumns))

	out, err := s.ListAnalyses(context.Background(), AnalysisFilter{Limit: 5, Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Close_NilCloseFn(t *testing.T) {
	s := &PostgresStore{}
	assert.NoError(t, s.Close())
}
