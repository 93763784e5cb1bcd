package store

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/appraisal-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLite_ImplementsStore(t *testing.T) {
	var _ Store = (*SQLiteStore)(nil)
}

func TestSQLite_Migrate_Idempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	require.NoError(t, st.Migrate(context.Background()))
}

func TestSQLite_CreateAndGetAnalysis(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	id, err := st.CreateAnalysis(ctx, "12-34-56", "123 Main St, Miami, FL 33101")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	a, err := st.GetAnalysis(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, a.ID)
	assert.Equal(t, "12-34-56", a.ParcelID)
	assert.Equal(t, "123 Main St, Miami, FL 33101", a.Address)
	assert.Empty(t, a.Approaches)
	assert.False(t, a.CreatedAt.IsZero())
}

func TestSQLite_CreateAnalysis_RequiresParcel(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.CreateAnalysis(context.Background(), "", "addr")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parcel id is required")
}

func TestSQLite_StoreApproach(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	id, err := st.CreateAnalysis(ctx, "P1", "1 Oak Ave")
	require.NoError(t, err)

	cost := &model.IndicatedValue{
		Approach:   model.ApproachCost,
		Value:      570000,
		Confidence: model.ConfidenceHigh,
		Detail:     &model.CostDetail{LandValue: 90000, QualityTier: "good"},
	}
	require.NoError(t, st.StoreApproach(ctx, id, "cost", cost))
	require.NoError(t, st.StoreApproach(ctx, id, "reconciliation", model.ReconciliationResult{ReconciledValue: 311000}))

	a, err := st.GetAnalysis(ctx, id)
	require.NoError(t, err)
	require.Len(t, a.Approaches, 2)

	var got model.IndicatedValue
	require.NoError(t, json.Unmarshal(a.Approaches["cost"], &got))
	assert.Equal(t, 570000.0, got.Value)
	require.NotNil(t, got.CostDetail())
	assert.Equal(t, "good", got.CostDetail().QualityTier)

	var rec model.ReconciliationResult
	require.NoError(t, json.Unmarshal(a.Approaches["reconciliation"], &rec))
	assert.Equal(t, 311000.0, rec.ReconciledValue)
}

func TestSQLite_StoreApproach_Overwrites(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	id, err := st.CreateAnalysis(ctx, "P1", "")
	require.NoError(t, err)

	require.NoError(t, st.StoreApproach(ctx, id, "income", map[string]float64{"value": 1}))
	require.NoError(t, st.StoreApproach(ctx, id, "income", map[string]float64{"value": 2}))

	a, err := st.GetAnalysis(ctx, id)
	require.NoError(t, err)
	require.Len(t, a.Approaches, 1)
	assert.JSONEq(t, `{"value":2}`, string(a.Approaches["income"]))
}

func TestSQLite_StoreApproach_UnknownAnalysis(t *testing.T) {
	st := newTestSQLiteStore(t)

	err := st.StoreApproach(context.Background(), "missing", "cost", map[string]int{"v": 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLite_StoreApproach_Invalid(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	id, err := st.CreateAnalysis(ctx, "P1", "")
	require.NoError(t, err)

	err = st.StoreApproach(ctx, id, "", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "approach name is required")

	err = st.StoreApproach(ctx, id, "bad", make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "marshal bad")
}

func TestSQLite_GetAnalysis_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetAnalysis(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLite_ListAnalyses(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	for _, parcel := range []string{"A", "B", "A", "C", "A"} {
		_, err := st.CreateAnalysis(ctx, parcel, "")
		require.NoError(t, err)
	}

	all, err := st.ListAnalyses(ctx, AnalysisFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 5)

	byParcel, err := st.ListAnalyses(ctx, AnalysisFilter{ParcelID: "A"})
	require.NoError(t, err)
	assert.Len(t, byParcel, 3)
	for _, a := range byParcel {
		assert.Equal(t, "A", a.ParcelID)
		assert.Nil(t, a.Approaches)
	}

	page, err := st.ListAnalyses(ctx, AnalysisFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page, 2)

	rest, err := st.ListAnalyses(ctx, AnalysisFilter{Limit: 10, Offset: 3})
	require.NoError(t, err)
	assert.Len(t, rest, 2)
}

func TestSQLite_ListAnalyses_Empty(t *testing.T) {
	st := newTestSQLiteStore(t)

	out, err := st.ListAnalyses(context.Background(), AnalysisFilter{ParcelID: "none"})
	require.NoError(t, err)
	assert.Empty(t, out)
}
