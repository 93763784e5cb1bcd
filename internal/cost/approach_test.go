package cost

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/appraisal-cli/internal/model"
)

func fixedClock() func() time.Time {
	return func() time.Time { return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC) }
}

func subject(yearBuilt int) *model.SubjectProperty {
	return &model.SubjectProperty{
		ParcelID: "A-100",
		Characteristics: model.Characteristics{
			LivingArea:       2000,
			LotSize:          8000,
			Bedrooms:         3,
			Bathrooms:        2,
			YearBuilt:        yearBuilt,
			ConstructionType: model.ConstructionFrame,
			GarageSpaces:     2,
		},
		JustValue: 360000,
		LandValue: 120000,
	}
}

func TestAnalyze_ThreeYearOldIsHigh(t *testing.T) {
	e := NewEngine(DefaultRates(), WithClock(fixedClock()))
	iv, err := e.Analyze(context.Background(), subject(2023))
	require.NoError(t, err)

	// RCN: (2000*165 + 40000) * 1.15 * 1.10 = 468,050
	// Physical: 468,050 * 3/50 = 28,083
	// Value: 120,000 + 439,967 + 10,000 = 569,967
	assert.Equal(t, model.ApproachCost, iv.Approach)
	assert.InDelta(t, 570000, iv.Value, 0.001)
	assert.Equal(t, model.ConfidenceHigh, iv.Confidence)

	d := iv.CostDetail()
	require.NotNil(t, d)
	assert.InDelta(t, 468050, d.ReplacementCostNew, 0.01)
	assert.InDelta(t, 28083, d.PhysicalDepr, 0.01)
	assert.Equal(t, "assessor", d.LandMethod)
	assert.Equal(t, 3, d.EffectiveAge)
}

func TestAnalyze_HighRegardlessOfDepreciation(t *testing.T) {
	s := subject(2023)
	s.Bathrooms = 1 // functional obsolescence
	e := NewEngine(DefaultRates(), WithClock(fixedClock()))
	iv, err := e.Analyze(context.Background(), s)
	require.NoError(t, err)
	assert.Greater(t, iv.CostDetail().FunctionalDepr, 0.0)
	assert.Equal(t, model.ConfidenceHigh, iv.Confidence)
}

func TestAnalyze_ConfidenceByAge(t *testing.T) {
	e := NewEngine(DefaultRates(), WithClock(fixedClock()))
	tests := []struct {
		built int
		want  model.Confidence
	}{
		{2021, model.ConfidenceHigh},
		{2016, model.ConfidenceMedium},
		{2011, model.ConfidenceMedium},
		{2010, model.ConfidenceLow},
		{1950, model.ConfidenceLow},
	}
	for _, tt := range tests {
		iv, err := e.Analyze(context.Background(), subject(tt.built))
		require.NoError(t, err)
		assert.Equal(t, tt.want, iv.Confidence, "built %d", tt.built)
	}
}

func TestAnalyze_EffectiveYearBuilt(t *testing.T) {
	s := subject(1960)
	s.EffectiveYearBuilt = 2022
	e := NewEngine(DefaultRates(), WithClock(fixedClock()))
	iv, err := e.Analyze(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, 4, iv.CostDetail().EffectiveAge)
	assert.Equal(t, model.ConfidenceHigh, iv.Confidence)
}

func TestAnalyze_FullyDepreciated(t *testing.T) {
	e := NewEngine(DefaultRates(), WithClock(fixedClock()))
	iv, err := e.Analyze(context.Background(), subject(1900))
	require.NoError(t, err)

	d := iv.CostDetail()
	assert.InDelta(t, d.ReplacementCostNew, d.TotalDepreciation, 0.01)
	assert.Zero(t, d.DepreciatedCost)
	assert.InDelta(t, 130000, iv.Value, 0.001)
}

func TestAnalyze_NoLivingArea(t *testing.T) {
	s := subject(2020)
	s.LivingArea = 0
	_, err := NewEngine(DefaultRates()).Analyze(context.Background(), s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no living area")
}

func TestAnalyze_MissingQualityRate(t *testing.T) {
	rates := DefaultRates()
	delete(rates.Quality, TierGood)
	_, err := NewEngine(rates, WithClock(fixedClock())).Analyze(context.Background(), subject(2020))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "good")
}

func TestAnalyze_NilSubject(t *testing.T) {
	_, err := NewEngine(DefaultRates()).Analyze(context.Background(), nil)
	assert.Error(t, err)
}
