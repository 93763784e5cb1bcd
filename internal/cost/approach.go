package cost

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/appraisal-cli/internal/model"
	"github.com/sells-group/appraisal-cli/internal/money"
)

// Engine is the cost approach.
type Engine struct {
	rates Rates
	now   func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock used to age the building.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates a cost approach engine.
func NewEngine(rates Rates, opts ...Option) *Engine {
	e := &Engine{rates: rates, now: time.Now}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Analyze values the subject as land plus depreciated replacement cost plus
// site improvements.
func (e *Engine) Analyze(_ context.Context, subject *model.SubjectProperty) (*model.IndicatedValue, error) {
	if subject == nil {
		return nil, eris.New("cost: nil subject")
	}
	if subject.LivingArea <= 0 {
		return nil, eris.Errorf("cost: parcel %s has no living area", subject.ParcelID)
	}

	d := &model.CostDetail{SiteImprovements: e.rates.SiteImprovements}
	d.LandValue, d.LandMethod = e.rates.LandValue(subject)
	e.rates.ReplacementCost(subject, d)
	if d.BaseCostPerSqft <= 0 {
		return nil, eris.Errorf("cost: no base rate for quality tier %q", d.QualityTier)
	}

	age := subject.EffectiveAge(e.now().Year())
	Depreciate(subject, age, d)

	value := money.RoundThousand(d.LandValue + d.DepreciatedCost + d.SiteImprovements)
	conf := ageConfidence(age)

	zap.L().Debug("cost: indicated value",
		zap.String("parcel_id", subject.ParcelID),
		zap.Float64("value", value),
		zap.Float64("rcn", d.ReplacementCostNew),
		zap.Int("effective_age", age),
	)

	return &model.IndicatedValue{
		Approach:   model.ApproachCost,
		Value:      value,
		Confidence: conf,
		Narrative: fmt.Sprintf(
			"Land %s (%s) plus %s quality replacement cost new of %s less %s depreciation (effective age %d of %d years) plus %s site improvements indicates %s.",
			money.Format(d.LandValue), d.LandMethod, d.QualityTier,
			money.Format(d.ReplacementCostNew), money.Format(d.TotalDepreciation),
			d.EffectiveAge, d.EconomicLife, money.Format(d.SiteImprovements), money.Format(value),
		),
		Detail: d,
	}, nil
}

func ageConfidence(age int) model.Confidence {
	switch {
	case age <= 5:
		return model.ConfidenceHigh
	case age <= 15:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}
