// Package reconcile blends the three indicated values into one weighted,
// confidence-scored value opinion.
package reconcile

import (
	"fmt"
	"math"
	"strings"

	"github.com/sells-group/appraisal-cli/internal/model"
	"github.com/sells-group/appraisal-cli/internal/money"
)

// Spread thresholds for reconciliation confidence.
const (
	highSpread   = 0.15
	mediumSpread = 0.25

	// rangeFallback widens the reconciled value when no approach produced a
	// value. Reconciled value is zero in that case, so the branch never
	// changes the output.
	rangeFallback = 0.10
)

// Inputs carries the optional outputs of the three engines. A nil slot means
// the approach failed or was not run.
type Inputs struct {
	Sales  *model.IndicatedValue
	Cost   *model.IndicatedValue
	Income *model.IndicatedValue
}

// For returns the slot for an approach.
func (in Inputs) For(a model.Approach) *model.IndicatedValue {
	switch a {
	case model.ApproachSales:
		return in.Sales
	case model.ApproachCost:
		return in.Cost
	case model.ApproachIncome:
		return in.Income
	default:
		return nil
	}
}

// Engine reconciles indicated values under a weight policy.
type Engine struct {
	policy WeightPolicy
}

// NewEngine creates a reconciliation engine.
func NewEngine(policy WeightPolicy) *Engine {
	return &Engine{policy: policy}
}

// Policy returns the engine's weight policy.
func (e *Engine) Policy() WeightPolicy {
	return e.policy
}

// Reconcile blends the nonzero indicated values. Weights of missing
// approaches are dropped from the divisor rather than redistributed, so the
// remaining weights are not rescaled to 100. The result depends only on its
// arguments and the policy.
func (e *Engine) Reconcile(in Inputs, pt model.PropertyType) model.ReconciliationResult {
	weights := e.policy.Lookup(pt)

	var (
		weightedSum float64
		totalWeight int
		used        []model.Approach
		values      []float64
	)
	for _, a := range model.Approaches {
		iv := in.For(a)
		if iv == nil || iv.Value == 0 {
			continue
		}
		w := weights.For(a)
		weightedSum += iv.Value * float64(w)
		totalWeight += w
		used = append(used, a)
		values = append(values, iv.Value)
	}

	res := model.ReconciliationResult{
		Weights:        weights,
		MostApplicable: e.policy.MostApplicable(pt),
		ApproachesUsed: len(used),
	}
	if totalWeight > 0 {
		res.ReconciledValue = money.RoundThousand(weightedSum / float64(totalWeight))
	}

	if len(values) > 0 {
		res.ValueRangeLow, res.ValueRangeHigh = values[0], values[0]
		for _, v := range values[1:] {
			res.ValueRangeLow = math.Min(res.ValueRangeLow, v)
			res.ValueRangeHigh = math.Max(res.ValueRangeHigh, v)
		}
	} else {
		res.ValueRangeLow = res.ReconciledValue * (1 - rangeFallback)
		res.ValueRangeHigh = res.ReconciledValue * (1 + rangeFallback)
	}

	if res.ReconciledValue > 0 {
		res.Spread = (res.ValueRangeHigh - res.ValueRangeLow) / res.ReconciledValue
	}

	switch {
	case res.ReconciledValue == 0:
		res.Confidence = model.ConfidenceLow
	case len(used) == 3 && res.Spread < highSpread:
		res.Confidence = model.ConfidenceHigh
	case len(used) >= 2 && res.Spread < mediumSpread:
		res.Confidence = model.ConfidenceMedium
	default:
		res.Confidence = model.ConfidenceLow
	}

	res.Narrative = narrative(res, used, pt)
	return res
}

func narrative(res model.ReconciliationResult, used []model.Approach, pt model.PropertyType) string {
	if len(used) == 0 {
		return "No valuation approach produced a value; no reconciled opinion is available."
	}

	parts := make([]string, 0, len(used))
	for _, a := range used {
		parts = append(parts, fmt.Sprintf("%s %d%%", a.Label(), res.Weights.For(a)))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Reconciled value of %s from %d of 3 approaches (%s).",
		money.Format(res.ReconciledValue), len(used), strings.Join(parts, ", "))
	fmt.Fprintf(&b, " Indicated range %s to %s, spread %s.",
		money.Format(res.ValueRangeLow), money.Format(res.ValueRangeHigh), money.Percent(res.Spread))
	fmt.Fprintf(&b, " The %s approach carries the most weight for %s properties.",
		res.MostApplicable.Label(), pt)
	fmt.Fprintf(&b, " Confidence %s.", res.Confidence)
	return b.String()
}
