package reconcile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/appraisal-cli/internal/model"
)

// WeightPolicy maps property types to reconciliation weights. It is built
// once from configuration and never modified.
type WeightPolicy struct {
	weights map[model.PropertyType]model.Weights
}

// NewWeightPolicy validates a weight table and copies it into a policy.
// Every row must sum to 100 and a default row must be present.
func NewWeightPolicy(table map[string]model.Weights) (WeightPolicy, error) {
	if _, ok := table[string(model.PropertyTypeDefault)]; !ok {
		return WeightPolicy{}, eris.New("reconcile: weight policy has no default entry")
	}

	var errs []string
	weights := make(map[model.PropertyType]model.Weights, len(table))
	for name, w := range table {
		pt := model.PropertyType(name)
		if !pt.Valid() {
			errs = append(errs, fmt.Sprintf("unknown property type %q", name))
			continue
		}
		if w.Sales < 0 || w.Cost < 0 || w.Income < 0 {
			errs = append(errs, fmt.Sprintf("%s has a negative weight", name))
			continue
		}
		if w.Sum() != 100 {
			errs = append(errs, fmt.Sprintf("%s weights sum to %d, want 100", name, w.Sum()))
			continue
		}
		weights[pt] = w
	}
	if len(errs) > 0 {
		sort.Strings(errs)
		return WeightPolicy{}, eris.Errorf("reconcile: invalid weight policy: %s", strings.Join(errs, "; "))
	}
	return WeightPolicy{weights: weights}, nil
}

// Lookup returns the weights for pt, falling back to the default row.
func (p WeightPolicy) Lookup(pt model.PropertyType) model.Weights {
	if w, ok := p.weights[pt]; ok {
		return w
	}
	return p.weights[model.PropertyTypeDefault]
}

// Has reports whether pt has its own row.
func (p WeightPolicy) Has(pt model.PropertyType) bool {
	_, ok := p.weights[pt]
	return ok
}

// Table returns a copy of the policy keyed by property type name.
func (p WeightPolicy) Table() map[string]model.Weights {
	out := make(map[string]model.Weights, len(p.weights))
	for pt, w := range p.weights {
		out[string(pt)] = w
	}
	return out
}

// MostApplicable returns the approach with the highest configured weight for
// pt. Ties resolve in sales, cost, income order.
func (p WeightPolicy) MostApplicable(pt model.PropertyType) model.Approach {
	w := p.Lookup(pt)
	best := model.ApproachSales
	for _, a := range model.Approaches[1:] {
		if w.For(a) > w.For(best) {
			best = a
		}
	}
	return best
}
