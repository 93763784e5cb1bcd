// Package cost implements the cost approach: land value plus depreciated
// replacement cost of the improvements.
package cost

import (
	"strings"

	"github.com/sells-group/appraisal-cli/internal/model"
)

// Quality tiers, keyed into Rates.Quality.
const (
	TierLuxury    = "luxury"
	TierExcellent = "excellent"
	TierGood      = "good"
	TierStandard  = "standard"
	TierEconomy   = "economy"
)

// Rates holds the cost tables the approach reads.
type Rates struct {
	Land             map[string]float64 // $/sqft of lot by lower-case county
	DefaultLand      float64
	Quality          map[string]float64 // base $/sqft by tier
	SiteImprovements float64
}

// DefaultRates returns the stock cost tables.
func DefaultRates() Rates {
	return Rates{
		Land:        map[string]float64{},
		DefaultLand: 12,
		Quality: map[string]float64{
			TierLuxury:    285,
			TierExcellent: 215,
			TierGood:      165,
			TierStandard:  130,
			TierEconomy:   105,
		},
		SiteImprovements: 10000,
	}
}

// Feature adders in dollars.
const (
	poolAdder      = 35000.0
	fireplaceAdder = 5000.0
	garageAdder    = 20000.0 // per space

	softCostRate = 0.15
	profitRate   = 0.10
)

// Depreciation inputs.
const (
	functionalRate     = 0.03
	minBathBedRatio    = 0.5
	noGaragePenalty    = 15000.0
	noGarageValueFloor = 300000.0
)

var constructionFactors = map[model.ConstructionType]float64{
	model.ConstructionMasonry:  1.10,
	model.ConstructionFrame:    1.00,
	model.ConstructionConcrete: 1.15,
	model.ConstructionSteel:    1.20,
}

var economicLives = map[model.ConstructionType]int{
	model.ConstructionMasonry:  60,
	model.ConstructionFrame:    50,
	model.ConstructionConcrete: 70,
	model.ConstructionSteel:    75,
}

const defaultEconomicLife = 55

// ConstructionFactor returns the cost multiplier for a construction type.
func ConstructionFactor(ct model.ConstructionType) float64 {
	if f, ok := constructionFactors[ct]; ok {
		return f
	}
	return 1.0
}

// EconomicLife returns the total useful life in years for a construction
// type.
func EconomicLife(ct model.ConstructionType) int {
	if l, ok := economicLives[ct]; ok {
		return l
	}
	return defaultEconomicLife
}

// QualityTier classifies a building by its assessed value per square foot.
func QualityTier(valuePerSqft float64) string {
	switch {
	case valuePerSqft > 300:
		return TierLuxury
	case valuePerSqft > 225:
		return TierExcellent
	case valuePerSqft > 175:
		return TierGood
	case valuePerSqft < 120:
		return TierEconomy
	default:
		return TierStandard
	}
}

// LandValue returns the land value and the method used. The assessor's land
// value is trusted when it prices the lot between $5 and $100 per sqft;
// otherwise the county base rate is applied with waterfront and lot size
// factors.
func (r Rates) LandValue(p *model.SubjectProperty) (float64, string) {
	if p.LandValue > 0 && p.LotSize > 0 {
		perSqft := p.LandValue / p.LotSize
		if perSqft >= 5 && perSqft <= 100 {
			return p.LandValue, "assessor"
		}
	}

	rate := r.DefaultLand
	if cr, ok := r.Land[strings.ToLower(strings.TrimSpace(p.Address.County))]; ok {
		rate = cr
	}
	value := p.LotSize * rate
	if p.Waterfront {
		value *= 2.0
	}
	value *= lotTierFactor(p.LotSize)
	return value, "base_rate"
}

func lotTierFactor(lot float64) float64 {
	switch {
	case lot > 20000:
		return 0.85
	case lot > 15000:
		return 0.92
	case lot < 5000:
		return 1.10
	default:
		return 1.0
	}
}

// ReplacementCost fills the replacement cost new lines of d.
func (r Rates) ReplacementCost(p *model.SubjectProperty, d *model.CostDetail) {
	d.QualityTier = QualityTier(p.MarketValue() / p.LivingArea)
	d.BaseCostPerSqft = r.Quality[d.QualityTier]
	d.ConstructionFactor = ConstructionFactor(p.ConstructionType)
	d.DirectCost = p.LivingArea * d.BaseCostPerSqft * d.ConstructionFactor

	if p.Pool {
		d.FeatureAdders += poolAdder
	}
	if p.Fireplace {
		d.FeatureAdders += fireplaceAdder
	}
	d.FeatureAdders += float64(p.GarageSpaces) * garageAdder

	subtotal := d.DirectCost + d.FeatureAdders
	d.SoftCosts = subtotal * softCostRate
	subtotal += d.SoftCosts
	d.EntrepreneurProfit = subtotal * profitRate
	d.ReplacementCostNew = subtotal + d.EntrepreneurProfit
}

// Depreciate fills the depreciation lines of d for a building of the given
// effective age. Total depreciation never exceeds replacement cost new.
func Depreciate(p *model.SubjectProperty, age int, d *model.CostDetail) {
	d.EffectiveAge = age
	d.EconomicLife = EconomicLife(p.ConstructionType)

	used := min(age, d.EconomicLife)
	d.PhysicalDepr = d.ReplacementCostNew * float64(used) / float64(d.EconomicLife)

	if p.Bedrooms > 0 && p.Bathrooms/float64(p.Bedrooms) < minBathBedRatio {
		d.FunctionalDepr += d.ReplacementCostNew * functionalRate
	}
	if p.GarageSpaces == 0 && p.MarketValue() > noGarageValueFloor {
		d.FunctionalDepr += noGaragePenalty
	}

	d.ExternalDepr = 0
	d.TotalDepreciation = min(d.PhysicalDepr+d.FunctionalDepr+d.ExternalDepr, d.ReplacementCostNew)
	d.DepreciatedCost = d.ReplacementCostNew - d.TotalDepreciation
}
