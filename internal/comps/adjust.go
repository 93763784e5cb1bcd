package comps

import (
	"math"

	"github.com/sells-group/appraisal-cli/internal/model"
)

// Adjustment rates in dollars.
const (
	livingAreaPerSqft = 100.0
	lotTierSqft       = 5000.0
	lotFirstTierRate  = 5.0
	lotSecondTierRate = 2.0
	agePerYear        = 500.0
	perBedroom        = 10000.0
	perBathroom       = 7500.0
	perGarageSpace    = 15000.0
	poolAdjustment    = 25000.0
	waterfrontPremium = 50000.0
)

// Adjust builds the adjustment grid moving a comparable's sale price toward
// the subject. Positive amounts mean the subject is superior. Lines that net
// to zero are omitted. Living area, lot and age lines are skipped when either
// side is missing the measurement.
func Adjust(subject *model.SubjectProperty, c *model.ComparableSale) model.AdjustmentGrid {
	lines := make(map[model.AdjustmentCategory]float64)
	add := func(cat model.AdjustmentCategory, amount float64) {
		if amount != 0 {
			lines[cat] = amount
		}
	}

	if subject.LivingArea > 0 && c.LivingArea > 0 {
		add(model.AdjustLivingArea, (subject.LivingArea-c.LivingArea)*livingAreaPerSqft)
	}
	if subject.LotSize > 0 && c.LotSize > 0 {
		add(model.AdjustLotSize, lotAdjustment(subject.LotSize-c.LotSize))
	}
	if subject.YearBuilt > 0 && c.YearBuilt > 0 {
		add(model.AdjustAge, float64(subject.YearBuilt-c.YearBuilt)*agePerYear)
	}
	add(model.AdjustBedrooms, float64(subject.Bedrooms-c.Bedrooms)*perBedroom)
	add(model.AdjustBathrooms, (subject.Bathrooms-c.Bathrooms)*perBathroom)
	add(model.AdjustGarage, float64(subject.GarageSpaces-c.GarageSpaces)*perGarageSpace)
	add(model.AdjustPool, featureAdjustment(subject.Pool, c.Pool, poolAdjustment))
	add(model.AdjustWaterfront, featureAdjustment(subject.Waterfront, c.Waterfront, waterfrontPremium))

	return model.NewAdjustmentGrid(lines)
}

// lotAdjustment prices a lot size difference at the first-tier rate up to
// the tier size and the second-tier rate beyond, keeping its sign.
func lotAdjustment(diff float64) float64 {
	abs := math.Abs(diff)
	amount := math.Min(abs, lotTierSqft)*lotFirstTierRate + math.Max(abs-lotTierSqft, 0)*lotSecondTierRate
	if diff < 0 {
		return -amount
	}
	return amount
}

func featureAdjustment(subjectHas, compHas bool, amount float64) float64 {
	switch {
	case subjectHas && !compHas:
		return amount
	case !subjectHas && compHas:
		return -amount
	default:
		return 0
	}
}
