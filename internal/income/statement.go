package income

import (
	"math"

	"github.com/sells-group/appraisal-cli/internal/model"
	"github.com/sells-group/appraisal-cli/internal/money"
)

// Rent premiums.
const (
	sizeSensitivity = 0.5
	minSizeFactor   = 0.7
	maxSizeFactor   = 1.5
	poolPremium     = 0.08
	waterfrontPrem  = 0.25
	garageRent      = 100.0 // flat, two or more spaces
)

// Operating expense ratios against effective gross income.
const (
	otherIncomeRatio = 0.02
	taxFallbackRatio = 0.12
	insuranceRatio   = 0.08
	managementRatio  = 0.08
	maintenanceRatio = 0.05
	reservesRatio    = 0.05
)

// EstimateRent adjusts the market median rent for the subject's size and
// features. The result is rounded to whole dollars.
func EstimateRent(p *model.SubjectProperty, stats *model.RentalMarketStats) float64 {
	rent := stats.MedianRent
	if stats.TypicalSqft > 0 && p.LivingArea > 0 {
		factor := 1 + sizeSensitivity*(p.LivingArea/stats.TypicalSqft-1)
		rent *= math.Min(math.Max(factor, minSizeFactor), maxSizeFactor)
	}
	if p.Pool {
		rent *= 1 + poolPremium
	}
	if p.Waterfront {
		rent *= 1 + waterfrontPrem
	}
	rent *= 1 + vintageAdjustment(p.YearBuilt)
	if p.GarageSpaces >= 2 {
		rent += garageRent
	}
	return money.Round(rent, 1)
}

func vintageAdjustment(yearBuilt int) float64 {
	switch {
	case yearBuilt <= 0:
		return 0
	case yearBuilt >= 2015:
		return 0.10
	case yearBuilt >= 2000:
		return 0.05
	case yearBuilt < 1970:
		return -0.10
	case yearBuilt < 1985:
		return -0.05
	default:
		return 0
	}
}

// BuildStatement produces the annual pro-forma for a monthly rent.
func BuildStatement(p *model.SubjectProperty, monthlyRent, vacancyRate, taxRate float64) model.IncomeStatement {
	s := model.IncomeStatement{MonthlyRent: monthlyRent}
	s.PotentialGross = monthlyRent * 12
	s.OtherIncome = s.PotentialGross * otherIncomeRatio
	s.VacancyLoss = s.PotentialGross * vacancyRate
	s.EffectiveGross = s.PotentialGross + s.OtherIncome - s.VacancyLoss

	if p.AssessedValue > 0 && taxRate > 0 {
		s.PropertyTax = p.AssessedValue * taxRate
	} else {
		s.PropertyTax = s.EffectiveGross * taxFallbackRatio
	}
	s.Insurance = s.EffectiveGross * insuranceRatio
	s.Management = s.EffectiveGross * managementRatio
	s.Maintenance = s.EffectiveGross * maintenanceRatio
	s.Reserves = s.EffectiveGross * reservesRatio
	s.HOA = p.HOAMonthly * 12

	s.TotalExpenses = s.PropertyTax + s.Insurance + s.Management + s.Maintenance + s.Reserves + s.HOA
	s.NetOperatingIncome = s.EffectiveGross - s.TotalExpenses
	return s
}
