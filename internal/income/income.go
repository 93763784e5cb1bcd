// Package income implements the income approach: a pro-forma operating
// statement capitalized into value by direct capitalization and a gross rent
// multiplier.
package income

import (
	"context"
	"fmt"
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/appraisal-cli/internal/model"
	"github.com/sells-group/appraisal-cli/internal/money"
)

// MarketData supplies rental market statistics.
type MarketData interface {
	GetRentalMarket(ctx context.Context, zip string, bedrooms int, pt model.PropertyType) (*model.RentalMarketStats, error)
}

// Rates holds the capitalization tables keyed by property type name. Missing
// types fall back to the "default" row.
type Rates struct {
	CapRates        map[string]float64
	GRMs            map[string]float64
	PropertyTaxRate float64
}

// DefaultRates returns the stock capitalization tables.
func DefaultRates() Rates {
	return Rates{
		CapRates: map[string]float64{
			string(model.PropertyTypeSingleFamilyOwner):  0.065,
			string(model.PropertyTypeSingleFamilyRental): 0.07,
			string(model.PropertyTypeMultiFamily):        0.075,
			string(model.PropertyTypeNewConstruction):    0.06,
			string(model.PropertyTypeSpecialPurpose):     0.09,
			string(model.PropertyTypeDefault):            0.07,
		},
		GRMs: map[string]float64{
			string(model.PropertyTypeSingleFamilyOwner):  12,
			string(model.PropertyTypeSingleFamilyRental): 11,
			string(model.PropertyTypeMultiFamily):        10,
			string(model.PropertyTypeNewConstruction):    13,
			string(model.PropertyTypeSpecialPurpose):     8,
			string(model.PropertyTypeDefault):            11,
		},
		PropertyTaxRate: 0.018,
	}
}

// CapRate returns the capitalization rate for pt.
func (r Rates) CapRate(pt model.PropertyType) float64 {
	return lookup(r.CapRates, pt)
}

// GRM returns the gross rent multiplier for pt.
func (r Rates) GRM(pt model.PropertyType) float64 {
	return lookup(r.GRMs, pt)
}

func lookup(table map[string]float64, pt model.PropertyType) float64 {
	if v, ok := table[string(pt)]; ok {
		return v
	}
	return table[string(model.PropertyTypeDefault)]
}

// Blend of the two capitalization methods.
const (
	directCapShare = 0.70
	grmShare       = 0.30
)

// Engine is the income approach.
type Engine struct {
	market MarketData
	rates  Rates
}

// NewEngine creates an income approach engine.
func NewEngine(market MarketData, rates Rates) *Engine {
	return &Engine{market: market, rates: rates}
}

// Analyze values the subject from its estimated rent. A market data failure
// fails the approach.
func (e *Engine) Analyze(ctx context.Context, subject *model.SubjectProperty, pt model.PropertyType) (*model.IndicatedValue, error) {
	if subject == nil {
		return nil, eris.New("income: nil subject")
	}

	stats, err := e.market.GetRentalMarket(ctx, subject.Address.Zip, subject.Bedrooms, pt)
	if err != nil {
		return nil, eris.Wrap(err, "income: get rental market")
	}
	if stats == nil || stats.MedianRent <= 0 {
		return nil, eris.Errorf("income: no rental market data for %s (%d bedrooms)", subject.Address.Zip, subject.Bedrooms)
	}

	capRate := e.rates.CapRate(pt)
	grm := e.rates.GRM(pt)
	if capRate <= 0 || grm <= 0 {
		return nil, eris.Errorf("income: no cap rate or GRM configured for %s", pt)
	}

	rent := EstimateRent(subject, stats)
	stmt := BuildStatement(subject, rent, stats.VacancyRate, e.rates.PropertyTaxRate)

	d := &model.IncomeDetail{
		Market:           *stats,
		Statement:        stmt,
		CapRate:          capRate,
		GRM:              grm,
		DirectCapValue:   math.Max(0, stmt.NetOperatingIncome/capRate),
		GRMValue:         stmt.PotentialGross * grm,
		RentInMarketBand: inBand(rent, stats),
	}
	value := money.RoundThousand(directCapShare*d.DirectCapValue + grmShare*d.GRMValue)
	d.Investment = Investment(value, stmt.NetOperatingIncome)

	conf := confidence(stats.Reliable, d.RentInMarketBand)

	zap.L().Debug("income: indicated value",
		zap.String("parcel_id", subject.ParcelID),
		zap.Float64("value", value),
		zap.Float64("monthly_rent", rent),
		zap.Float64("noi", stmt.NetOperatingIncome),
	)

	return &model.IndicatedValue{
		Approach:   model.ApproachIncome,
		Value:      value,
		Confidence: conf,
		Narrative: fmt.Sprintf(
			"Estimated rent of %s/month yields NOI of %s. Direct capitalization at %s indicates %s; GRM of %.1f indicates %s. Blended value %s.",
			money.Format(rent), money.Format(stmt.NetOperatingIncome), money.Percent(capRate),
			money.Format(d.DirectCapValue), grm, money.Format(d.GRMValue), money.Format(value),
		),
		Detail: d,
	}, nil
}

func inBand(rent float64, stats *model.RentalMarketStats) bool {
	if stats.RentLow <= 0 && stats.RentHigh <= 0 {
		return false
	}
	return rent >= stats.RentLow && rent <= stats.RentHigh
}

func confidence(reliable, inBand bool) model.Confidence {
	switch {
	case reliable && inBand:
		return model.ConfidenceHigh
	case reliable || inBand:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}
