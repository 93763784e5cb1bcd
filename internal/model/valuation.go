package model

import (
	"encoding/json"

	"github.com/rotisserie/eris"
)

// Approach identifies one of the three valuation methodologies.
type Approach string

const (
	ApproachSales  Approach = "sales_comparison"
	ApproachCost   Approach = "cost"
	ApproachIncome Approach = "income"
)

// Approaches lists the valuation approaches in reconciliation order.
var Approaches = []Approach{ApproachSales, ApproachCost, ApproachIncome}

// Label returns the human-readable approach name.
func (a Approach) Label() string {
	switch a {
	case ApproachSales:
		return "Sales Comparison"
	case ApproachCost:
		return "Cost"
	case ApproachIncome:
		return "Income"
	default:
		return string(a)
	}
}

// Confidence grades the reliability of a value opinion.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// IndicatedValue is the output every valuation engine produces. Detail
// carries the engine-specific breakdown and its concrete type always matches
// Approach: *SalesDetail, *CostDetail or *IncomeDetail.
type IndicatedValue struct {
	Approach   Approach   `json:"approach"`
	Value      float64    `json:"value"`
	Confidence Confidence `json:"confidence"`
	Narrative  string     `json:"narrative"`
	Detail     any        `json:"detail,omitempty"`
}

// SalesDetail returns the sales comparison breakdown, or nil.
func (v *IndicatedValue) SalesDetail() *SalesDetail {
	if v == nil {
		return nil
	}
	d, _ := v.Detail.(*SalesDetail)
	return d
}

// CostDetail returns the cost approach breakdown, or nil.
func (v *IndicatedValue) CostDetail() *CostDetail {
	if v == nil {
		return nil
	}
	d, _ := v.Detail.(*CostDetail)
	return d
}

// IncomeDetail returns the income approach breakdown, or nil.
func (v *IndicatedValue) IncomeDetail() *IncomeDetail {
	if v == nil {
		return nil
	}
	d, _ := v.Detail.(*IncomeDetail)
	return d
}

// UnmarshalJSON decodes Detail into the concrete type selected by Approach.
func (v *IndicatedValue) UnmarshalJSON(data []byte) error {
	type alias IndicatedValue
	var raw struct {
		alias
		Detail json.RawMessage `json:"detail,omitempty"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return eris.Wrap(err, "model: unmarshal indicated value")
	}
	*v = IndicatedValue(raw.alias)
	v.Detail = nil
	if len(raw.Detail) == 0 || string(raw.Detail) == "null" {
		return nil
	}

	var detail any
	switch v.Approach {
	case ApproachSales:
		detail = &SalesDetail{}
	case ApproachCost:
		detail = &CostDetail{}
	case ApproachIncome:
		detail = &IncomeDetail{}
	default:
		return eris.Errorf("model: unknown approach %q", v.Approach)
	}
	if err := json.Unmarshal(raw.Detail, detail); err != nil {
		return eris.Wrapf(err, "model: unmarshal %s detail", v.Approach)
	}
	v.Detail = detail
	return nil
}

// AdjustmentCategory names a line of an adjustment grid.
type AdjustmentCategory string

const (
	AdjustLivingArea AdjustmentCategory = "living_area"
	AdjustLotSize    AdjustmentCategory = "lot_size"
	AdjustAge        AdjustmentCategory = "age"
	AdjustBedrooms   AdjustmentCategory = "bedrooms"
	AdjustBathrooms  AdjustmentCategory = "bathrooms"
	AdjustGarage     AdjustmentCategory = "garage"
	AdjustPool       AdjustmentCategory = "pool"
	AdjustWaterfront AdjustmentCategory = "waterfront"
)

// AdjustmentGrid holds the signed dollar adjustments reconciling one
// comparable to the subject. Total always equals the sum of Adjustments.
type AdjustmentGrid struct {
	Adjustments map[AdjustmentCategory]float64 `json:"adjustments"`
	Total       float64                        `json:"total"`
}

// NewAdjustmentGrid builds a grid whose total is the sum of its lines.
func NewAdjustmentGrid(lines map[AdjustmentCategory]float64) AdjustmentGrid {
	adj := make(map[AdjustmentCategory]float64, len(lines))
	var total float64
	for k, v := range lines {
		adj[k] = v
		total += v
	}
	return AdjustmentGrid{Adjustments: adj, Total: total}
}

// AdjustedComparable is a comparable after grid adjustment and weighting.
type AdjustedComparable struct {
	Comparable    ComparableSale `json:"comparable"`
	Similarity    float64        `json:"similarity"`
	Grid          AdjustmentGrid `json:"grid"`
	AdjustedPrice float64        `json:"adjusted_price"`
	Weight        float64        `json:"weight"`
}

// SalesDetail is the sales comparison approach breakdown.
type SalesDetail struct {
	Comparables     []AdjustedComparable `json:"comparables"`
	CandidatesFound int                  `json:"candidates_found"`
	Duplicates      int                  `json:"duplicates"`
	Spread          float64              `json:"spread"`
	Fallback        bool                 `json:"fallback"`
	SourceErrors    []string             `json:"source_errors,omitempty"`
}

// CostDetail is the cost approach breakdown.
type CostDetail struct {
	LandValue          float64 `json:"land_value"`
	LandMethod         string  `json:"land_method"` // "assessor" or "base_rate"
	QualityTier        string  `json:"quality_tier"`
	BaseCostPerSqft    float64 `json:"base_cost_per_sqft"`
	ConstructionFactor float64 `json:"construction_factor"`
	DirectCost         float64 `json:"direct_cost"`
	FeatureAdders      float64 `json:"feature_adders"`
	SoftCosts          float64 `json:"soft_costs"`
	EntrepreneurProfit float64 `json:"entrepreneurial_profit"`
	ReplacementCostNew float64 `json:"replacement_cost_new"`
	EffectiveAge       int     `json:"effective_age"`
	EconomicLife       int     `json:"economic_life"`
	PhysicalDepr       float64 `json:"physical_depreciation"`
	FunctionalDepr     float64 `json:"functional_depreciation"`
	ExternalDepr       float64 `json:"external_depreciation"`
	TotalDepreciation  float64 `json:"total_depreciation"`
	DepreciatedCost    float64 `json:"depreciated_cost"`
	SiteImprovements   float64 `json:"site_improvements"`
}

// IncomeStatement is the pro-forma annual operating statement.
type IncomeStatement struct {
	MonthlyRent        float64 `json:"monthly_rent"`
	PotentialGross     float64 `json:"potential_gross_income"`
	OtherIncome        float64 `json:"other_income"`
	VacancyLoss        float64 `json:"vacancy_loss"`
	EffectiveGross     float64 `json:"effective_gross_income"`
	PropertyTax        float64 `json:"property_tax"`
	Insurance          float64 `json:"insurance"`
	Management         float64 `json:"management"`
	Maintenance        float64 `json:"maintenance"`
	Reserves           float64 `json:"reserves"`
	HOA                float64 `json:"hoa"`
	TotalExpenses      float64 `json:"total_expenses"`
	NetOperatingIncome float64 `json:"net_operating_income"`
}

// InvestmentMetrics are advisory financing figures; they never feed the
// indicated value.
type InvestmentMetrics struct {
	LoanAmount          float64 `json:"loan_amount"`
	AnnualDebtService   float64 `json:"annual_debt_service"`
	CashOnCash          float64 `json:"cash_on_cash"`
	DebtServiceCoverage float64 `json:"debt_service_coverage"`
}

// IncomeDetail is the income approach breakdown.
type IncomeDetail struct {
	Market           RentalMarketStats `json:"market"`
	Statement        IncomeStatement   `json:"statement"`
	CapRate          float64           `json:"cap_rate"`
	GRM              float64           `json:"grm"`
	DirectCapValue   float64           `json:"direct_cap_value"`
	GRMValue         float64           `json:"grm_value"`
	RentInMarketBand bool              `json:"rent_in_market_band"`
	Investment       InvestmentMetrics `json:"investment"`
}

// RentalMarketStats summarises rents for comparable units in a market.
type RentalMarketStats struct {
	Zip         string  `json:"zip" yaml:"zip"`
	Bedrooms    int     `json:"bedrooms" yaml:"bedrooms"`
	MedianRent  float64 `json:"median_rent" yaml:"median_rent"`
	RentLow     float64 `json:"rent_low" yaml:"rent_low"`
	RentHigh    float64 `json:"rent_high" yaml:"rent_high"`
	TypicalSqft float64 `json:"typical_sqft" yaml:"typical_sqft"`
	VacancyRate float64 `json:"vacancy_rate" yaml:"vacancy_rate"`
	SampleSize  int     `json:"sample_size" yaml:"sample_size"`
	Reliable    bool    `json:"reliable" yaml:"reliable"`
}
