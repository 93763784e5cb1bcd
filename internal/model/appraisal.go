package model

import (
	"encoding/json"
	"time"
)

// Stage is a step of the appraisal state machine.
type Stage string

const (
	StageInit           Stage = "INIT"
	StagePropertyData   Stage = "PROPERTY_DATA"
	StageSales          Stage = "SALES"
	StageCost           Stage = "COST"
	StageIncome         Stage = "INCOME"
	StageReconciliation Stage = "RECONCILIATION"
	StageComplete       Stage = "COMPLETE"
	StageError          Stage = "ERROR"
)

// Weights are the integer reconciliation weights for one property type.
type Weights struct {
	Sales  int `json:"sales" yaml:"sales" mapstructure:"sales"`
	Cost   int `json:"cost" yaml:"cost" mapstructure:"cost"`
	Income int `json:"income" yaml:"income" mapstructure:"income"`
}

// Sum returns the total of the three weights.
func (w Weights) Sum() int {
	return w.Sales + w.Cost + w.Income
}

// For returns the weight configured for an approach.
func (w Weights) For(a Approach) int {
	switch a {
	case ApproachSales:
		return w.Sales
	case ApproachCost:
		return w.Cost
	case ApproachIncome:
		return w.Income
	default:
		return 0
	}
}

// ReconciliationResult is the blended value opinion.
type ReconciliationResult struct {
	ReconciledValue float64    `json:"reconciled_value"`
	ValueRangeLow   float64    `json:"value_range_low"`
	ValueRangeHigh  float64    `json:"value_range_high"`
	Weights         Weights    `json:"weights"`
	MostApplicable  Approach   `json:"most_applicable"`
	ApproachesUsed  int        `json:"approaches_used"`
	Spread          float64    `json:"spread"`
	Confidence      Confidence `json:"confidence"`
	Narrative       string     `json:"narrative"`
}

// PipelineState is the mutable record of a single appraisal run. Completed
// stages and errors are append-only; each IndicatedValue slot is written at
// most once.
type PipelineState struct {
	ParcelID        string                `json:"parcel_id"`
	PropertyType    PropertyType          `json:"property_type"`
	Stage           Stage                 `json:"stage"`
	StagesCompleted []string              `json:"stages_completed"`
	Errors          []string              `json:"errors,omitempty"`
	Subject         *SubjectProperty      `json:"subject,omitempty"`
	AnalysisID      string                `json:"analysis_id,omitempty"`
	Sales           *IndicatedValue       `json:"sales,omitempty"`
	Cost            *IndicatedValue       `json:"cost,omitempty"`
	Income          *IndicatedValue       `json:"income,omitempty"`
	Reconciliation  *ReconciliationResult `json:"reconciliation,omitempty"`
}

// Recommendation is the bid guidance attached to an appraisal.
type Recommendation string

const (
	RecommendBid    Recommendation = "BID"
	RecommendReview Recommendation = "REVIEW"
	RecommendSkip   Recommendation = "SKIP"
)

// AppraisalResult is the terminal output of an appraisal run.
type AppraisalResult struct {
	ParcelID              string          `json:"parcel_id"`
	Address               string          `json:"address"`
	AnalysisID            string          `json:"analysis_id,omitempty"`
	PropertyType          PropertyType    `json:"property_type"`
	SalesValue            float64         `json:"sales_value"`
	CostValue             float64         `json:"cost_value"`
	IncomeValue           float64         `json:"income_value"`
	Sales                 *IndicatedValue `json:"sales,omitempty"`
	Cost                  *IndicatedValue `json:"cost,omitempty"`
	Income                *IndicatedValue `json:"income,omitempty"`
	ReconciledValue       float64         `json:"reconciled_value"`
	ValueRangeLow         float64         `json:"value_range_low"`
	ValueRangeHigh        float64         `json:"value_range_high"`
	SalesWeight           int             `json:"sales_weight"`
	CostWeight            int             `json:"cost_weight"`
	IncomeWeight          int             `json:"income_weight"`
	MostApplicable        Approach        `json:"most_applicable"`
	FinalValueOpinion     float64         `json:"final_value_opinion"`
	Recommendation        Recommendation  `json:"recommendation"`
	JudgmentAmount        *float64        `json:"judgment_amount,omitempty"`
	MaxBid                *float64        `json:"max_bid,omitempty"`
	Confidence            Confidence      `json:"confidence"`
	StagesCompleted       []string        `json:"stages_completed"`
	Errors                []string        `json:"errors,omitempty"`
	ProcessingTimeSeconds float64         `json:"processing_time_seconds"`
	Narrative             string          `json:"narrative"`
}

// Analysis is a persisted appraisal record and the approach payloads stored
// against it.
type Analysis struct {
	ID         string                     `json:"id"`
	ParcelID   string                     `json:"parcel_id"`
	Address    string                     `json:"address"`
	Approaches map[string]json.RawMessage `json:"approaches,omitempty"`
	CreatedAt  time.Time                  `json:"created_at"`
	UpdatedAt  time.Time                  `json:"updated_at"`
}
