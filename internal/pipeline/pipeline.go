// Package pipeline drives an appraisal run: it fetches the subject property,
// runs the three valuation approaches concurrently with isolated failure
// handling, reconciles whatever succeeded and assembles the result.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/appraisal-cli/internal/model"
	"github.com/sells-group/appraisal-cli/internal/money"
	"github.com/sells-group/appraisal-cli/internal/reconcile"
)

// approachReconciliation is the approach name the final reconciliation is
// stored under.
const approachReconciliation = "reconciliation"

// ErrInvalidRequest marks a Request rejected before any collaborator is
// called.
var ErrInvalidRequest = eris.New("invalid appraisal request")

// Request is one appraisal.
type Request struct {
	ParcelID       string             `json:"parcel_id"`
	PropertyType   model.PropertyType `json:"property_type"`
	JudgmentAmount *float64           `json:"judgment_amount,omitempty"`
	Persist        bool               `json:"persist,omitempty"`
}

// Orchestrator runs appraisals. It holds no per-run state and may serve
// concurrent calls.
type Orchestrator struct {
	properties PropertyProvider
	sales      SubjectValuer
	cost       SubjectValuer
	income     TypedValuer
	reconciler *reconcile.Engine
	sink       PersistenceSink
	repairs    float64
	now        func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSink sets the persistence sink used for Persist requests.
func WithSink(sink PersistenceSink) Option {
	return func(o *Orchestrator) { o.sink = sink }
}

// WithRepairs sets the repair allowance used in max bid sizing.
func WithRepairs(repairs float64) Option {
	return func(o *Orchestrator) {
		if repairs >= 0 {
			o.repairs = repairs
		}
	}
}

// WithClock sets the clock used to time runs.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New creates an Orchestrator.
func New(
	properties PropertyProvider,
	sales SubjectValuer,
	cost SubjectValuer,
	income TypedValuer,
	reconciler *reconcile.Engine,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		properties: properties,
		sales:      sales,
		cost:       cost,
		income:     income,
		reconciler: reconciler,
		repairs:    DefaultRepairs,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Appraise runs the full pipeline for one parcel. Only a failure to load the
// subject property is returned as an error; approach and persistence
// failures are reflected in the result.
func (o *Orchestrator) Appraise(ctx context.Context, req Request) (*model.AppraisalResult, error) {
	start := o.now()
	if req.ParcelID == "" {
		return nil, eris.Wrap(ErrInvalidRequest, "pipeline: parcel id is required")
	}
	if req.PropertyType == "" {
		req.PropertyType = model.PropertyTypeDefault
	}
	if !req.PropertyType.Valid() {
		return nil, eris.Wrapf(ErrInvalidRequest, "pipeline: unknown property type %q", req.PropertyType)
	}

	log := zap.L().With(
		zap.String("parcel_id", req.ParcelID),
		zap.String("property_type", string(req.PropertyType)),
	)
	log.Info("pipeline: starting appraisal")

	m := newMachine(req.ParcelID, req.PropertyType)

	// ===== PROPERTY_DATA (sequential, fatal) =====
	subject, err := o.propertyData(ctx, m, log, req.ParcelID)
	if err != nil {
		return nil, err
	}

	analysisID := o.createAnalysis(ctx, log, req, subject)
	m.state.AnalysisID = analysisID

	// ===== SALES, COST, INCOME (concurrent, isolated) =====
	var sales, cost, income Result[*model.IndicatedValue]

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sales = o.runStage(gCtx, log, model.StageSales, analysisID, func(ctx context.Context) (*model.IndicatedValue, error) {
			return o.sales.Analyze(ctx, subject)
		})
		return nil
	})
	g.Go(func() error {
		cost = o.runStage(gCtx, log, model.StageCost, analysisID, func(ctx context.Context) (*model.IndicatedValue, error) {
			return o.cost.Analyze(ctx, subject)
		})
		return nil
	})
	g.Go(func() error {
		income = o.runStage(gCtx, log, model.StageIncome, analysisID, func(ctx context.Context) (*model.IndicatedValue, error) {
			return o.income.Analyze(ctx, subject, req.PropertyType)
		})
		return nil
	})

	// Stage errors are captured in their Results, never returned to the group.
	_ = g.Wait()

	m.settle(model.StageSales, sales)
	m.settle(model.StageCost, cost)
	m.settle(model.StageIncome, income)

	// ===== RECONCILIATION =====
	if err := m.advance(model.StageReconciliation); err != nil {
		return nil, err
	}
	rec := o.reconciler.Reconcile(reconcile.Inputs{
		Sales:  m.state.Sales,
		Cost:   m.state.Cost,
		Income: m.state.Income,
	}, req.PropertyType)
	m.state.Reconciliation = &rec
	m.complete(model.StageReconciliation)
	o.persist(ctx, log, analysisID, approachReconciliation, rec)

	if err := m.advance(model.StageComplete); err != nil {
		return nil, err
	}

	result := o.assemble(m.state, subject, req, o.now().Sub(start))
	log.Info("pipeline: appraisal complete",
		zap.Float64("reconciled_value", result.ReconciledValue),
		zap.String("confidence", string(result.Confidence)),
		zap.String("recommendation", string(result.Recommendation)),
		zap.Strings("errors", result.Errors),
		zap.Float64("duration_s", result.ProcessingTimeSeconds),
	)
	return result, nil
}

func (o *Orchestrator) propertyData(ctx context.Context, m *machine, log *zap.Logger, parcelID string) (*model.SubjectProperty, error) {
	if err := m.advance(model.StagePropertyData); err != nil {
		return nil, err
	}

	subject, err := o.properties.GetProperty(ctx, parcelID)
	if err == nil && subject == nil {
		err = model.ErrPropertyNotFound
	}
	if err != nil {
		m.fail(model.StagePropertyData, err)
		log.Error("pipeline: property data failed", zap.Error(err))
		return nil, eris.Wrapf(err, "pipeline: get property %s", parcelID)
	}

	m.state.Subject = subject
	m.complete(model.StagePropertyData)
	log.Info("pipeline: stage complete", zap.String("stage", string(model.StagePropertyData)))
	return subject, nil
}

// createAnalysis opens the analysis record for a Persist request. An empty
// id disables persistence for the run.
func (o *Orchestrator) createAnalysis(ctx context.Context, log *zap.Logger, req Request, subject *model.SubjectProperty) string {
	if !req.Persist || o.sink == nil {
		return ""
	}
	id, err := o.sink.CreateAnalysis(ctx, req.ParcelID, subject.Address.String())
	if err != nil {
		log.Warn("pipeline: failed to create analysis, persistence disabled", zap.Error(err))
		return ""
	}
	return id
}

// runStage runs one valuation approach in isolation, logs its outcome and
// persists a successful value.
func (o *Orchestrator) runStage(
	ctx context.Context,
	log *zap.Logger,
	stage model.Stage,
	analysisID string,
	fn func(context.Context) (*model.IndicatedValue, error),
) Result[*model.IndicatedValue] {
	start := time.Now()
	res := Settle(ctx, func(ctx context.Context) (*model.IndicatedValue, error) {
		iv, err := fn(ctx)
		if err == nil && iv == nil {
			err = eris.New("approach returned no value")
		}
		return iv, err
	})
	duration := time.Since(start).Milliseconds()

	if res.Err != nil {
		log.Error("pipeline: stage failed",
			zap.String("stage", string(stage)),
			zap.Int64("duration_ms", duration),
			zap.Error(res.Err),
		)
		return res
	}

	log.Info("pipeline: stage complete",
		zap.String("stage", string(stage)),
		zap.Int64("duration_ms", duration),
		zap.Float64("value", res.Value.Value),
		zap.String("confidence", string(res.Value.Confidence)),
	)
	o.persist(ctx, log, analysisID, string(res.Value.Approach), res.Value)
	return res
}

// persist stores data against the run's analysis. Failures are logged only.
func (o *Orchestrator) persist(ctx context.Context, log *zap.Logger, analysisID, approach string, data any) {
	if analysisID == "" || o.sink == nil {
		return
	}
	if err := o.sink.StoreApproach(ctx, analysisID, approach, data); err != nil {
		log.Warn("pipeline: failed to store approach",
			zap.String("analysis_id", analysisID),
			zap.String("approach", approach),
			zap.Error(err),
		)
	}
}

func (o *Orchestrator) assemble(state *model.PipelineState, subject *model.SubjectProperty, req Request, elapsed time.Duration) *model.AppraisalResult {
	rec := state.Reconciliation
	res := &model.AppraisalResult{
		ParcelID:              state.ParcelID,
		Address:               subject.Address.String(),
		AnalysisID:            state.AnalysisID,
		PropertyType:          state.PropertyType,
		SalesValue:            valueOf(state.Sales),
		CostValue:             valueOf(state.Cost),
		IncomeValue:           valueOf(state.Income),
		Sales:                 state.Sales,
		Cost:                  state.Cost,
		Income:                state.Income,
		ReconciledValue:       rec.ReconciledValue,
		ValueRangeLow:         rec.ValueRangeLow,
		ValueRangeHigh:        rec.ValueRangeHigh,
		SalesWeight:           rec.Weights.Sales,
		CostWeight:            rec.Weights.Cost,
		IncomeWeight:          rec.Weights.Income,
		MostApplicable:        rec.MostApplicable,
		FinalValueOpinion:     rec.ReconciledValue,
		Confidence:            rec.Confidence,
		JudgmentAmount:        req.JudgmentAmount,
		StagesCompleted:       append([]string(nil), state.StagesCompleted...),
		Errors:                append([]string(nil), state.Errors...),
		ProcessingTimeSeconds: elapsed.Seconds(),
	}

	if req.JudgmentAmount != nil && rec.ReconciledValue > 0 {
		bid := MaxBid(rec.ReconciledValue, o.repairs)
		res.MaxBid = &bid
	}
	res.Recommendation = Recommend(rec.ReconciledValue, rec.Confidence, req.JudgmentAmount, res.MaxBid)
	res.Narrative = narrative(res, rec)
	return res
}

func valueOf(iv *model.IndicatedValue) float64 {
	if iv == nil {
		return 0
	}
	return iv.Value
}

func narrative(res *model.AppraisalResult, rec *model.ReconciliationResult) string {
	var b strings.Builder
	b.WriteString(rec.Narrative)
	if res.MaxBid != nil && res.JudgmentAmount != nil {
		fmt.Fprintf(&b, " Max bid %s against judgment %s.", money.Format(*res.MaxBid), money.Format(*res.JudgmentAmount))
	}
	fmt.Fprintf(&b, " Recommendation: %s.", res.Recommendation)
	if len(res.Errors) > 0 {
		fmt.Fprintf(&b, " %d approach(es) failed.", len(res.Errors))
	}
	return b.String()
}
