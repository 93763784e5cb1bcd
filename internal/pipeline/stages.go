package pipeline

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/appraisal-cli/internal/model"
)

// stageOrder fixes the rendering order of the state machine.
var stageOrder = []model.Stage{
	model.StageInit,
	model.StagePropertyData,
	model.StageSales,
	model.StageCost,
	model.StageIncome,
	model.StageReconciliation,
	model.StageComplete,
	model.StageError,
}

// transitions is the appraisal state machine. Stages that share a source
// other than ERROR run concurrently and join at their common successor.
var transitions = map[model.Stage][]model.Stage{
	model.StageInit:           {model.StagePropertyData},
	model.StagePropertyData:   {model.StageSales, model.StageCost, model.StageIncome, model.StageError},
	model.StageSales:          {model.StageReconciliation},
	model.StageCost:           {model.StageReconciliation},
	model.StageIncome:         {model.StageReconciliation},
	model.StageReconciliation: {model.StageComplete},
}

// Next returns the stages reachable from s in one step.
func Next(s model.Stage) []model.Stage {
	return append([]model.Stage(nil), transitions[s]...)
}

// Allowed reports whether the machine may move directly from one stage to
// another.
func Allowed(from, to model.Stage) bool {
	for _, n := range transitions[from] {
		if n == to {
			return true
		}
	}
	return false
}

// Concurrent returns the stages fanned out from s, i.e. its successors
// other than ERROR when there is more than one.
func Concurrent(s model.Stage) []model.Stage {
	var out []model.Stage
	for _, n := range transitions[s] {
		if n != model.StageError {
			out = append(out, n)
		}
	}
	if len(out) < 2 {
		return nil
	}
	return out
}

// joins reports whether every concurrent branch out of from converges on to.
func joins(from, to model.Stage) bool {
	branches := Concurrent(from)
	if len(branches) == 0 {
		return false
	}
	for _, b := range branches {
		if !Allowed(b, to) {
			return false
		}
	}
	return true
}

// Terminal reports whether s ends a run.
func Terminal(s model.Stage) bool {
	return s == model.StageComplete || s == model.StageError
}

// Graph renders the state machine as a Mermaid state diagram.
func Graph() string {
	var b strings.Builder
	b.WriteString("stateDiagram-v2\n")
	fmt.Fprintf(&b, "    [*] --> %s\n", model.StageInit)
	for _, from := range stageOrder {
		if branches := Concurrent(from); len(branches) > 0 {
			fmt.Fprintf(&b, "    state fork_%s <<fork>>\n", from)
			fmt.Fprintf(&b, "    %s --> fork_%s\n", from, from)
			for _, n := range branches {
				fmt.Fprintf(&b, "    fork_%s --> %s\n", from, n)
			}
			for _, n := range transitions[from] {
				if n == model.StageError {
					fmt.Fprintf(&b, "    %s --> %s\n", from, n)
				}
			}
			continue
		}
		for _, to := range transitions[from] {
			fmt.Fprintf(&b, "    %s --> %s\n", from, to)
		}
	}
	for _, s := range stageOrder {
		if Terminal(s) {
			fmt.Fprintf(&b, "    %s --> [*]\n", s)
		}
	}
	return b.String()
}

// machine guards a PipelineState. Stage changes must follow the transition
// table; completed stages and errors are only ever appended.
type machine struct {
	mu    sync.Mutex
	state *model.PipelineState
}

func newMachine(parcelID string, pt model.PropertyType) *machine {
	return &machine{state: &model.PipelineState{
		ParcelID:     parcelID,
		PropertyType: pt,
		Stage:        model.StageInit,
	}}
}

// advance moves to the next stage. Moving from a fan-out source to its join
// stage is allowed once the concurrent branches have settled.
func (m *machine) advance(to model.Stage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	from := m.state.Stage
	if !Allowed(from, to) && !joins(from, to) {
		return eris.Errorf("pipeline: invalid transition %s -> %s", from, to)
	}
	m.state.Stage = to
	return nil
}

// fail moves the run to ERROR and records the cause.
func (m *machine) fail(stage model.Stage, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Errors = append(m.state.Errors, fmt.Sprintf("%s: %v", stage, err))
	m.state.Stage = model.StageError
}

func (m *machine) complete(stage model.Stage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.StagesCompleted = append(m.state.StagesCompleted, string(stage))
}

func (m *machine) recordError(stage model.Stage, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Errors = append(m.state.Errors, fmt.Sprintf("%s: %v", stage, err))
}

// settle records the outcome of a valuation stage. Each slot is written at
// most once.
func (m *machine) settle(stage model.Stage, res Result[*model.IndicatedValue]) {
	if res.Err != nil {
		m.recordError(stage, res.Err)
		return
	}
	m.mu.Lock()
	slot := m.slot(stage)
	if slot != nil && *slot == nil {
		*slot = res.Value
	}
	m.mu.Unlock()
	m.complete(stage)
}

func (m *machine) slot(stage model.Stage) **model.IndicatedValue {
	switch stage {
	case model.StageSales:
		return &m.state.Sales
	case model.StageCost:
		return &m.state.Cost
	case model.StageIncome:
		return &m.state.Income
	default:
		return nil
	}
}
