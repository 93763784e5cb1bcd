// Package store persists appraisal analyses and the per-approach payloads
// recorded against them.
package store

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/sells-group/appraisal-cli/internal/model"
)

// ErrNotFound is returned when an analysis id does not exist.
var ErrNotFound = eris.New("analysis not found")

// AnalysisFilter specifies criteria for listing analyses.
type AnalysisFilter struct {
	ParcelID string `json:"parcel_id,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for appraisal runs.
type Store interface {
	// Analyses
	CreateAnalysis(ctx context.Context, parcelID, address string) (string, error)
	StoreApproach(ctx context.Context, analysisID, approach string, data any) error
	GetAnalysis(ctx context.Context, id string) (*model.Analysis, error)
	ListAnalyses(ctx context.Context, filter AnalysisFilter) ([]model.Analysis, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

const defaultListLimit = 100

func (f AnalysisFilter) limit() int {
	if f.Limit <= 0 {
		return defaultListLimit
	}
	return f.Limit
}

func marshalApproach(approach string, data any) ([]byte, error) {
	if approach == "" {
		return nil, eris.New("store: approach name is required")
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, eris.Wrapf(err, "store: marshal %s", approach)
	}
	return b, nil
}
