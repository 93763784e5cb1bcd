package pipeline

import (
	"context"

	"github.com/sells-group/appraisal-cli/internal/model"
)

// PropertyProvider looks up subject properties and their comparable sales
// in county assessor records. GetProperty returns model.ErrPropertyNotFound
// for unknown parcels.
type PropertyProvider interface {
	GetProperty(ctx context.Context, parcelID string) (*model.SubjectProperty, error)
	FindComparables(ctx context.Context, subject *model.SubjectProperty, search model.CompSearch) ([]model.ComparableSale, error)
}

// ComparableSource supplies recent sales from a listings feed.
type ComparableSource interface {
	RecentSales(ctx context.Context, subject *model.SubjectProperty, search model.CompSearch) ([]model.ComparableSale, error)
}

// MarketDataProvider supplies rental market statistics.
type MarketDataProvider interface {
	GetRentalMarket(ctx context.Context, zip string, bedrooms int, pt model.PropertyType) (*model.RentalMarketStats, error)
}

// PersistenceSink records analyses. Every call is best-effort from the
// pipeline's point of view.
type PersistenceSink interface {
	CreateAnalysis(ctx context.Context, parcelID, address string) (string, error)
	StoreApproach(ctx context.Context, analysisID, approach string, data any) error
}

// SubjectValuer is a valuation approach that depends only on the subject.
type SubjectValuer interface {
	Analyze(ctx context.Context, subject *model.SubjectProperty) (*model.IndicatedValue, error)
}

// TypedValuer is a valuation approach that also depends on property type.
type TypedValuer interface {
	Analyze(ctx context.Context, subject *model.SubjectProperty, pt model.PropertyType) (*model.IndicatedValue, error)
}
