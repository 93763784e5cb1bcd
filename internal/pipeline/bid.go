package pipeline

import (
	"math"

	"github.com/sells-group/appraisal-cli/internal/model"
	"github.com/sells-group/appraisal-cli/internal/money"
)

// Bid sizing constants.
const (
	arvBidRatio      = 0.70
	holdingCosts     = 10000.0
	sellingCostRatio = 0.15
	sellingCostCap   = 25000.0

	// DefaultRepairs is the repair allowance used when none is configured.
	DefaultRepairs = 25000.0

	reviewBidRatio = 0.80
)

// MaxBid is the highest auction bid that still leaves margin after repairs,
// holding and selling costs on an after-repair value. It is never negative.
func MaxBid(arv, repairs float64) float64 {
	selling := math.Min(sellingCostCap, arv*sellingCostRatio)
	return math.Max(0, money.Round(arv*arvBidRatio-repairs-holdingCosts-selling, 1))
}

// Recommend turns a value opinion into bid guidance. With a judgment amount
// the max bid must cover it for BID and come within 80% for REVIEW; a LOW
// confidence opinion never earns more than REVIEW. Without a judgment the
// confidence alone decides.
func Recommend(value float64, conf model.Confidence, judgment, maxBid *float64) model.Recommendation {
	if value <= 0 {
		return model.RecommendSkip
	}
	if judgment == nil || maxBid == nil {
		if conf == model.ConfidenceHigh {
			return model.RecommendBid
		}
		return model.RecommendReview
	}

	var rec model.Recommendation
	switch {
	case *maxBid >= *judgment:
		rec = model.RecommendBid
	case *maxBid >= *judgment*reviewBidRatio:
		rec = model.RecommendReview
	default:
		rec = model.RecommendSkip
	}
	if rec == model.RecommendBid && conf == model.ConfidenceLow {
		rec = model.RecommendReview
	}
	return rec
}
