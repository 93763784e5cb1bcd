// Package comps implements the sales comparison approach: it gathers recent
// comparable sales, ranks them against the subject, adjusts each one for
// physical differences and weights the adjusted prices into an indicated
// value.
package comps

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/appraisal-cli/internal/address"
	"github.com/sells-group/appraisal-cli/internal/model"
	"github.com/sells-group/appraisal-cli/internal/money"
)

const (
	// maxComparables is how many ranked comparables feed the grid.
	maxComparables = 5
	// minComparables is the fewest comparables the approach will value from.
	minComparables = 3
)

// Finder searches assessor records for comparable sales.
type Finder interface {
	FindComparables(ctx context.Context, subject *model.SubjectProperty, search model.CompSearch) ([]model.ComparableSale, error)
}

// SalesSource returns recent sales from a listings feed.
type SalesSource interface {
	RecentSales(ctx context.Context, subject *model.SubjectProperty, search model.CompSearch) ([]model.ComparableSale, error)
}

// Engine is the sales comparison approach.
type Engine struct {
	finder   Finder
	listings SalesSource
	search   model.CompSearch
}

// NewEngine creates a sales comparison engine. listings may be nil, in which
// case only assessor comparables are used.
func NewEngine(finder Finder, listings SalesSource, search model.CompSearch) *Engine {
	return &Engine{finder: finder, listings: listings, search: search}
}

// Analyze values the subject from comparable sales.
func (e *Engine) Analyze(ctx context.Context, subject *model.SubjectProperty) (*model.IndicatedValue, error) {
	if subject == nil {
		return nil, eris.New("comps: nil subject")
	}
	log := zap.L().With(zap.String("parcel_id", subject.ParcelID))

	assessorComps, listingComps, sourceErrs, err := e.gather(ctx, subject)
	if err != nil {
		return nil, err
	}
	for _, se := range sourceErrs {
		log.Warn("comps: comparable source failed", zap.String("error", se))
	}

	merged, dupes := Merge(assessorComps, listingComps)
	detail := &model.SalesDetail{
		CandidatesFound: len(merged),
		Duplicates:      dupes,
		SourceErrors:    sourceErrs,
	}

	if len(merged) < minComparables {
		return fallback(subject, detail)
	}

	ranked := Rank(subject, merged)
	if len(ranked) > maxComparables {
		ranked = ranked[:maxComparables]
	}

	var weightedSum, totalWeight float64
	low, high := math.Inf(1), math.Inf(-1)
	for i := range ranked {
		ac := &ranked[i]
		ac.Grid = Adjust(subject, &ac.Comparable)
		ac.AdjustedPrice = ac.Comparable.SalePrice + ac.Grid.Total
		ac.Weight = Weight(ac.Grid.Total, ac.Comparable.SalePrice)

		weightedSum += ac.AdjustedPrice * ac.Weight
		totalWeight += ac.Weight
		low = math.Min(low, ac.AdjustedPrice)
		high = math.Max(high, ac.AdjustedPrice)
	}
	detail.Comparables = ranked

	value := money.RoundThousand(weightedSum / totalWeight)
	if value > 0 {
		detail.Spread = (high - low) / value
	}
	conf := confidence(len(ranked), detail.Spread)

	log.Debug("comps: indicated value",
		zap.Float64("value", value),
		zap.Int("comparables", len(ranked)),
		zap.Float64("spread", detail.Spread),
	)

	return &model.IndicatedValue{
		Approach:   model.ApproachSales,
		Value:      value,
		Confidence: conf,
		Narrative: fmt.Sprintf(
			"Indicated value of %s from %d comparable sales (%d candidates, %d duplicates removed). Adjusted prices range %s to %s, spread %s.",
			money.Format(value), len(ranked), detail.CandidatesFound, dupes,
			money.Format(low), money.Format(high), money.Percent(detail.Spread),
		),
		Detail: detail,
	}, nil
}

// gather queries both comparable sources concurrently. One failing source is
// tolerated; the engine only errors when no source answered.
func (e *Engine) gather(ctx context.Context, subject *model.SubjectProperty) (assessor, listings []model.ComparableSale, sourceErrs []string, err error) {
	var assessorErr, listingsErr error

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		assessor, assessorErr = e.finder.FindComparables(gCtx, subject, e.search)
		return nil
	})
	if e.listings != nil {
		g.Go(func() error {
			listings, listingsErr = e.listings.RecentSales(gCtx, subject, e.search)
			return nil
		})
	}
	_ = g.Wait()

	if assessorErr != nil {
		sourceErrs = append(sourceErrs, "assessor: "+assessorErr.Error())
	}
	if listingsErr != nil {
		sourceErrs = append(sourceErrs, "listings: "+listingsErr.Error())
	}

	listingsDown := e.listings == nil || listingsErr != nil
	if assessorErr != nil && listingsDown {
		if listingsErr != nil {
			return nil, nil, sourceErrs, eris.Wrapf(assessorErr, "comps: all comparable sources failed (listings: %v)", listingsErr)
		}
		return nil, nil, sourceErrs, eris.Wrap(assessorErr, "comps: find comparables")
	}
	return assessor, listings, sourceErrs, nil
}

// Merge combines comparable lists in priority order, dropping sales without
// a positive price and later sales whose canonical address was already seen.
// It returns the merged list and the number of duplicates removed.
func Merge(lists ...[]model.ComparableSale) ([]model.ComparableSale, int) {
	seen := make(map[string]bool)
	var out []model.ComparableSale
	dupes := 0
	for _, list := range lists {
		for _, c := range list {
			if c.SalePrice <= 0 {
				continue
			}
			key := address.Key(c.Address)
			if key == "" {
				key = "parcel:" + c.ParcelID
			}
			if key != "parcel:" {
				if seen[key] {
					dupes++
					continue
				}
				seen[key] = true
			}
			out = append(out, c)
		}
	}
	return out, dupes
}

// Similarity scores how closely a comparable matches the subject. 100 is an
// identical match; living area, age and bedroom differences subtract.
func Similarity(subject *model.SubjectProperty, c *model.ComparableSale) float64 {
	score := 100.0
	if subject.LivingArea > 0 {
		score -= 30 * math.Abs(subject.LivingArea-c.LivingArea) / subject.LivingArea
	}
	if subject.YearBuilt > 0 && c.YearBuilt > 0 {
		score -= math.Min(math.Abs(float64(subject.YearBuilt-c.YearBuilt)), 20)
	}
	score -= 5 * math.Abs(float64(subject.Bedrooms-c.Bedrooms))
	return score
}

// Rank scores every comparable and sorts them best first. Ties go to the
// more recent sale.
func Rank(subject *model.SubjectProperty, comps []model.ComparableSale) []model.AdjustedComparable {
	out := make([]model.AdjustedComparable, len(comps))
	for i := range comps {
		out[i] = model.AdjustedComparable{
			Comparable: comps[i],
			Similarity: Similarity(subject, &comps[i]),
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].Comparable.SaleDate.After(out[j].Comparable.SaleDate)
	})
	return out
}

// Weight is the reliability weight of an adjusted comparable: heavily
// adjusted sales count for less.
func Weight(totalAdjustment, salePrice float64) float64 {
	if salePrice <= 0 {
		return 10
	}
	penalty := math.Min(math.Abs(totalAdjustment)/salePrice*200, 40)
	return math.Max(10, 100-penalty)
}

func confidence(n int, spread float64) model.Confidence {
	switch {
	case n >= 4 && spread < 0.10:
		return model.ConfidenceHigh
	case n >= 3 && spread < 0.20:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}

func fallback(subject *model.SubjectProperty, detail *model.SalesDetail) (*model.IndicatedValue, error) {
	detail.Fallback = true
	value := subject.MarketValue()
	if value <= 0 {
		return nil, eris.Errorf("comps: %d usable comparable sales and no assessor value to fall back on", detail.CandidatesFound)
	}
	basis := "just value"
	if subject.JustValue <= 0 {
		basis = "assessed value"
	}
	return &model.IndicatedValue{
		Approach:   model.ApproachSales,
		Value:      value,
		Confidence: model.ConfidenceLow,
		Narrative: fmt.Sprintf(
			"Only %d usable comparable sales found (%d required); falling back to the assessor %s of %s.",
			detail.CandidatesFound, minComparables, basis, money.Format(value),
		),
		Detail: detail,
	}, nil
}
