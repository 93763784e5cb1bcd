package main

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/appraisal-cli/internal/comps"
	"github.com/sells-group/appraisal-cli/internal/cost"
	"github.com/sells-group/appraisal-cli/internal/fixture"
	"github.com/sells-group/appraisal-cli/internal/income"
	"github.com/sells-group/appraisal-cli/internal/model"
	"github.com/sells-group/appraisal-cli/internal/pipeline"
	"github.com/sells-group/appraisal-cli/internal/reconcile"
	"github.com/sells-group/appraisal-cli/internal/resilience"
	"github.com/sells-group/appraisal-cli/internal/store"
	"github.com/sells-group/appraisal-cli/pkg/assessor"
	"github.com/sells-group/appraisal-cli/pkg/listings"
	"github.com/sells-group/appraisal-cli/pkg/market"
)

// appEnv holds the store, data sources and orchestrator needed by the
// appraise and serve commands.
type appEnv struct {
	Store        store.Store // nil unless persistence is enabled
	Orchestrator *pipeline.Orchestrator
	Policy       reconcile.WeightPolicy
	redis        *redis.Client
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.redis != nil {
		_ = e.redis.Close()
	}
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// sources are the external collaborators, either all HTTP or all fixture.
type sources struct {
	properties pipeline.PropertyProvider
	listings   comps.SalesSource // nil when no listings feed is configured
	market     income.MarketData
	redis      *redis.Client
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "appraisal.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// openStore opens and migrates the configured store.
func openStore(ctx context.Context) (store.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

func initSources() (*sources, error) {
	if cfg.Fixture.Path != "" {
		fx, err := fixture.Load(cfg.Fixture.Path)
		if err != nil {
			return nil, err
		}
		zap.L().Info("using fixture data sources", zap.String("path", cfg.Fixture.Path))
		return &sources{properties: fx, listings: fx, market: fx}, nil
	}

	src := &sources{}
	src.properties = assessor.NewClient(cfg.Assessor.BaseURL, cfg.Assessor.Key,
		assessor.WithTimeout(seconds(cfg.Assessor.TimeoutSecs)),
		assessor.WithRateLimit(cfg.Assessor.RatePerSec),
		assessor.WithPolicy(resilience.NewPolicy("assessor", cfg.Retry, cfg.Circuit)),
	)

	if cfg.Listings.BaseURL != "" {
		src.listings = listings.NewClient(cfg.Listings.BaseURL, cfg.Listings.Key,
			listings.WithTimeout(seconds(cfg.Listings.TimeoutSecs)),
			listings.WithRetries(cfg.Listings.MaxRetries, 0, 0),
		)
	}

	var mkt income.MarketData = market.NewClient(cfg.Market.BaseURL, cfg.Market.Key,
		market.WithTimeout(seconds(cfg.Market.TimeoutSecs)),
		market.WithRateLimit(cfg.Market.RatePerSec),
		market.WithPolicy(resilience.NewPolicy("market", cfg.Retry, cfg.Circuit)),
	)
	if cfg.Redis.Addr != "" {
		src.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		mkt = market.NewCachedClient(mkt, src.redis, time.Duration(cfg.Market.CacheTTLHours)*time.Hour)
	}
	src.market = mkt

	return src, nil
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func costRates() cost.Rates {
	r := cost.DefaultRates()
	for county, rate := range cfg.Valuation.LandRates {
		r.Land[strings.ToLower(county)] = rate
	}
	if cfg.Valuation.DefaultLandRate > 0 {
		r.DefaultLand = cfg.Valuation.DefaultLandRate
	}
	for tier, rate := range cfg.Valuation.QualityRates {
		r.Quality[strings.ToLower(tier)] = rate
	}
	if cfg.Valuation.SiteImprovements > 0 {
		r.SiteImprovements = cfg.Valuation.SiteImprovements
	}
	return r
}

func incomeRates() income.Rates {
	r := income.DefaultRates()
	for pt, rate := range cfg.Valuation.CapRates {
		r.CapRates[pt] = rate
	}
	for pt, grm := range cfg.Valuation.GRMs {
		r.GRMs[pt] = grm
	}
	if cfg.Valuation.PropertyTaxRate > 0 {
		r.PropertyTaxRate = cfg.Valuation.PropertyTaxRate
	}
	return r
}

func compSearch() model.CompSearch {
	return model.CompSearch{
		RadiusMiles:  cfg.Pipeline.CompRadiusMiles,
		MaxAgeMonths: cfg.Pipeline.CompMaxAgeMonths,
		Limit:        cfg.Pipeline.CompLimit,
	}
}

// buildOrchestrator wires the engines over src. sink may be nil.
func buildOrchestrator(src *sources, policy reconcile.WeightPolicy, sink pipeline.PersistenceSink) *pipeline.Orchestrator {
	opts := []pipeline.Option{pipeline.WithRepairs(cfg.Pipeline.DefaultRepairs)}
	if sink != nil {
		opts = append(opts, pipeline.WithSink(sink))
	}
	return pipeline.New(
		src.properties,
		comps.NewEngine(src.properties, src.listings, compSearch()),
		cost.NewEngine(costRates()),
		income.NewEngine(src.market, incomeRates()),
		reconcile.NewEngine(policy),
		opts...,
	)
}

// initEnv validates config for mode and builds the environment. The store
// is opened only when withStore is set. Callers should defer env.Close().
func initEnv(ctx context.Context, mode string, withStore bool) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	policy, err := reconcile.NewWeightPolicy(cfg.Valuation.Weights)
	if err != nil {
		return nil, err
	}

	src, err := initSources()
	if err != nil {
		return nil, err
	}
	env := &appEnv{Policy: policy, redis: src.redis}

	var sink pipeline.PersistenceSink
	if withStore {
		st, err := openStore(ctx)
		if err != nil {
			env.Close()
			return nil, err
		}
		env.Store = st
		sink = st
	}

	env.Orchestrator = buildOrchestrator(src, policy, sink)
	return env, nil
}
