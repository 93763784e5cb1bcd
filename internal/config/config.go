package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/appraisal-cli/internal/model"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Fixture   FixtureConfig   `yaml:"fixture" mapstructure:"fixture"`
	Assessor  AssessorConfig  `yaml:"assessor" mapstructure:"assessor"`
	Listings  ListingsConfig  `yaml:"listings" mapstructure:"listings"`
	Market    MarketConfig    `yaml:"market" mapstructure:"market"`
	Redis     RedisConfig     `yaml:"redis" mapstructure:"redis"`
	Valuation ValuationConfig `yaml:"valuation" mapstructure:"valuation"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Retry     RetryConfig     `yaml:"retry" mapstructure:"retry"`
	Circuit   CircuitConfig   `yaml:"circuit" mapstructure:"circuit"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the analysis storage backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// FixtureConfig points at a YAML file that replaces every external data
// source. Empty means the HTTP collaborators are used.
type FixtureConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// AssessorConfig holds county assessor API settings.
type AssessorConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	Key         string  `yaml:"key" mapstructure:"key"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// ListingsConfig holds listings/MLS API settings.
type ListingsConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	Key         string `yaml:"key" mapstructure:"key"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`
}

// MarketConfig holds rental market statistics API settings.
type MarketConfig struct {
	BaseURL       string  `yaml:"base_url" mapstructure:"base_url"`
	Key           string  `yaml:"key" mapstructure:"key"`
	TimeoutSecs   int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec    float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	CacheTTLHours int     `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
}

// RedisConfig configures the market data cache. Empty Addr disables it.
type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
}

// ValuationConfig holds the tables the three engines and reconciliation
// read. Map keys are property types, counties or quality tiers.
type ValuationConfig struct {
	Weights          map[string]model.Weights `yaml:"weights" mapstructure:"weights"`
	CapRates         map[string]float64       `yaml:"cap_rates" mapstructure:"cap_rates"`
	GRMs             map[string]float64       `yaml:"grms" mapstructure:"grms"`
	LandRates        map[string]float64       `yaml:"land_rates" mapstructure:"land_rates"`
	DefaultLandRate  float64                  `yaml:"default_land_rate" mapstructure:"default_land_rate"`
	QualityRates     map[string]float64       `yaml:"quality_rates" mapstructure:"quality_rates"`
	SiteImprovements float64                  `yaml:"site_improvements" mapstructure:"site_improvements"`
	PropertyTaxRate  float64                  `yaml:"property_tax_rate" mapstructure:"property_tax_rate"`
}

// PipelineConfig configures comparable search and bid sizing.
type PipelineConfig struct {
	CompRadiusMiles  float64 `yaml:"comp_radius_miles" mapstructure:"comp_radius_miles"`
	CompMaxAgeMonths int     `yaml:"comp_max_age_months" mapstructure:"comp_max_age_months"`
	CompLimit        int     `yaml:"comp_limit" mapstructure:"comp_limit"`
	DefaultRepairs   float64 `yaml:"default_repairs" mapstructure:"default_repairs"`
}

// RetryConfig configures retries inside the HTTP collaborators.
type RetryConfig struct {
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	Multiplier       float64 `yaml:"multiplier" mapstructure:"multiplier"`
	JitterFraction   float64 `yaml:"jitter_fraction" mapstructure:"jitter_fraction"`
}

// CircuitConfig configures the per-collaborator circuit breakers.
type CircuitConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port              int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins    []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	RequestsPerMinute int      `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// defaultWeights is the stock reconciliation policy. Each row sums to 100.
var defaultWeights = map[model.PropertyType]model.Weights{
	model.PropertyTypeSingleFamilyOwner:  {Sales: 60, Cost: 25, Income: 15},
	model.PropertyTypeSingleFamilyRental: {Sales: 40, Cost: 20, Income: 40},
	model.PropertyTypeMultiFamily:        {Sales: 25, Cost: 15, Income: 60},
	model.PropertyTypeNewConstruction:    {Sales: 40, Cost: 50, Income: 10},
	model.PropertyTypeSpecialPurpose:     {Sales: 20, Cost: 60, Income: 20},
	model.PropertyTypeDefault:            {Sales: 50, Cost: 25, Income: 25},
}

var defaultCapRates = map[model.PropertyType]float64{
	model.PropertyTypeSingleFamilyOwner:  0.065,
	model.PropertyTypeSingleFamilyRental: 0.07,
	model.PropertyTypeMultiFamily:        0.075,
	model.PropertyTypeNewConstruction:    0.06,
	model.PropertyTypeSpecialPurpose:     0.09,
	model.PropertyTypeDefault:            0.07,
}

var defaultGRMs = map[model.PropertyType]float64{
	model.PropertyTypeSingleFamilyOwner:  12,
	model.PropertyTypeSingleFamilyRental: 11,
	model.PropertyTypeMultiFamily:        10,
	model.PropertyTypeNewConstruction:    13,
	model.PropertyTypeSpecialPurpose:     8,
	model.PropertyTypeDefault:            11,
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("APPRAISAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "appraisal.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.requests_per_minute", 60)

	v.SetDefault("assessor.timeout_secs", 15)
	v.SetDefault("assessor.rate_per_sec", 5)
	v.SetDefault("listings.timeout_secs", 10)
	v.SetDefault("listings.max_retries", 3)
	v.SetDefault("market.timeout_secs", 10)
	v.SetDefault("market.rate_per_sec", 2)
	v.SetDefault("market.cache_ttl_hours", 24)

	v.SetDefault("pipeline.comp_radius_miles", 1.0)
	v.SetDefault("pipeline.comp_max_age_months", 12)
	v.SetDefault("pipeline.comp_limit", 20)
	v.SetDefault("pipeline.default_repairs", 25000)

	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 500)
	v.SetDefault("retry.max_backoff_ms", 10000)
	v.SetDefault("retry.multiplier", 2.0)
	v.SetDefault("retry.jitter_fraction", 0.25)
	v.SetDefault("circuit.failure_threshold", 5)
	v.SetDefault("circuit.reset_timeout_secs", 30)

	for pt, w := range defaultWeights {
		v.SetDefault(fmt.Sprintf("valuation.weights.%s.sales", pt), w.Sales)
		v.SetDefault(fmt.Sprintf("valuation.weights.%s.cost", pt), w.Cost)
		v.SetDefault(fmt.Sprintf("valuation.weights.%s.income", pt), w.Income)
	}
	for pt, r := range defaultCapRates {
		v.SetDefault(fmt.Sprintf("valuation.cap_rates.%s", pt), r)
	}
	for pt, g := range defaultGRMs {
		v.SetDefault(fmt.Sprintf("valuation.grms.%s", pt), g)
	}
	v.SetDefault("valuation.default_land_rate", 12.0)
	v.SetDefault("valuation.quality_rates.luxury", 285.0)
	v.SetDefault("valuation.quality_rates.excellent", 215.0)
	v.SetDefault("valuation.quality_rates.good", 165.0)
	v.SetDefault("valuation.quality_rates.standard", 130.0)
	v.SetDefault("valuation.quality_rates.economy", 105.0)
	v.SetDefault("valuation.site_improvements", 10000.0)
	v.SetDefault("valuation.property_tax_rate", 0.018)
}

// Validate checks the settings a command needs. mode is "appraise" for
// commands that run the pipeline, "serve" for the HTTP API and "store" for
// storage-only commands.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Sprintf("store.driver must be sqlite or postgres, got %q", c.Store.Driver))
	}
	if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required for postgres")
	}

	needsSources := mode == "appraise" || mode == "serve"
	if needsSources && c.Fixture.Path == "" {
		if c.Assessor.BaseURL == "" {
			errs = append(errs, "assessor.base_url is required (APPRAISAL_ASSESSOR_BASE_URL) unless fixture.path is set")
		}
		if c.Market.BaseURL == "" {
			errs = append(errs, "market.base_url is required (APPRAISAL_MARKET_BASE_URL) unless fixture.path is set")
		}
	}

	if mode == "serve" && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Sprintf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}

	if _, ok := c.Valuation.Weights[string(model.PropertyTypeDefault)]; needsSources && !ok {
		errs = append(errs, "valuation.weights.default is required")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: invalid: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
