package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/appraisal-cli/internal/model"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "appraisal.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 60, cfg.Server.RequestsPerMinute)
	assert.InDelta(t, 1.0, cfg.Pipeline.CompRadiusMiles, 0.001)
	assert.Equal(t, 12, cfg.Pipeline.CompMaxAgeMonths)
	assert.Equal(t, 20, cfg.Pipeline.CompLimit)
	assert.InDelta(t, 25000, cfg.Pipeline.DefaultRepairs, 0.001)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 24, cfg.Market.CacheTTLHours)
	assert.InDelta(t, 0.018, cfg.Valuation.PropertyTaxRate, 0.0001)
	assert.InDelta(t, 10000, cfg.Valuation.SiteImprovements, 0.001)
	assert.InDelta(t, 285, cfg.Valuation.QualityRates["luxury"], 0.001)
	assert.InDelta(t, 0.075, cfg.Valuation.CapRates["multi_family"], 0.0001)
	assert.InDelta(t, 11, cfg.Valuation.GRMs["default"], 0.001)

	assert.Equal(t, model.Weights{Sales: 50, Cost: 25, Income: 25}, cfg.Valuation.Weights["default"])
	assert.Len(t, cfg.Valuation.Weights, len(model.PropertyTypes))
	for name, w := range cfg.Valuation.Weights {
		assert.Equal(t, 100, w.Sum(), "weights for %s", name)
	}
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/appraisal
log:
  level: debug
  format: console
server:
  port: 9090
valuation:
  weights:
    multi_family:
      sales: 30
      cost: 10
      income: 60
  land_rates:
    hillsborough: 18.5
fixture:
  path: testdata/fixture.yaml
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "testdata/fixture.yaml", cfg.Fixture.Path)
	assert.Equal(t, model.Weights{Sales: 30, Cost: 10, Income: 60}, cfg.Valuation.Weights["multi_family"])
	assert.InDelta(t, 18.5, cfg.Valuation.LandRates["hillsborough"], 0.001)
	// Defaults still apply for unset values
	assert.Equal(t, model.Weights{Sales: 50, Cost: 25, Income: 25}, cfg.Valuation.Weights["default"])
	assert.Equal(t, 20, cfg.Pipeline.CompLimit)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("APPRAISAL_STORE_DRIVER", "postgres")
	t.Setenv("APPRAISAL_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("APPRAISAL_SERVER_PORT", "3000")
	t.Setenv("APPRAISAL_PIPELINE_DEFAULT_REPAIRS", "40000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.InDelta(t, 40000, cfg.Pipeline.DefaultRepairs, 0.001)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with the fields Validate inspects populated.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "appraisal.db"
	cfg.Server.Port = 8080
	cfg.Valuation.Weights = map[string]model.Weights{
		"default": {Sales: 50, Cost: 25, Income: 25},
	}
	return cfg
}

func TestValidateAppraise_Fixture(t *testing.T) {
	cfg := validDefaults()
	cfg.Fixture.Path = "fixture.yaml"

	assert.NoError(t, cfg.Validate("appraise"))
}

func TestValidateAppraise_HTTPSources(t *testing.T) {
	cfg := validDefaults()
	cfg.Assessor.BaseURL = "https://assessor.example.com"
	cfg.Market.BaseURL = "https://market.example.com"

	assert.NoError(t, cfg.Validate("appraise"))
}

func TestValidateAppraise_MissingSources(t *testing.T) {
	cfg := validDefaults()

	err := cfg.Validate("appraise")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "assessor.base_url is required")
	assert.Contains(t, err.Error(), "market.base_url is required")
}

func TestValidate_BadDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"

	err := cfg.Validate("store")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver")
}

func TestValidate_PostgresNeedsURL(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "postgres"
	cfg.Store.DatabaseURL = ""

	err := cfg.Validate("store")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")
}

func TestValidate_MissingDefaultWeights(t *testing.T) {
	cfg := validDefaults()
	cfg.Fixture.Path = "fixture.yaml"
	cfg.Valuation.Weights = map[string]model.Weights{}

	err := cfg.Validate("appraise")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "valuation.weights.default")
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Fixture.Path = "fixture.yaml"
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
}
