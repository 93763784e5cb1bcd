package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/appraisal-cli/internal/config"
)

const sampleParcel = "01-4126-003-0010"

// useTestConfig points the global config at the sample fixture and a
// throwaway SQLite database.
func useTestConfig(t *testing.T) {
	t.Helper()
	fixturePath, err := filepath.Abs(filepath.Join("..", "internal", "fixture", "testdata", "sample.yaml"))
	require.NoError(t, err)

	// Load from an empty directory so a stray config.yaml cannot leak in.
	t.Chdir(t.TempDir())
	c, err := config.Load()
	require.NoError(t, err)

	c.Fixture.Path = fixturePath
	c.Store.Driver = "sqlite"
	c.Store.DatabaseURL = filepath.Join(t.TempDir(), "appraisal.db")
	c.Server.RequestsPerMinute = 0

	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
}

func newTestEnv(t *testing.T, withStore bool) *appEnv {
	t.Helper()
	useTestConfig(t)
	env, err := initEnv(context.Background(), "serve", withStore)
	require.NoError(t, err)
	t.Cleanup(env.Close)
	return env
}
