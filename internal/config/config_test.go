package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/BarCut/internal/model"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)

	got := cfg.Settings()
	want := model.DefaultSettings()
	assert.Equal(t, want.Strategy, got.Strategy)
	assert.Equal(t, want.TimeLimit, got.TimeLimit)
	assert.Equal(t, want.NodeLimit, got.NodeLimit)
	assert.Equal(t, want.Workers, got.Workers)
	assert.Equal(t, want.MaxPatterns, got.MaxPatterns)
	assert.Equal(t, want.Unit, got.Unit)
	assert.True(t, want.MinOffcut.Equal(got.MinOffcut))
	assert.Equal(t, want.Saw, got.Saw)
}

func TestLoad_TOML(t *testing.T) {
	path := writeFile(t, "barcut.toml", `
[log]
level = "debug"
format = "text"

[solver]
strategy = "greedy"
time_limit = "5s"
workers = 2

[output]
unit = "mm"
min_offcut = 250

[gcode]
profile = "Grbl"
unit_scale = 1
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)

	s := cfg.Settings()
	assert.Equal(t, model.StrategyGreedy, s.Strategy)
	assert.Equal(t, 5*time.Second, s.TimeLimit)
	assert.Equal(t, 2, s.Workers)
	assert.Equal(t, "mm", s.Unit)
	assert.True(t, decimal.NewFromInt(250).Equal(s.MinOffcut))
	assert.Equal(t, "Grbl", s.Saw.Profile)
	assert.Equal(t, 1.0, s.Saw.UnitScale)
	// Keys the file leaves out keep their defaults.
	assert.Equal(t, 200000, s.NodeLimit)
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "barcut.yaml", `
server:
  addr: "127.0.0.1:9090"
  max_body_bytes: 2048
metrics:
  enabled: false
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Addr)
	assert.Equal(t, int64(2048), cfg.Server.MaxBodyBytes)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("BARCUT_SOLVER_STRATEGY", "divisor")
	t.Setenv("BARCUT_LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "divisor", cfg.Solver.Strategy)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_ValidationFails(t *testing.T) {
	path := writeFile(t, "barcut.json", `{"solver": {"strategy": "genetic"}}`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
	assert.Contains(t, err.Error(), "Strategy")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestLoader_Current(t *testing.T) {
	l := NewLoader(nil)
	assert.Nil(t, l.Current())

	cfg, err := l.Load("")
	require.NoError(t, err)
	assert.Same(t, cfg, l.Current())
}

func TestLoader_WatchReloads(t *testing.T) {
	path := writeFile(t, "barcut.toml", "[log]\nlevel = \"info\"\n")
	l := NewLoader(nil)
	_, err := l.Load(path)
	require.NoError(t, err)

	changed := make(chan *Config, 4)
	l.Watch(func(c *Config) { changed <- c })

	require.NoError(t, os.WriteFile(path, []byte("[log]\nlevel = \"debug\"\n"), 0o644))

	select {
	case cfg := <-changed:
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.Equal(t, "debug", l.Current().Log.Level)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after the file changed")
	}
}
