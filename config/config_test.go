package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalYAML = `
strategy:
  products: ["MO"]
`

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	s := cfg.Strategy
	assert.Equal(t, "voltrader", s.Name)
	assert.Equal(t, "minute", s.BarInterval)
	assert.Equal(t, 1, s.BarWindow)
	assert.Equal(t, 12, s.EMAFast)
	assert.Equal(t, 26, s.EMASlow)
	require.NotNil(t, s.StrikeLevel)
	assert.Equal(t, 3, *s.StrikeLevel)
	assert.Equal(t, 10.0, s.MinBidPrice)
	assert.Equal(t, 5, s.MaxPositions)
	assert.Equal(t, 50.0, s.GlobalDailyLimit)
	assert.Equal(t, 2.0, s.PerContractLimit)
	assert.Equal(t, 30, s.WarmupDaysLive)
	assert.Equal(t, 5, s.WarmupDaysBacktest)
	assert.Equal(t, 60*time.Second, cfg.AutoSaveInterval())

	assert.Equal(t, 0.8, cfg.Risk.Position.Delta)
	assert.Equal(t, 0.1, cfg.Risk.Position.Gamma)
	assert.Equal(t, 50.0, cfg.Risk.Position.Vega)
	assert.Equal(t, 5.0, cfg.Risk.Portfolio.Delta)
	assert.Equal(t, 500.0, cfg.Risk.Portfolio.Vega)

	assert.Equal(t, 30.0, cfg.OrderExecution.TimeoutSeconds)
	assert.Equal(t, 3, cfg.OrderExecution.MaxRetries)
	assert.Equal(t, 2.0, cfg.OrderExecution.SlippageTicks)

	assert.Equal(t, "data/state/voltrader.state.json", cfg.Storage.StatePath)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_ExplicitValues(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
strategy:
  name: rb-live
  products: ["rb", "MO"]
  bar_interval: hour
  bar_window: 2
  strike_level: 0
  global_daily_limit: 20
risk:
  position_limits:
    delta: 0.5
order_execution:
  timeout_seconds: 10
storage:
  state_path: /tmp/rb.state.json
log:
  level: debug
  format: json
`))
	require.NoError(t, err)

	assert.Equal(t, "rb-live", cfg.Strategy.Name)
	assert.Equal(t, []string{"rb", "MO"}, cfg.Strategy.Products)
	assert.Equal(t, "hour", cfg.Strategy.BarInterval)
	assert.Equal(t, 2, cfg.Strategy.BarWindow)
	require.NotNil(t, cfg.Strategy.StrikeLevel)
	assert.Equal(t, 0, *cfg.Strategy.StrikeLevel, "an explicit zero survives defaults")
	assert.Equal(t, 20.0, cfg.Strategy.GlobalDailyLimit)
	assert.Equal(t, 0.5, cfg.Risk.Position.Delta)
	assert.Equal(t, 0.1, cfg.Risk.Position.Gamma, "unset limits still defaulted")
	assert.Equal(t, 10.0, cfg.OrderExecution.TimeoutSeconds)
	assert.Equal(t, "/tmp/rb.state.json", cfg.Storage.StatePath)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_ExpiryOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
strategy:
  products: ["rb"]
  expiry_overrides:
    rb2510: "2025-09-15"
`))
	require.NoError(t, err)

	overrides, err := cfg.ParsedExpiryOverrides()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.September, 15, 0, 0, 0, 0, time.UTC), overrides["rb2510"])
}

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"no products", `
strategy:
  name: x
`},
		{"bad interval", `
strategy:
  products: ["rb"]
  bar_interval: weekly
`},
		{"ema order", `
strategy:
  products: ["rb"]
  ema_fast: 30
  ema_slow: 26
`},
		{"bad override", `
strategy:
  products: ["rb"]
  expiry_overrides:
    rb2510: "not a date"
`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("WEBHOOK_URL", "https://hooks.example.com/abc")

	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "https://hooks.example.com/abc", cfg.Notify.WebhookURL)
	assert.True(t, cfg.Notify.WebhookEnabled)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
