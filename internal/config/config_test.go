package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 0.003, cfg.Pricing.BaseFee)
	assert.Equal(t, 0.25, cfg.Sizing.KellyMultiplier)
	assert.Equal(t, 0.10, cfg.Sizing.MaxPosition)
	assert.Equal(t, 0.95, cfg.Risk.VaRConfidence)
	assert.Equal(t, 24*time.Hour, cfg.VolatilityWindow())
	assert.Equal(t, 5*time.Minute, cfg.OracleMaxAge())
	assert.Equal(t, 30*time.Second, cfg.CacheTTL())
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9090"
  rate_limit_rps: 10
pricing:
  base_fee: 0.005
  volatility_window_hours: 48
sizing:
  kelly_multiplier: 0.5
risk:
  var_confidence: 0.99
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, float64(10), cfg.Server.RateLimitRPS)
	assert.Equal(t, 0.005, cfg.Pricing.BaseFee)
	assert.Equal(t, 48*time.Hour, cfg.VolatilityWindow())
	assert.Equal(t, 0.5, cfg.Sizing.KellyMultiplier)
	assert.Equal(t, 0.99, cfg.Risk.VaRConfidence)
	// Unset keys still get defaults.
	assert.Equal(t, 0.10, cfg.Sizing.MaxPosition)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9090"
`)
	t.Setenv("PORT", "7070")
	t.Setenv("BASE_FEE", "0.004")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, 0.004, cfg.Pricing.BaseFee)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}
