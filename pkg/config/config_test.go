package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Agent    string        `env:"TEST_CFG_AGENT" envDefault:"agent/1"`
	Timeout  time.Duration `env:"TEST_CFG_TIMEOUT" envDefault:"7s"`
	LogLevel string        `env:"TEST_CFG_LOG_LEVEL" envDefault:"info"`
	Raw      bool          `env:"TEST_CFG_RAW" envDefault:"false"`
}

func TestLoad_Defaults(t *testing.T) {
	var cfg testConfig
	err := Load(&cfg)

	require.NoError(t, err)
	assert.Equal(t, "agent/1", cfg.Agent)
	assert.Equal(t, 7*time.Second, cfg.Timeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.Raw)
}

func TestLoad_FromEnvVars(t *testing.T) {
	t.Setenv("TEST_CFG_AGENT", "agent/2")
	t.Setenv("TEST_CFG_TIMEOUT", "250ms")
	t.Setenv("TEST_CFG_LOG_LEVEL", "debug")
	t.Setenv("TEST_CFG_RAW", "true")

	var cfg testConfig
	err := Load(&cfg)

	require.NoError(t, err)
	assert.Equal(t, "agent/2", cfg.Agent)
	assert.Equal(t, 250*time.Millisecond, cfg.Timeout)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Raw)
}

func TestLoad_InvalidType(t *testing.T) {
	t.Setenv("TEST_CFG_TIMEOUT", "soon")

	var cfg testConfig
	err := Load(&cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoad_WithEnvironmentIgnoresProcessEnv(t *testing.T) {
	t.Setenv("TEST_CFG_AGENT", "from-process")

	var cfg testConfig
	err := Load(&cfg, WithEnvironment(map[string]string{"TEST_CFG_RAW": "true"}))

	require.NoError(t, err)
	assert.Equal(t, "agent/1", cfg.Agent)
	assert.True(t, cfg.Raw)
}

type requiredConfig struct {
	Endpoint string `env:"TEST_CFG_ENDPOINT,required"`
}

func TestLoad_RequiredFieldMissing(t *testing.T) {
	var cfg requiredConfig
	err := Load(&cfg, WithEnvironment(map[string]string{}))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoad_RejectsNonPointer(t *testing.T) {
	err := Load(testConfig{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}
