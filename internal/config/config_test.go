package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMafiaBot/html-telegraph-poster-v2/pkg/logger"
	"github.com/TheMafiaBot/html-telegraph-poster-v2/pkg/uploader"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{})

	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, uploader.DefaultUserAgent, cfg.UserAgent)
	assert.False(t, cfg.ReturnRaw)
	assert.Equal(t, 10*time.Second, cfg.FetchConnectTimeout)
	assert.Equal(t, 10*time.Second, cfg.FetchReadTimeout)
	assert.Equal(t, 7*time.Second, cfg.UploadConnectTimeout)
	assert.Equal(t, 7*time.Second, cfg.UploadReadTimeout)
	assert.False(t, cfg.OTelEnabled)
	assert.True(t, cfg.OTelInsecure)
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"LOG_LEVEL":                     "debug",
		"TELEGRAPH_USER_AGENT":          "poster/9",
		"TELEGRAPH_RETURN_RAW":          "true",
		"TELEGRAPH_UPLOAD_READ_TIMEOUT": "30s",
		"OTEL_ENABLED":                  "true",
		"OTEL_SAMPLE_RATE":              "0.25",
	})

	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "poster/9", cfg.UserAgent)
	assert.True(t, cfg.ReturnRaw)
	assert.Equal(t, 30*time.Second, cfg.UploadReadTimeout)
	assert.True(t, cfg.OTelEnabled)
	assert.InDelta(t, 0.25, cfg.OTelSampleRate, 1e-9)
}

func TestLoadFrom_InvalidDuration(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{"TELEGRAPH_FETCH_READ_TIMEOUT": "ten seconds"})

	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "load telegraph-upload config")
}

func TestLoad_ProcessEnv(t *testing.T) {
	t.Setenv("TELEGRAPH_USER_AGENT", "from-env/1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-env/1", cfg.UserAgent)
}

func TestUploadOptions(t *testing.T) {
	cfg := &Config{
		UserAgent:            "ua",
		ReturnRaw:            true,
		FetchConnectTimeout:  time.Second,
		FetchReadTimeout:     2 * time.Second,
		UploadConnectTimeout: 3 * time.Second,
		UploadReadTimeout:    4 * time.Second,
	}

	opts := cfg.UploadOptions()
	assert.Equal(t, "ua", opts.UserAgent)
	assert.True(t, opts.ReturnRaw)
	assert.Equal(t, uploader.Timeouts{Connect: time.Second, Read: 2 * time.Second}, opts.FetchTimeout)
	assert.Equal(t, uploader.Timeouts{Connect: 3 * time.Second, Read: 4 * time.Second}, opts.UploadTimeout)
}

func TestTracing(t *testing.T) {
	cfg := &Config{OTelEnabled: true, OTelEndpoint: "collector:4318", OTelSampleRate: 0.5}

	tc := cfg.Tracing()
	assert.Equal(t, ServiceName, tc.ServiceName)
	assert.True(t, tc.Enabled)
	assert.False(t, tc.Insecure)
	assert.Equal(t, "collector:4318", tc.Endpoint)
	assert.InDelta(t, 0.5, tc.SampleRate, 1e-9)
}

func TestLogger(t *testing.T) {
	cfg := &Config{LogLevel: "debug", LogFormat: "text"}

	lo := cfg.Logger()
	assert.Equal(t, ServiceName, lo.Name)
	assert.Equal(t, "debug", lo.Level)
	assert.Equal(t, logger.FormatText, lo.Format)
}
