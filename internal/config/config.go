package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/TheMafiaBot/html-telegraph-poster-v2/pkg/config"
	"github.com/TheMafiaBot/html-telegraph-poster-v2/pkg/logger"
	"github.com/TheMafiaBot/html-telegraph-poster-v2/pkg/tracing"
	"github.com/TheMafiaBot/html-telegraph-poster-v2/pkg/uploader"
)

// ServiceName identifies the CLI in logs and traces.
const ServiceName = "telegraph-upload"

// Config holds all configuration for the telegraph-upload command.
type Config struct {
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Upload options
	UserAgent            string        `env:"TELEGRAPH_USER_AGENT" envDefault:"telegraph-upload-go/0.1"`
	ReturnRaw            bool          `env:"TELEGRAPH_RETURN_RAW" envDefault:"false"`
	FetchConnectTimeout  time.Duration `env:"TELEGRAPH_FETCH_CONNECT_TIMEOUT" envDefault:"10s"`
	FetchReadTimeout     time.Duration `env:"TELEGRAPH_FETCH_READ_TIMEOUT" envDefault:"10s"`
	UploadConnectTimeout time.Duration `env:"TELEGRAPH_UPLOAD_CONNECT_TIMEOUT" envDefault:"7s"`
	UploadReadTimeout    time.Duration `env:"TELEGRAPH_UPLOAD_READ_TIMEOUT" envDefault:"7s"`

	// OpenTelemetry
	OTelEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTelEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTelInsecure   bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	OTelSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Prometheus Pushgateway; metrics are pushed once before exit when set.
	PushgatewayURL string `env:"PROMETHEUS_PUSHGATEWAY_URL" envDefault:""`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load telegraph-upload config: %w", err)
	}
	return cfg, nil
}

// LoadFrom reads configuration from the given environment map.
func LoadFrom(environ map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg, pkgconfig.WithEnvironment(environ)); err != nil {
		return nil, fmt.Errorf("load telegraph-upload config: %w", err)
	}
	return cfg, nil
}

// UploadOptions returns the per-call uploader options.
func (c *Config) UploadOptions() uploader.Options {
	return uploader.Options{
		UserAgent: c.UserAgent,
		ReturnRaw: c.ReturnRaw,
		FetchTimeout: uploader.Timeouts{
			Connect: c.FetchConnectTimeout,
			Read:    c.FetchReadTimeout,
		},
		UploadTimeout: uploader.Timeouts{
			Connect: c.UploadConnectTimeout,
			Read:    c.UploadReadTimeout,
		},
	}
}

// Logger returns the logger settings for the command.
func (c *Config) Logger() logger.Options {
	return logger.Options{
		Name:   ServiceName,
		Level:  c.LogLevel,
		Format: logger.Format(c.LogFormat),
	}
}

// Tracing returns the OpenTelemetry settings for the command.
func (c *Config) Tracing() tracing.Config {
	cfg := tracing.DefaultConfig(ServiceName)
	cfg.Enabled = c.OTelEnabled
	cfg.Endpoint = c.OTelEndpoint
	cfg.Insecure = c.OTelInsecure
	cfg.SampleRate = c.OTelSampleRate
	return cfg
}
