package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Option adjusts how Load reads the environment.
type Option func(*env.Options)

// WithEnvironment makes Load read environ instead of the process environment.
func WithEnvironment(environ map[string]string) Option {
	return func(o *env.Options) {
		o.Environment = environ
	}
}

// Load fills cfg, a pointer to a struct with `env` and `envDefault` tags.
func Load(cfg any, opts ...Option) error {
	var o env.Options
	for _, opt := range opts {
		opt(&o)
	}
	if err := env.ParseWithOptions(cfg, o); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
