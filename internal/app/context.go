package app

import (
	"context"

	"github.com/flarebyte/shiftlog/internal/config"
)

type configKey struct{}

// WithConfig stores the resolved configuration for subcommands.
func WithConfig(ctx context.Context, cfg config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// ConfigFrom returns the configuration stored by WithConfig, or the
// defaults when none was stored.
func ConfigFrom(ctx context.Context) config.Config {
	if ctx != nil {
		if cfg, ok := ctx.Value(configKey{}).(config.Config); ok {
			return cfg
		}
	}
	return config.Default()
}

// FromContext opens the app for the configuration in ctx.
func FromContext(ctx context.Context) (*App, error) {
	return Open(ConfigFrom(ctx))
}
