package prefixstore

import (
	"go.uber.org/zap"
)

// Options holds functional options for customizing storage behavior
type Options struct {
	logger       *zap.Logger
	instrumenter *Instrumenter
}

// Option is a functional option for configuring a Store
type Option func(*Options)

// WithLogger sets a custom zap logger
func WithLogger(logger *zap.Logger) Option {
	return func(opts *Options) {
		opts.logger = logger
	}
}

// WithInstrumenter sets the metrics instrumenter used by every operation
func WithInstrumenter(i *Instrumenter) Option {
	return func(opts *Options) {
		opts.instrumenter = i
	}
}

// applyDefaults applies default values to unset options
func (opts *Options) applyDefaults() {
	if opts.logger == nil {
		opts.logger = zap.NewNop()
	}
	if opts.instrumenter == nil {
		opts.instrumenter = NewInstrumenter(nil, nil)
	}
}

// GetLogger returns the configured logger
func (opts *Options) GetLogger() *zap.Logger {
	if opts.logger == nil {
		return zap.NewNop()
	}
	return opts.logger
}

// GetInstrumenter returns the configured instrumenter
func (opts *Options) GetInstrumenter() *Instrumenter {
	if opts.instrumenter == nil {
		return NewInstrumenter(nil, nil)
	}
	return opts.instrumenter
}

// GetEffectiveConfig returns a sanitized copy of the configuration together
// with the resolved options
func GetEffectiveConfig(cfg *Config, options ...Option) (*Config, *Options) {
	opts := &Options{}
	for _, opt := range options {
		opt(opts)
	}
	opts.applyDefaults()

	return cfg.Sanitize(), opts
}
