package prefixstore

import (
	"context"
	"fmt"

	"github.com/gostratum/tracingx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides configuration, logging and metrics for fx.
// It does NOT include a concrete ObjectClient. Include an adapter module
// (s3.Module() or minio.Module()) to get a working AccessStorage.
//
// Example usage:
//
//	app := fx.New(
//	    prefixstore.Module,
//	    s3.Module(),
//	    fx.Invoke(func(storage prefixstore.AccessStorage) {
//	        // Use storage...
//	    }),
//	)
var Module = fx.Module("prefixstore",
	fx.Provide(
		NewConfig,
		NewLogger,
		NewObservabilityInstrumenter,
	),
	fx.Invoke(registerLifecycleIfAvailable),
)

// ConfigParams defines the parameters needed for config creation
type ConfigParams struct {
	fx.In

	// Viper instance for configuration (optional)
	Viper *viper.Viper `optional:"true"`
}

// NewConfig creates a new configuration from Viper or defaults
func NewConfig(params ConfigParams) (*Config, error) {
	cfg, err := LoadConfig(params.Viper)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ObservabilityDeps defines optional observability dependencies
type ObservabilityDeps struct {
	fx.In

	Registerer prometheus.Registerer `optional:"true"`
	Tracer     tracingx.Tracer       `optional:"true"`
}

// NewObservabilityInstrumenter creates an instrumenter for storage operations.
// Metrics are disabled unless a prometheus.Registerer is in the graph, and
// spans unless a tracingx.Tracer is.
func NewObservabilityInstrumenter(deps ObservabilityDeps) *Instrumenter {
	return NewInstrumenter(deps.Registerer, deps.Tracer)
}

// StoreParams defines the parameters adapter modules use to build a Store
type StoreParams struct {
	fx.In

	Config       *Config
	Client       ObjectClient
	Logger       *zap.Logger   `optional:"true"`
	Instrumenter *Instrumenter `optional:"true"`
}

// NewStoreFromParams builds a Store from the fx graph
func NewStoreFromParams(params StoreParams) (*Store, error) {
	var opts []Option
	if params.Logger != nil {
		opts = append(opts, WithLogger(params.Logger))
	}
	if params.Instrumenter != nil {
		opts = append(opts, WithInstrumenter(params.Instrumenter))
	}
	return New(params.Client, params.Config, opts...)
}

// LifecycleParams defines parameters for lifecycle management
type LifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Storage   AccessStorage `optional:"true"` // only present when an adapter is included
	Config    *Config
	Logger    *zap.Logger `optional:"true"`
}

// registerLifecycleIfAvailable logs start/stop and closes the storage on
// shutdown when an adapter module is included
func registerLifecycleIfAvailable(params LifecycleParams) {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if params.Storage == nil {
		logger.Debug("prefixstore module loaded without storage adapter")
		return
	}

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("prefixstore module started", zap.Object("config", params.Config))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("prefixstore module stopping")

			if closer, ok := params.Storage.(interface{ Close() error }); ok {
				if err := closer.Close(); err != nil {
					logger.Error("Error closing storage", zap.Error(err))
					return err
				}
			}

			_ = logger.Sync()
			return nil
		},
	})
}

// WithCustomStorage provides a concrete AccessStorage to the fx graph.
// Useful for tests or for applications that construct storage outside of
// adapter modules.
func WithCustomStorage(s AccessStorage) fx.Option {
	return fx.Provide(func() AccessStorage { return s })
}

// WithViper supplies the viper instance NewConfig reads from
func WithViper(v *viper.Viper) fx.Option {
	return fx.Supply(v)
}
