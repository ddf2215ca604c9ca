package cli

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/gostratum/prefixstore"
	"github.com/gostratum/prefixstore/adapters/minio"
	"github.com/gostratum/prefixstore/adapters/s3"
)

// backend is a Store plus the health check of the client behind it
type backend struct {
	store  *prefixstore.Store
	health prefixstore.HealthChecker
	close  func() error
}

// openBackend connects the client selected by cfg.Provider
func openBackend(ctx context.Context, cfg *prefixstore.Config, logger *zap.Logger) (*backend, error) {
	opts := []prefixstore.Option{prefixstore.WithLogger(logger)}

	switch cfg.Provider {
	case prefixstore.ProviderMinIO:
		api, err := minio.NewAPI(cfg)
		if err != nil {
			return nil, err
		}
		client := minio.NewClient(api, logger)
		store, err := prefixstore.New(client, cfg, opts...)
		if err != nil {
			return nil, err
		}
		return &backend{
			store:  store,
			health: minio.NewHealthChecker(client, cfg.Bucket),
			close:  func() error { return nil },
		}, nil

	case prefixstore.ProviderS3, "":
		manager, err := s3.NewClientManager(ctx, s3.ClientConfig{Config: cfg, Logger: logger})
		if err != nil {
			return nil, err
		}
		client := s3.NewClient(manager.GetS3Client(), logger)
		store, err := prefixstore.New(client, cfg, opts...)
		if err != nil {
			_ = manager.Close()
			return nil, err
		}
		return &backend{
			store:  store,
			health: s3.NewHealthChecker(client, cfg.Bucket),
			close:  manager.Close,
		}, nil

	default:
		return nil, fmt.Errorf("%w: unknown provider %q", prefixstore.ErrInvalidConfig, cfg.Provider)
	}
}

// withBackend loads config, opens the backend and runs fn against it
func withBackend(ctx context.Context, opts *rootOptions, fn func(*backend) error) error {
	cfg, err := opts.config()
	if err != nil {
		return err
	}

	logger, err := prefixstore.NewLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	b, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = b.close() }()

	return fn(b)
}
