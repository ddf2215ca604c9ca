package minio

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/gostratum/prefixstore"
)

// Module returns an fx.Module which provides the MinIO object client, a Store
// over it and a health checker. Combine it with prefixstore.Module.
func Module() fx.Option {
	return fx.Module("prefixstore-minio",
		fx.Provide(
			provideClient,
			func(c *Client) prefixstore.ObjectClient { return c },
			prefixstore.NewStoreFromParams,
			func(s *prefixstore.Store) prefixstore.AccessStorage { return s },
			func(c *Client, cfg *prefixstore.Config) prefixstore.HealthChecker {
				return NewHealthChecker(c, cfg.Bucket)
			},
		),
	)
}

// ClientParams defines the dependencies of the MinIO object client
type ClientParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *prefixstore.Config
	Logger    *zap.Logger `optional:"true"`
}

// provideClient builds the client eagerly since minio-go connects lazily, and
// checks the bucket once the application starts
func provideClient(params ClientParams) (*Client, error) {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	api, err := NewAPI(params.Config)
	if err != nil {
		return nil, err
	}

	if !params.Config.SkipBucketCheck {
		params.Lifecycle.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return ensureBucket(ctx, api, params.Config, false, logger)
			},
		})
	}

	return NewClient(api, logger), nil
}
