package s3

import (
	"context"
	"fmt"
	"io"
	"sync"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/gostratum/prefixstore"
)

// Module returns an fx.Module which provides the S3 object client, a Store
// over it and a health checker. Combine it with prefixstore.Module, which
// supplies *prefixstore.Config and the logger.
func Module() fx.Option {
	return fx.Module("prefixstore-s3",
		fx.Provide(
			provideObjectClient,
			prefixstore.NewStoreFromParams,
			func(s *prefixstore.Store) prefixstore.AccessStorage { return s },
			provideHealthChecker,
		),
	)
}

// ObjectClientParams defines the dependencies of the S3 object client
type ObjectClientParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *prefixstore.Config
	Logger    *zap.Logger `optional:"true"`
}

// ObjectClientResult exposes the lifecycle-managed client twice: as the
// ObjectClient the Store consumes and as the proxy the health check uses
type ObjectClientResult struct {
	fx.Out

	Client prefixstore.ObjectClient
	Proxy  *lifecycleProxy
}

// provideObjectClient creates the S3 client during OnStart so it can use the
// lifecycle context and respect cancellation/timeouts. Meanwhile it returns
// a proxy that blocks calls until the real client is ready or returns an
// error if startup failed.
func provideObjectClient(params ObjectClientParams) ObjectClientResult {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	proxy := &lifecycleProxy{}

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			manager, err := NewClientManager(ctx, ClientConfig{
				Config: params.Config,
				Logger: logger,
			})
			if err != nil {
				proxy.setErr(err)
				return err
			}
			proxy.setClient(NewClient(manager.GetS3Client(), logger), manager)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if manager := proxy.getManager(); manager != nil {
				return manager.Close()
			}
			return nil
		},
	})

	return ObjectClientResult{Client: proxy, Proxy: proxy}
}

func provideHealthChecker(proxy *lifecycleProxy, cfg *prefixstore.Config) prefixstore.HealthChecker {
	return &healthCheck{client: proxy, bucket: cfg.Bucket}
}

// lifecycleProxy is an ObjectClient that waits for the real client to be
// created during the fx OnStart hook
type lifecycleProxy struct {
	once    sync.Once
	mu      sync.RWMutex
	client  *Client
	manager *ClientManager
	err     error
	ready   chan struct{}
}

var _ prefixstore.ObjectClient = (*lifecycleProxy)(nil)

func (p *lifecycleProxy) init() {
	p.once.Do(func() {
		p.ready = make(chan struct{})
	})
}

func (p *lifecycleProxy) setClient(c *Client, m *ClientManager) {
	p.init()
	p.mu.Lock()
	p.client = c
	p.manager = m
	close(p.ready)
	p.mu.Unlock()
}

func (p *lifecycleProxy) setErr(err error) {
	p.init()
	p.mu.Lock()
	p.err = err
	close(p.ready)
	p.mu.Unlock()
}

func (p *lifecycleProxy) wait(ctx context.Context) (*Client, error) {
	p.init()
	select {
	case <-p.ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.err != nil {
		return nil, fmt.Errorf("s3 client failed to start: %w", p.err)
	}
	return p.client, nil
}

func (p *lifecycleProxy) getManager() *ClientManager {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.manager
}

func (p *lifecycleProxy) ListObjects(ctx context.Context, in prefixstore.ListObjectsInput) (prefixstore.ListObjectsOutput, error) {
	c, err := p.wait(ctx)
	if err != nil {
		return prefixstore.ListObjectsOutput{}, err
	}
	return c.ListObjects(ctx, in)
}

func (p *lifecycleProxy) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	c, err := p.wait(ctx)
	if err != nil {
		return nil, err
	}
	return c.GetObject(ctx, bucket, key)
}

func (p *lifecycleProxy) PutObject(ctx context.Context, bucket, key string, data []byte) error {
	c, err := p.wait(ctx)
	if err != nil {
		return err
	}
	return c.PutObject(ctx, bucket, key, data)
}

func (p *lifecycleProxy) HeadBucket(ctx context.Context, bucket string) error {
	c, err := p.wait(ctx)
	if err != nil {
		return err
	}
	return c.HeadBucket(ctx, bucket)
}
