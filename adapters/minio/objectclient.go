package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"

	"github.com/gostratum/prefixstore"
)

const defaultPageSize = 1000

// Client implements prefixstore.ObjectClient over a MinIO API. minio-go pages
// internally, so each ListObjects call reads at most MaxKeys entries and uses
// the last key returned as the continuation token (StartAfter).
type Client struct {
	api    API
	logger *zap.Logger
}

var _ prefixstore.ObjectClient = (*Client)(nil)

// NewClient wraps a MinIO API client
func NewClient(api API, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{api: api, logger: logger}
}

// ListObjects reads one page of keys
func (c *Client) ListObjects(ctx context.Context, in prefixstore.ListObjectsInput) (prefixstore.ListObjectsOutput, error) {
	// Stops the listing goroutine once the page is full
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	limit := int(in.MaxKeys)
	if limit <= 0 {
		limit = defaultPageSize
	}

	prefix := ""
	if in.Prefix != nil {
		prefix = *in.Prefix
	}

	opts := minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
		MaxKeys:   limit,
	}
	if in.ContinuationToken != nil {
		opts.StartAfter = *in.ContinuationToken
	}

	out := prefixstore.ListObjectsOutput{
		Objects: make([]prefixstore.ListedObject, 0, limit),
	}
	lastKey := ""
	for obj := range c.api.ListObjects(ctx, in.Bucket, opts) {
		if obj.Err != nil {
			return prefixstore.ListObjectsOutput{}, MapMinioError(obj.Err, prefixstore.OpList, prefix)
		}

		// One entry past the page means there is more to read
		if len(out.Objects) == limit {
			if lastKey == "" {
				return prefixstore.ListObjectsOutput{}, &prefixstore.StorageError{
					Op:  prefixstore.OpList,
					Key: prefix,
					Err: fmt.Errorf("%w: full page of %d entries has no key to resume after", prefixstore.ErrMalformedResponse, limit),
				}
			}
			token := lastKey
			out.NextContinuationToken = &token
			break
		}

		listed := prefixstore.ListedObject{Size: obj.Size}
		if obj.Key != "" {
			key := obj.Key
			listed.Key = &key
			lastKey = key
		}
		out.Objects = append(out.Objects, listed)
	}

	c.logger.Debug("Listed MinIO page",
		zap.String("bucket", in.Bucket),
		zap.String("prefix", prefix),
		zap.Int("count", len(out.Objects)),
		zap.Bool("truncated", out.NextContinuationToken != nil))

	return out, nil
}

// GetObject opens the object body
func (c *Client) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	body, err := c.api.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, MapMinioError(err, prefixstore.OpRead, key)
	}
	return body, nil
}

// PutObject uploads data with a Content-MD5 header
func (c *Client) PutObject(ctx context.Context, bucket, key string, data []byte) error {
	_, err := c.api.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{SendContentMd5: true})
	if err != nil {
		return MapMinioError(err, prefixstore.OpWrite, key)
	}
	return nil
}

// BucketExists reports whether bucket is reachable
func (c *Client) BucketExists(ctx context.Context, bucket string) (bool, error) {
	exists, err := c.api.BucketExists(ctx, bucket)
	if err != nil {
		return false, MapMinioError(err, "bucket_exists", bucket)
	}
	return exists, nil
}

// NewStore connects to a MinIO endpoint and returns a Store scoped to
// cfg.Prefix. The bucket must exist unless cfg.SkipBucketCheck is set.
func NewStore(ctx context.Context, cfg *prefixstore.Config, opts ...prefixstore.Option) (*prefixstore.Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config cannot be nil", prefixstore.ErrInvalidConfig)
	}

	effective, options := prefixstore.GetEffectiveConfig(cfg, opts...)
	if err := prefixstore.ValidateConfig(effective); err != nil {
		return nil, err
	}

	api, err := NewAPI(effective)
	if err != nil {
		return nil, err
	}

	logger := options.GetLogger()
	if !effective.SkipBucketCheck {
		if err := ensureBucket(ctx, api, effective, false, logger); err != nil {
			return nil, fmt.Errorf("failed to validate MinIO connection: %w", err)
		}
	}

	return prefixstore.New(NewClient(api, logger), effective, opts...)
}
