package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/gostratum/prefixstore"
)

// API is the subset of *s3.Client used by Client
type API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

var _ API = (*s3.Client)(nil)

// Client implements prefixstore.ObjectClient over the S3 API
type Client struct {
	api    API
	logger *zap.Logger
}

var _ prefixstore.ObjectClient = (*Client)(nil)

// NewClient wraps an S3 API client
func NewClient(api API, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{api: api, logger: logger}
}

// ListObjects fetches one ListObjectsV2 page
func (c *Client) ListObjects(ctx context.Context, in prefixstore.ListObjectsInput) (prefixstore.ListObjectsOutput, error) {
	input := &s3.ListObjectsV2Input{
		Bucket:            aws.String(in.Bucket),
		Prefix:            in.Prefix,
		ContinuationToken: in.ContinuationToken,
	}
	if in.MaxKeys > 0 {
		input.MaxKeys = aws.Int32(in.MaxKeys)
	}

	out, err := c.api.ListObjectsV2(ctx, input)
	if err != nil {
		return prefixstore.ListObjectsOutput{}, MapS3Error(err, prefixstore.OpList, aws.ToString(in.Prefix))
	}

	result := prefixstore.ListObjectsOutput{
		Objects: make([]prefixstore.ListedObject, 0, len(out.Contents)),
	}
	for _, obj := range out.Contents {
		result.Objects = append(result.Objects, prefixstore.ListedObject{
			Key:  obj.Key,
			Size: aws.ToInt64(obj.Size),
		})
	}

	// The token is only meaningful while the listing is truncated
	if aws.ToBool(out.IsTruncated) && aws.ToString(out.NextContinuationToken) != "" {
		result.NextContinuationToken = out.NextContinuationToken
	}

	c.logger.Debug("Listed S3 page",
		zap.String("bucket", in.Bucket),
		zap.String("prefix", aws.ToString(in.Prefix)),
		zap.Int("count", len(result.Objects)),
		zap.Bool("truncated", result.NextContinuationToken != nil))

	return result, nil
}

// GetObject opens the object body. The returned body is nil when the
// response carried none.
func (c *Client) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	out, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, MapS3Error(err, prefixstore.OpRead, key)
	}
	if out == nil || out.Body == nil {
		return nil, nil
	}
	return out.Body, nil
}

// PutObject uploads data as a single request
func (c *Client) PutObject(ctx context.Context, bucket, key string, data []byte) error {
	_, err := c.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return MapS3Error(err, prefixstore.OpWrite, key)
	}
	return nil
}

// HeadBucket checks the bucket is reachable with the current credentials
func (c *Client) HeadBucket(ctx context.Context, bucket string) error {
	if _, err := c.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)}); err != nil {
		return MapS3Error(err, "head_bucket", bucket)
	}
	return nil
}

// NewStore connects to S3 (or an S3-compatible endpoint) and returns a Store
// scoped to cfg.Prefix
func NewStore(ctx context.Context, cfg *prefixstore.Config, opts ...prefixstore.Option) (*prefixstore.Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config cannot be nil", prefixstore.ErrInvalidConfig)
	}

	effective, options := prefixstore.GetEffectiveConfig(cfg, opts...)
	if err := prefixstore.ValidateConfig(effective); err != nil {
		return nil, err
	}

	manager, err := NewClientManager(ctx, ClientConfig{
		Config: effective,
		Logger: options.GetLogger(),
	})
	if err != nil {
		return nil, err
	}

	return prefixstore.New(NewClient(manager.GetS3Client(), options.GetLogger()), effective, opts...)
}
