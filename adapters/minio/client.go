package minio

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/gostratum/prefixstore"
)

// API is the subset of *minio.Client used by this adapter. GetObject returns
// a plain io.ReadCloser so tests can fake it.
type API interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error)
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
}

// NewAPI creates a MinIO client from the storage configuration
func NewAPI(cfg *prefixstore.Config) (API, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	// MinIO expects endpoint without scheme
	endpoint, secure := cfg.EndpointHost()

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = prefixstore.DefaultConfig().RequestTimeout
	}

	// Custom transport with strict timeouts
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   timeout,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: timeout,
	}

	lookup := minio.BucketLookupAuto
	if cfg.UsePathStyle {
		lookup = minio.BucketLookupPath
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, cfg.SessionToken),
		Secure:       secure,
		Region:       cfg.Region,
		Transport:    transport,
		BucketLookup: lookup,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	// MinIO connects lazily; bucket checks happen in NewStore or OnStart
	return &clientWrapper{Client: client}, nil
}

type clientWrapper struct {
	*minio.Client
}

// GetObject stats the object before returning it so that missing keys fail
// here rather than on the first Read
func (c *clientWrapper) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	obj, err := c.Client.GetObject(ctx, bucketName, objectName, opts)
	if err != nil {
		return nil, err
	}
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, err
	}
	return obj, nil
}

// ensureBucket fails unless the bucket exists. It creates the bucket first
// when create is set.
func ensureBucket(ctx context.Context, api API, cfg *prefixstore.Config, create bool, logger *zap.Logger) error {
	exists, err := api.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return MapMinioError(err, "bucket_exists", cfg.Bucket)
	}
	if exists {
		logger.Debug("Bucket access validated", zap.String("bucket", cfg.Bucket))
		return nil
	}

	if !create {
		return &prefixstore.StorageError{
			Op:  "bucket_exists",
			Key: cfg.Bucket,
			Err: fmt.Errorf("%w: bucket does not exist", prefixstore.ErrNotFound),
		}
	}

	logger.Info("Creating bucket", zap.String("bucket", cfg.Bucket))
	if err := api.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
		return MapMinioError(err, "make_bucket", cfg.Bucket)
	}
	return nil
}

// CreateBucketIfNotExists creates the configured bucket when it is missing
func CreateBucketIfNotExists(ctx context.Context, api API, cfg *prefixstore.Config, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	return ensureBucket(ctx, api, cfg, true, logger)
}
