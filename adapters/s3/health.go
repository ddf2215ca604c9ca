package s3

import (
	"context"
	"fmt"
	"time"

	"github.com/gostratum/prefixstore"
)

// bucketHeader is implemented by Client and by the lifecycle proxy
type bucketHeader interface {
	HeadBucket(ctx context.Context, bucket string) error
}

// healthCheck implements prefixstore.HealthChecker for S3 connectivity
type healthCheck struct {
	client bucketHeader
	bucket string
}

var _ prefixstore.HealthChecker = (*healthCheck)(nil)

// NewHealthChecker returns a check that heads bucket through client
func NewHealthChecker(client *Client, bucket string) prefixstore.HealthChecker {
	return &healthCheck{client: client, bucket: bucket}
}

func (h *healthCheck) Name() string { return "prefixstore.s3" }

func (h *healthCheck) Check(ctx context.Context) error {
	if h.client == nil {
		return fmt.Errorf("no s3 client")
	}

	// Use a short timeout for health checks
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := h.client.HeadBucket(ctx, h.bucket); err != nil {
		return fmt.Errorf("s3 head bucket failed: %w", err)
	}
	return nil
}
