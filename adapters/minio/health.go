package minio

import (
	"context"
	"fmt"
	"time"

	"github.com/gostratum/prefixstore"
)

type healthCheck struct {
	client *Client
	bucket string
}

var _ prefixstore.HealthChecker = (*healthCheck)(nil)

// NewHealthChecker returns a check that looks up bucket through client
func NewHealthChecker(client *Client, bucket string) prefixstore.HealthChecker {
	return &healthCheck{client: client, bucket: bucket}
}

func (h *healthCheck) Name() string { return "prefixstore.minio" }

func (h *healthCheck) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	exists, err := h.client.BucketExists(ctx, h.bucket)
	if err != nil {
		return fmt.Errorf("minio bucket check failed: %w", err)
	}
	if !exists {
		return fmt.Errorf("minio bucket %q: %w", h.bucket, prefixstore.ErrNotFound)
	}
	return nil
}
