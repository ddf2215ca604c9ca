package minio

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/minio/minio-go/v7"

	"github.com/gostratum/prefixstore"
)

// MapMinioError converts minio-go errors to domain errors. The original error
// stays reachable through errors.Unwrap.
func MapMinioError(err error, op, key string) error {
	if err == nil {
		return nil
	}

	if sentinel := classifyMinioError(err); sentinel != nil {
		return &prefixstore.StorageError{
			Op:  op,
			Key: key,
			Err: fmt.Errorf("%w: %w", sentinel, err),
		}
	}

	return &prefixstore.StorageError{
		Op:  op,
		Key: key,
		Err: err,
	}
}

func classifyMinioError(err error) error {
	if errors.Is(err, context.Canceled) {
		return prefixstore.ErrAborted
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return prefixstore.ErrTimeout
	}

	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey", "NoSuchBucket", "NotFound":
		return prefixstore.ErrNotFound
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken":
		return prefixstore.ErrAccessDenied
	case "RequestTimeout", "SlowDown", "SlowDownRead", "SlowDownWrite",
		"ServiceUnavailable", "InternalError", "XMinioServerNotInitialized":
		return prefixstore.ErrTimeout
	case "InvalidBucketName":
		return prefixstore.ErrInvalidConfig
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return prefixstore.ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return prefixstore.ErrAccessDenied
	case http.StatusRequestTimeout, http.StatusTooManyRequests,
		http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return prefixstore.ErrTimeout
	}

	return nil
}
