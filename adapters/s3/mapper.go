package s3

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/gostratum/prefixstore"
)

// MapS3Error converts S3 SDK errors to domain errors. The original error
// stays reachable through errors.Unwrap.
func MapS3Error(err error, op, key string) error {
	if err == nil {
		return nil
	}

	if sentinel := classifyS3Error(err); sentinel != nil {
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

// classifyS3Error returns the domain sentinel matching err, or nil
func classifyS3Error(err error) error {
	// Handle context errors
	if errors.Is(err, context.Canceled) {
		return prefixstore.ErrAborted
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return prefixstore.ErrTimeout
	}

	// Handle specific S3 error types
	var (
		noSuchKey    *types.NoSuchKey
		noSuchBucket *types.NoSuchBucket
		notFound     *types.NotFound
	)
	switch {
	case errors.As(err, &noSuchKey), errors.As(err, &noSuchBucket), errors.As(err, &notFound):
		return prefixstore.ErrNotFound
	}

	// Generic API errors carry the S3 error code
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if sentinel := mapErrorCode(apiErr.ErrorCode()); sentinel != nil {
			return sentinel
		}
	}

	// Try to extract HTTP status code and map based on that
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		if sentinel := mapHTTPStatus(respErr.HTTPStatusCode()); sentinel != nil {
			return sentinel
		}
	}

	// Handle string-based error matching for cases where type assertion fails
	return mapByErrorMessage(err)
}

// mapErrorCode maps S3 API error codes to domain errors
func mapErrorCode(code string) error {
	switch code {
	case "NoSuchBucket", "NoSuchKey", "NotFound":
		return prefixstore.ErrNotFound

	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch",
		"AllAccessDisabled", "ExpiredToken", "InvalidToken":
		return prefixstore.ErrAccessDenied

	case "RequestTimeout", "RequestTimeTooSkewed", "SlowDown",
		"ServiceUnavailable", "InternalError":
		return prefixstore.ErrTimeout

	case "InvalidBucketName", "MalformedXML", "InvalidArgument":
		return prefixstore.ErrInvalidConfig
	}
	return nil
}

// mapHTTPStatus maps HTTP status codes to domain errors
func mapHTTPStatus(status int) error {
	switch status {
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

// mapByErrorMessage performs string-based error matching as a fallback
func mapByErrorMessage(err error) error {
	errStr := strings.ToLower(err.Error())

	notFoundPatterns := []string{
		"nosuchkey",
		"nosuchbucket",
		"does not exist",
	}
	for _, pattern := range notFoundPatterns {
		if strings.Contains(errStr, pattern) {
			return prefixstore.ErrNotFound
		}
	}

	if strings.Contains(errStr, "access denied") || strings.Contains(errStr, "accessdenied") {
		return prefixstore.ErrAccessDenied
	}

	timeoutPatterns := []string{
		"i/o timeout",
		"request timeout",
		"deadline exceeded",
	}
	for _, pattern := range timeoutPatterns {
		if strings.Contains(errStr, pattern) {
			return prefixstore.ErrTimeout
		}
	}

	return nil // No mapping found
}

// IsRetryableError determines if an error is worth retrying at a higher
// level, after the SDK retryer has given up
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, prefixstore.ErrAborted),
		errors.Is(err, prefixstore.ErrInvalidConfig),
		errors.Is(err, prefixstore.ErrNotFound),
		errors.Is(err, prefixstore.ErrAccessDenied),
		errors.Is(err, prefixstore.ErrMissingBody),
		errors.Is(err, prefixstore.ErrOutOfScope):
		return false
	case errors.Is(err, prefixstore.ErrTimeout):
		return true
	}

	return classifyS3Error(err) == prefixstore.ErrTimeout
}
