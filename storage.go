package prefixstore

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Domain Errors - use errors.Is for checking
var (
	// ErrNotFound indicates the requested object or bucket was not found
	ErrNotFound = errors.New("prefixstore: object not found")

	// ErrAccessDenied indicates the credentials were rejected by the store
	ErrAccessDenied = errors.New("prefixstore: access denied")

	// ErrTimeout indicates the operation timed out
	ErrTimeout = errors.New("prefixstore: operation timeout")

	// ErrAborted indicates the operation was cancelled by the caller
	ErrAborted = errors.New("prefixstore: operation aborted")

	// ErrMissingBody indicates a get response carried no payload
	ErrMissingBody = errors.New("prefixstore: object has no body")

	// ErrOutOfScope indicates a listed key was outside the requested prefix
	ErrOutOfScope = errors.New("prefixstore: listed key outside requested prefix")

	// ErrMalformedResponse indicates the store returned an unusable response
	ErrMalformedResponse = errors.New("prefixstore: malformed response")

	// ErrInvalidConfig indicates the storage configuration is invalid
	ErrInvalidConfig = errors.New("prefixstore: invalid configuration")
)

// StorageError is the single error kind returned by AccessStorage operations.
// Err may wrap one of the domain sentinels above when the cause is known.
type StorageError struct {
	Op  string // list, read or write
	Key string // logical name supplied by the caller
	Err error  // underlying error
}

func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("prefixstore %s %q: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("prefixstore %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsStorageError reports whether err is or wraps a *StorageError
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// IsNotFound checks if an error is or wraps ErrNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// AccessStorage is the list/read/write capability over logical names.
type AccessStorage interface {
	// List returns every logical name under dir, in store order.
	List(ctx context.Context, dir string) ([]string, error)

	// ReadBytes returns the full payload of the named object.
	ReadBytes(ctx context.Context, name string) ([]byte, error)

	// WriteBytes stores data under the named object, replacing any previous value.
	WriteBytes(ctx context.Context, name string, data []byte) error
}

// ListObjectsInput is a single list-objects request against the flat key space.
type ListObjectsInput struct {
	Bucket string

	// Prefix is nil when the whole bucket is listed
	Prefix *string

	// ContinuationToken is nil on the first request
	ContinuationToken *string

	// MaxKeys caps the entries per page; zero leaves it to the store
	MaxKeys int32
}

// ListedObject is one entry of a list-objects page.
type ListedObject struct {
	// Key may be nil when the store returned an entry without one
	Key  *string
	Size int64
}

// ListObjectsOutput is one page of list-objects results.
type ListObjectsOutput struct {
	Objects []ListedObject

	// NextContinuationToken is nil once the listing is exhausted
	NextContinuationToken *string
}

// ObjectClient is the flat object store that a Store is built on.
// Implementations live under adapters/.
type ObjectClient interface {
	// ListObjects fetches a single page of keys.
	ListObjects(ctx context.Context, in ListObjectsInput) (ListObjectsOutput, error)

	// GetObject opens the object body. A nil body with a nil error means the
	// store answered without a payload.
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)

	// PutObject uploads data as the full object body.
	PutObject(ctx context.Context, bucket, key string, data []byte) error
}

// HealthChecker reports whether the backing bucket is reachable.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}
