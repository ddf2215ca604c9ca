package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/gostratum/prefixstore"
)

// ListHook can rewrite or fail a page before it is returned. call counts
// ListObjects invocations starting at 1.
type ListHook func(call int, in prefixstore.ListObjectsInput, out *prefixstore.ListObjectsOutput) error

// MockObjectClient is a thread-safe in-memory prefixstore.ObjectClient.
// Keys are listed in lexicographic order like S3, and continuation tokens
// are opaque to callers.
type MockObjectClient struct {
	mu       sync.RWMutex
	objects  map[string][]byte // bucket/key -> data
	pageSize int32

	listRequests []prefixstore.ListObjectsInput
	getCalls     int
	putCalls     int

	listHook ListHook
	getErr   error
	putErr   error
	nilBody  bool
}

var _ prefixstore.ObjectClient = (*MockObjectClient)(nil)

// NewMockObjectClient creates an empty in-memory client
func NewMockObjectClient() *MockObjectClient {
	return &MockObjectClient{
		objects: make(map[string][]byte),
	}
}

// SetPageSize caps every page at n entries regardless of the requested MaxKeys
func (m *MockObjectClient) SetPageSize(n int32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pageSize = n
}

// SetListHook installs a hook run on every ListObjects page
func (m *MockObjectClient) SetListHook(hook ListHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listHook = hook
}

// FailGet makes every GetObject call return err
func (m *MockObjectClient) FailGet(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getErr = err
}

// FailPut makes every PutObject call return err
func (m *MockObjectClient) FailPut(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putErr = err
}

// ReturnNilBody makes GetObject answer without a body
func (m *MockObjectClient) ReturnNilBody(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nilBody = enabled
}

// Seed stores an object directly, bypassing call accounting
func (m *MockObjectClient) Seed(bucket, key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[objectID(bucket, key)] = append([]byte(nil), data...)
}

// Object returns the raw stored bytes for bucket/key
func (m *MockObjectClient) Object(bucket, key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[objectID(bucket, key)]
	return data, ok
}

// Keys returns every key stored in bucket, sorted
func (m *MockObjectClient) Keys(bucket string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sortedKeys(bucket, "")
}

// ListRequests returns a copy of every ListObjects input received
func (m *MockObjectClient) ListRequests() []prefixstore.ListObjectsInput {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]prefixstore.ListObjectsInput(nil), m.listRequests...)
}

// ListCalls returns the number of ListObjects requests received
func (m *MockObjectClient) ListCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.listRequests)
}

// GetCalls returns the number of GetObject requests received
func (m *MockObjectClient) GetCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getCalls
}

// PutCalls returns the number of PutObject requests received
func (m *MockObjectClient) PutCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.putCalls
}

// ListObjects returns one page of keys. The continuation token is the last
// key of the previous page.
func (m *MockObjectClient) ListObjects(ctx context.Context, in prefixstore.ListObjectsInput) (prefixstore.ListObjectsOutput, error) {
	if err := ctx.Err(); err != nil {
		return prefixstore.ListObjectsOutput{}, err
	}

	m.mu.Lock()
	m.listRequests = append(m.listRequests, in)
	call := len(m.listRequests)
	hook := m.listHook

	prefix := ""
	if in.Prefix != nil {
		prefix = *in.Prefix
	}
	keys := m.sortedKeys(in.Bucket, prefix)

	start := 0
	if in.ContinuationToken != nil {
		after := decodeToken(*in.ContinuationToken)
		start = sort.SearchStrings(keys, after)
		if start < len(keys) && keys[start] == after {
			start++
		}
	}

	limit := m.effectivePageSize(in.MaxKeys)
	end := min(start+limit, len(keys))

	out := prefixstore.ListObjectsOutput{
		Objects: make([]prefixstore.ListedObject, 0, end-start),
	}
	for _, key := range keys[start:end] {
		out.Objects = append(out.Objects, prefixstore.ListedObject{
			Key:  &key,
			Size: int64(len(m.objects[objectID(in.Bucket, key)])),
		})
	}
	if end < len(keys) {
		token := encodeToken(keys[end-1])
		out.NextContinuationToken = &token
	}
	m.mu.Unlock()

	if hook != nil {
		if err := hook(call, in, &out); err != nil {
			return prefixstore.ListObjectsOutput{}, err
		}
	}

	return out, nil
}

// GetObject returns the stored bytes, or a not-found StorageError
func (m *MockObjectClient) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++

	if m.getErr != nil {
		return nil, m.getErr
	}

	data, ok := m.objects[objectID(bucket, key)]
	if !ok {
		return nil, &prefixstore.StorageError{
			Op:  prefixstore.OpRead,
			Key: key,
			Err: prefixstore.ErrNotFound,
		}
	}

	if m.nilBody {
		return nil, nil
	}

	return io.NopCloser(bytes.NewReader(append([]byte(nil), data...))), nil
}

// PutObject stores a copy of data, replacing any previous value
func (m *MockObjectClient) PutObject(ctx context.Context, bucket, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.putCalls++

	if m.putErr != nil {
		return m.putErr
	}

	m.objects[objectID(bucket, key)] = append([]byte(nil), data...)
	return nil
}

// sortedKeys must be called with m.mu held
func (m *MockObjectClient) sortedKeys(bucket, prefix string) []string {
	bucketPrefix := objectID(bucket, "")

	var keys []string
	for id := range m.objects {
		if !strings.HasPrefix(id, bucketPrefix) {
			continue
		}
		key := id[len(bucketPrefix):]
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

func (m *MockObjectClient) effectivePageSize(maxKeys int32) int {
	limit := int32(1000)
	if maxKeys > 0 && maxKeys < limit {
		limit = maxKeys
	}
	if m.pageSize > 0 && m.pageSize < limit {
		limit = m.pageSize
	}
	return int(limit)
}

func objectID(bucket, key string) string {
	return bucket + "\x00" + key
}

func encodeToken(lastKey string) string {
	return fmt.Sprintf("after:%s", lastKey)
}

func decodeToken(token string) string {
	return strings.TrimPrefix(token, "after:")
}
