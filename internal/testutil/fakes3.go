package testutil

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/johannesboyne/gofakes3"
	"github.com/johannesboyne/gofakes3/backend/s3mem"

	"github.com/gostratum/prefixstore"
)

// FakeS3 is an in-process S3-compatible server backed by memory
type FakeS3 struct {
	Server  *httptest.Server
	Backend *s3mem.Backend
	Bucket  string
}

// NewFakeS3 starts a gofakes3 server with one empty bucket. The server is
// closed when the test ends.
func NewFakeS3(t testing.TB) *FakeS3 {
	t.Helper()

	backend := s3mem.New()
	faker := gofakes3.New(backend)
	server := httptest.NewServer(faker.Server())
	t.Cleanup(server.Close)

	bucket := "test-" + uuid.NewString()
	if err := backend.CreateBucket(bucket); err != nil {
		t.Fatalf("failed to create fake bucket: %v", err)
	}

	return &FakeS3{
		Server:  server,
		Backend: backend,
		Bucket:  bucket,
	}
}

// Config returns a configuration pointing at the fake server, scoped to prefix
func (f *FakeS3) Config(prefix string) *prefixstore.Config {
	cfg := prefixstore.DefaultConfig()
	cfg.Bucket = f.Bucket
	cfg.Prefix = prefix
	cfg.Endpoint = f.Server.URL
	cfg.UsePathStyle = true
	cfg.AccessKey = "test-access-key"
	cfg.SecretKey = "test-secret-key"
	cfg.DisableSSL = true
	cfg.MaxRetries = 1
	cfg.BackoffInitial = 10 * time.Millisecond
	cfg.BackoffMax = 50 * time.Millisecond
	return cfg
}

// ConfigFor is Config with the provider set
func (f *FakeS3) ConfigFor(provider, prefix string) *prefixstore.Config {
	cfg := f.Config(prefix)
	cfg.Provider = provider
	return cfg
}
