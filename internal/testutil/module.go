package testutil

import (
	"go.uber.org/fx"

	"github.com/gostratum/prefixstore"
)

// TestModule provides a test configuration, an in-memory object client and a
// Store over it, so tests need no external configuration or network.
//
// Example usage:
//
//	import "github.com/gostratum/prefixstore/internal/testutil"
//
//	func TestMyApp(t *testing.T) {
//	    app := fxtest.New(t,
//	        testutil.TestModule,
//	        fx.Invoke(func(storage prefixstore.AccessStorage) {
//	            // Use storage
//	        }),
//	    )
//	    // ...
//	}
var TestModule = fx.Module("prefixstore-test",
	fx.Provide(
		NewTestConfig,
		NewMockObjectClient,
		func(m *MockObjectClient) prefixstore.ObjectClient { return m },
		prefixstore.NewStoreFromParams,
		func(s *prefixstore.Store) prefixstore.AccessStorage { return s },
	),
)

// NewTestConfig creates a test configuration suitable for unit tests.
// The configuration points to a local MinIO instance with default credentials.
func NewTestConfig() *prefixstore.Config {
	cfg := prefixstore.DefaultConfig()
	cfg.Bucket = "test-bucket"
	cfg.Prefix = "test/"
	cfg.Endpoint = "http://localhost:9000"
	cfg.UsePathStyle = true
	cfg.AccessKey = "minioadmin"
	cfg.SecretKey = "minioadmin"
	cfg.DisableSSL = true
	cfg.SkipBucketCheck = true
	return cfg
}
