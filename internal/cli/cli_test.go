package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gostratum/prefixstore"
	"github.com/gostratum/prefixstore/internal/testutil"
)

func run(t *testing.T, fake *testutil.FakeS3, provider, stdin string, args ...string) (string, error) {
	t.Helper()

	t.Setenv("PREFIXSTORE_ACCESS_KEY", "test-access-key")
	t.Setenv("PREFIXSTORE_SECRET_KEY", "test-secret-key")
	t.Setenv("PREFIXSTORE_MAX_RETRIES", "1")

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{
		"--env-file", filepath.Join(t.TempDir(), "none.env"),
		"--provider", provider,
		"--bucket", fake.Bucket,
		"--prefix", "indexes",
		"--endpoint", fake.Server.URL,
		"--path-style",
	}, args...))

	err := cmd.Execute()
	return out.String(), err
}

func TestCLI_PutListCat(t *testing.T) {
	for _, provider := range []string{prefixstore.ProviderS3, prefixstore.ProviderMinIO} {
		t.Run(provider, func(t *testing.T) {
			fake := testutil.NewFakeS3(t)

			_, err := run(t, fake, provider, "hello", "put", "notes/a.txt")
			require.NoError(t, err)

			_, err = fake.Backend.HeadObject(fake.Bucket, "indexes/notes/a.txt")
			require.NoError(t, err)

			out, err := run(t, fake, provider, "", "ls", "notes")
			require.NoError(t, err)
			assert.Equal(t, "a.txt\n", out)

			out, err = run(t, fake, provider, "", "cat", "notes/a.txt")
			require.NoError(t, err)
			assert.Equal(t, "hello", out)
		})
	}
}

func TestCLI_CatMissing(t *testing.T) {
	fake := testutil.NewFakeS3(t)

	_, err := run(t, fake, prefixstore.ProviderS3, "", "cat", "missing.txt")
	require.Error(t, err)
	assert.True(t, prefixstore.IsNotFound(err))
}

func TestCLI_Health(t *testing.T) {
	fake := testutil.NewFakeS3(t)

	out, err := run(t, fake, prefixstore.ProviderMinIO, "", "health")
	require.NoError(t, err)
	assert.Contains(t, out, "prefixstore.minio: ok")
}

func TestCLI_UnknownProvider(t *testing.T) {
	fake := testutil.NewFakeS3(t)

	_, err := run(t, fake, "gcs", "", "ls")
	require.Error(t, err)
	assert.ErrorIs(t, err, prefixstore.ErrInvalidConfig)
}
