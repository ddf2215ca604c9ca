package prefixstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_FromViper(t *testing.T) {
	v := viper.New()
	v.Set("prefixstore.bucket", "my-bucket")
	v.Set("prefixstore.prefix", "indexes/prod")
	v.Set("prefixstore.page_size", 250)
	v.Set("prefixstore.request_timeout", "5s")

	cfg, err := LoadConfig(v)
	require.NoError(t, err)

	assert.Equal(t, ProviderS3, cfg.Provider)
	assert.Equal(t, "my-bucket", cfg.Bucket)
	assert.Equal(t, "indexes/prod/", cfg.Prefix)
	assert.Equal(t, int32(250), cfg.PageSize)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "us-east-1", cfg.Region)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("PREFIXSTORE_BUCKET", "env-bucket")
	t.Setenv("PREFIXSTORE_PREFIX", "tenant-a")
	t.Setenv("PREFIXSTORE_PROVIDER", "minio")
	t.Setenv("PREFIXSTORE_ENDPOINT", "localhost:9000")
	t.Setenv("PREFIXSTORE_ACCESS_KEY", "minioadmin")
	t.Setenv("PREFIXSTORE_SECRET_KEY", "minioadmin")
	t.Setenv("PREFIXSTORE_USE_PATH_STYLE", "true")

	path := filepath.Join(t.TempDir(), "prefixstore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
prefixstore:
  bucket: file-bucket
  prefix: file-prefix
  region: eu-west-1
`), 0o600))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := LoadConfig(v)
	require.NoError(t, err)

	assert.Equal(t, "env-bucket", cfg.Bucket, "env overrides the config file")
	assert.Equal(t, "eu-west-1", cfg.Region, "unset env keeps the file value")
	assert.Equal(t, "tenant-a/", cfg.Prefix)
	assert.Equal(t, ProviderMinIO, cfg.Provider)
	assert.Equal(t, "localhost:9000", cfg.Endpoint)
	assert.True(t, cfg.UsePathStyle)
}

func TestLoadConfig_FromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prefixstore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
prefixstore:
  bucket: yaml-bucket
  prefix: idx
  region: eu-west-1
  max_retries: 5
  backoff_initial: 100ms
`), 0o600))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := LoadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "yaml-bucket", cfg.Bucket)
	assert.Equal(t, "idx/", cfg.Prefix)
	assert.Equal(t, "eu-west-1", cfg.Region)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 100*time.Millisecond, cfg.BackoffInitial)
}

func TestLoadConfig_Invalid(t *testing.T) {
	v := viper.New()
	v.Set("prefixstore.bucket", "")

	_, err := LoadConfig(v)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadDotEnv(t *testing.T) {
	t.Run("missing file is ignored", func(t *testing.T) {
		assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")))
	})

	t.Run("loads variables", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte("PREFIXSTORE_TEST_DOTENV=loaded\n"), 0o600))
		t.Cleanup(func() { os.Unsetenv("PREFIXSTORE_TEST_DOTENV") })

		require.NoError(t, LoadDotEnv(path))
		assert.Equal(t, "loaded", os.Getenv("PREFIXSTORE_TEST_DOTENV"))
	})
}

func TestNewLogger(t *testing.T) {
	t.Run("disabled returns nop", func(t *testing.T) {
		logger, err := NewLogger(&Config{})
		require.NoError(t, err)
		assert.False(t, logger.Core().Enabled(-1))
	})

	t.Run("level is honoured", func(t *testing.T) {
		logger, err := NewLogger(&Config{EnableLogging: true, LogLevel: "warn"})
		require.NoError(t, err)
		assert.False(t, logger.Core().Enabled(0), "info disabled")
		assert.True(t, logger.Core().Enabled(1), "warn enabled")
	})

	t.Run("invalid level", func(t *testing.T) {
		_, err := NewLogger(&Config{EnableLogging: true, LogLevel: "loud"})
		assert.Error(t, err)
	})
}
