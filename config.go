package prefixstore

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
)

// Supported providers
const (
	ProviderS3    = "s3"
	ProviderMinIO = "minio"
)

// Config holds all storage configuration options
type Config struct {
	// Provider selects the backing client ("s3" or "minio")
	Provider string `mapstructure:"provider" yaml:"provider"`

	// Bucket is the storage bucket name
	Bucket string `mapstructure:"bucket" yaml:"bucket"`

	// Prefix namespaces every key managed by this store (e.g., "indexes/prod/")
	Prefix string `mapstructure:"prefix" yaml:"prefix"`

	// Region is the AWS region (e.g., "us-west-2")
	Region string `mapstructure:"region" yaml:"region"`

	// Endpoint is the custom endpoint URL (for MinIO, etc.)
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// UsePathStyle forces path-style addressing (true for MinIO)
	UsePathStyle bool `mapstructure:"use_path_style" yaml:"use_path_style"`

	// AccessKey is the access key ID
	AccessKey string `mapstructure:"access_key" yaml:"access_key"`

	// SecretKey is the secret access key
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`

	// SessionToken is the temporary session token (optional)
	SessionToken string `mapstructure:"session_token" yaml:"session_token"`

	// UseSDKDefaults lets the AWS SDK default credential chain (env, shared
	// config, instance profile) be used when explicit credentials are absent
	UseSDKDefaults bool `mapstructure:"use_sdk_defaults" yaml:"use_sdk_defaults"`

	// Profile selects a shared credentials/profile name when loading SDK defaults
	Profile string `mapstructure:"profile" yaml:"profile"`

	// RoleARN optionally specifies a role to assume via STS
	RoleARN string `mapstructure:"role_arn" yaml:"role_arn"`

	// ExternalID is passed to STS AssumeRole when RoleARN is used
	ExternalID string `mapstructure:"external_id" yaml:"external_id"`

	// RequestTimeout is the timeout for individual requests
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`

	// MaxRetries is the maximum number of SDK retry attempts
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`

	// BackoffInitial is the initial SDK backoff delay
	BackoffInitial time.Duration `mapstructure:"backoff_initial" yaml:"backoff_initial"`

	// BackoffMax is the maximum SDK backoff delay
	BackoffMax time.Duration `mapstructure:"backoff_max" yaml:"backoff_max"`

	// PageSize is the number of keys requested per listing page
	PageSize int32 `mapstructure:"page_size" yaml:"page_size"`

	// DisableSSL disables SSL for connections (development only)
	DisableSSL bool `mapstructure:"disable_ssl" yaml:"disable_ssl"`

	// SkipBucketCheck skips the HeadBucket check when the client is built
	SkipBucketCheck bool `mapstructure:"skip_bucket_check" yaml:"skip_bucket_check"`

	// EnableLogging enables detailed operation logging
	EnableLogging bool `mapstructure:"enable_logging" yaml:"enable_logging"`

	// LogLevel is the zap level used when logging is enabled
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Provider:       ProviderS3,
		Region:         "us-east-1",
		UsePathStyle:   false,
		RequestTimeout: 30 * time.Second,
		MaxRetries:     3,
		BackoffInitial: 200 * time.Millisecond,
		BackoffMax:     5 * time.Second,
		PageSize:       1000,
		DisableSSL:     false,
		EnableLogging:  false,
		LogLevel:       "info",
	}
}

// GetEndpointURL returns the full endpoint URL
func (c *Config) GetEndpointURL() string {
	if c.Endpoint == "" {
		return ""
	}

	if strings.HasPrefix(c.Endpoint, "http://") || strings.HasPrefix(c.Endpoint, "https://") {
		return c.Endpoint
	}

	scheme := "https"
	if c.DisableSSL {
		scheme = "http"
	}

	return fmt.Sprintf("%s://%s", scheme, c.Endpoint)
}

// EndpointHost returns the endpoint without scheme, as MinIO expects it,
// and whether TLS should be used.
func (c *Config) EndpointHost() (host string, secure bool) {
	url := c.GetEndpointURL()
	switch {
	case strings.HasPrefix(url, "https://"):
		return strings.TrimPrefix(url, "https://"), true
	case strings.HasPrefix(url, "http://"):
		return strings.TrimPrefix(url, "http://"), false
	}
	return url, !c.DisableSSL
}

// String returns a safe string representation (redacts secrets)
func (c *Config) String() string {
	return fmt.Sprintf("Config{Provider:%s, Bucket:%s, Prefix:%s, Region:%s, Endpoint:%s, UsePathStyle:%v}",
		c.Provider, c.Bucket, c.Prefix, c.Region, c.Endpoint, c.UsePathStyle)
}

// Redacted returns a copy with secrets replaced, suitable for logging
func (c *Config) Redacted() *Config {
	if c == nil {
		return nil
	}
	redacted := *c
	for _, field := range []*string{&redacted.AccessKey, &redacted.SecretKey, &redacted.SessionToken, &redacted.ExternalID} {
		if *field != "" {
			*field = "[redacted]"
		}
	}
	return &redacted
}

// MarshalLogObject lets zap.Object log the configuration without secrets
func (c *Config) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("provider", c.Provider)
	enc.AddString("bucket", c.Bucket)
	enc.AddString("prefix", c.Prefix)
	enc.AddString("region", c.Region)
	enc.AddString("endpoint", c.Endpoint)
	enc.AddBool("use_path_style", c.UsePathStyle)
	enc.AddDuration("request_timeout", c.RequestTimeout)
	enc.AddInt("max_retries", c.MaxRetries)
	enc.AddInt32("page_size", c.PageSize)
	enc.AddBool("has_access_key", c.AccessKey != "")
	enc.AddBool("has_secret_key", c.SecretKey != "")
	enc.AddBool("has_session_token", c.SessionToken != "")
	if c.RoleARN != "" {
		enc.AddString("role_arn", c.RoleARN)
	}
	return nil
}
