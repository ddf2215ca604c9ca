package s3

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gostratum/prefixstore"
)

func TestBuildAWSConfigWithLoader_Sources(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name       string
		cfg        *prefixstore.Config
		wantSource string
		wantErr    bool
	}{
		{
			name:       "static creds",
			cfg:        &prefixstore.Config{AccessKey: "A", SecretKey: "B"},
			wantSource: "static",
		},
		{
			name:       "profile selected",
			cfg:        &prefixstore.Config{Profile: "dev"},
			wantSource: "profile",
		},
		{
			name:       "sdk default",
			cfg:        &prefixstore.Config{},
			wantSource: "sdk-default",
		},
		{
			name:       "sdk defaults against custom endpoint",
			cfg:        &prefixstore.Config{Endpoint: "http://localhost:9000", UseSDKDefaults: true},
			wantSource: "sdk-default",
		},
		{
			name:    "custom endpoint without credentials",
			cfg:     &prefixstore.Config{Endpoint: "http://localhost:9000"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := func(ctx context.Context, opts ...func(*config.LoadOptions) error) (aws.Config, error) {
				return aws.Config{}, nil
			}

			_, gotSource, err := buildAWSConfigWithLoader(context.Background(), tt.cfg, logger, loader)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSource, gotSource)
		})
	}
}

func TestBuildAWSConfigWithLoader_AppliesOptions(t *testing.T) {
	cfg := &prefixstore.Config{
		Region:    "eu-west-1",
		AccessKey: "AKID",
		SecretKey: "SECRET",
	}

	var loaded config.LoadOptions
	loader := func(ctx context.Context, opts ...func(*config.LoadOptions) error) (aws.Config, error) {
		for _, opt := range opts {
			require.NoError(t, opt(&loaded))
		}
		return aws.Config{Region: loaded.Region, Credentials: loaded.Credentials}, nil
	}

	awsCfg, source, err := buildAWSConfigWithLoader(context.Background(), cfg, zap.NewNop(), loader)
	require.NoError(t, err)
	assert.Equal(t, "static", source)
	assert.Equal(t, "eu-west-1", awsCfg.Region)
	assert.NotNil(t, loaded.Retryer)

	creds, err := awsCfg.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKID", creds.AccessKeyID)
}

func TestBuildAWSConfigWithLoader_AssumeRole(t *testing.T) {
	cfg := &prefixstore.Config{
		Region:     "us-east-1",
		AccessKey:  "AKID",
		SecretKey:  "SECRET",
		RoleARN:    "arn:aws:iam::123456789012:role/reader",
		ExternalID: "ext",
	}

	loader := func(ctx context.Context, opts ...func(*config.LoadOptions) error) (aws.Config, error) {
		return aws.Config{Region: "us-east-1"}, nil
	}

	awsCfg, source, err := buildAWSConfigWithLoader(context.Background(), cfg, zap.NewNop(), loader)
	require.NoError(t, err)
	assert.Equal(t, "assumed-role", source)
	assert.NotNil(t, awsCfg.Credentials)
}

func TestBuildAWSConfigWithLoader_LoaderError(t *testing.T) {
	loader := func(ctx context.Context, opts ...func(*config.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("boom")
	}

	_, _, err := buildAWSConfigWithLoader(context.Background(), &prefixstore.Config{}, zap.NewNop(), loader)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestCreateBackoffStrategy(t *testing.T) {
	cfg := &prefixstore.Config{
		BackoffInitial: 100 * time.Millisecond,
		BackoffMax:     time.Second,
	}
	delayer := createBackoffStrategy(cfg)

	first, err := delayer(1, nil)
	require.NoError(t, err)
	assert.InDelta(t, float64(100*time.Millisecond), float64(first), float64(10*time.Millisecond))

	for attempt := 1; attempt <= 10; attempt++ {
		delay, err := delayer(attempt, nil)
		require.NoError(t, err)
		assert.LessOrEqual(t, delay, cfg.BackoffMax+cfg.BackoffMax/10)
	}
}

func TestNewClientManager_NilConfig(t *testing.T) {
	_, err := NewClientManager(context.Background(), ClientConfig{})
	require.Error(t, err)
}
