package s3

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3Types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/gostratum/prefixstore"
)

// ClientConfig holds the configuration for creating S3 clients
type ClientConfig struct {
	Config *prefixstore.Config
	Logger *zap.Logger
}

// ClientManager owns the S3 service client shared by every Store operation
type ClientManager struct {
	s3Client *s3.Client
	config   *prefixstore.Config
	logger   *zap.Logger
}

// NewClientManager creates a new S3 client manager
func NewClientManager(ctx context.Context, clientConfig ClientConfig) (*ClientManager, error) {
	if clientConfig.Config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	if clientConfig.Logger == nil {
		clientConfig.Logger = zap.NewNop()
	}

	cfg := clientConfig.Config
	logger := clientConfig.Logger

	logger.Debug("Creating S3 client manager",
		zap.String("bucket", cfg.Bucket),
		zap.String("region", cfg.Region),
		zap.String("endpoint", cfg.Endpoint),
		zap.Bool("use_path_style", cfg.UsePathStyle))

	awsConfig, credSource, err := buildAWSConfigWithLoader(ctx, cfg, logger, func(ctx context.Context, opts ...func(*config.LoadOptions) error) (aws.Config, error) {
		return config.LoadDefaultConfig(ctx, opts...)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build AWS config: %w", err)
	}

	logger.Info("Credential source selected", zap.String("cred_source", credSource))

	manager := &ClientManager{
		s3Client: s3.NewFromConfig(awsConfig, s3OptionsFromConfig(cfg)),
		config:   cfg,
		logger:   logger,
	}

	if !cfg.SkipBucketCheck {
		if err := manager.validateConnection(ctx); err != nil {
			return nil, fmt.Errorf("failed to validate S3 connection: %w", err)
		}
	}

	logger.Info("S3 client manager created successfully",
		zap.String("bucket", cfg.Bucket),
		zap.String("region", cfg.Region))

	return manager, nil
}

// s3OptionsFromConfig applies endpoint, addressing and timeout settings
func s3OptionsFromConfig(cfg *prefixstore.Config) func(*s3.Options) {
	return func(o *s3.Options) {
		// Path-style addressing for MinIO compatibility
		if cfg.UsePathStyle {
			o.UsePathStyle = true
		}

		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.GetEndpointURL())

			// Many S3-compatible servers reject the SDK's default trailing checksums
			o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
			o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
		}

		o.RetryMaxAttempts = cfg.MaxRetries + 1

		o.HTTPClient = &http.Client{
			Timeout: cfg.RequestTimeout,
		}
	}
}

// awsConfigLoader is a function that loads an aws.Config given LoadOptions.
type awsConfigLoader func(ctx context.Context, opts ...func(*config.LoadOptions) error) (aws.Config, error)

// buildAWSConfigWithLoader builds an AWS config using the supplied loader (testable).
// It returns the loaded aws.Config and the detected credential source (one of:
// "static", "profile", "sdk-default", "assumed-role").
func buildAWSConfigWithLoader(ctx context.Context, cfg *prefixstore.Config, logger *zap.Logger, loader awsConfigLoader) (aws.Config, string, error) {
	var options []func(*config.LoadOptions) error
	credSource := "unknown"

	if cfg.Region != "" {
		options = append(options, config.WithRegion(cfg.Region))
	}

	logger.Debug("Storage config values",
		zap.Bool("access_key_set", cfg.AccessKey != ""),
		zap.Bool("secret_key_set", cfg.SecretKey != ""),
		zap.Bool("use_sdk_defaults", cfg.UseSDKDefaults),
		zap.String("endpoint", cfg.Endpoint),
		zap.String("bucket", cfg.Bucket))

	switch {
	case cfg.AccessKey != "" && cfg.SecretKey != "":
		credProvider := credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, cfg.SessionToken)
		options = append(options, config.WithCredentialsProvider(credProvider))
		credSource = "static"
	case cfg.Profile != "":
		options = append(options, config.WithSharedConfigProfile(cfg.Profile))
		credSource = "profile"
	case !cfg.UseSDKDefaults && cfg.RoleARN == "" && cfg.Endpoint != "":
		return aws.Config{}, credSource, fmt.Errorf("UseSDKDefaults is false but no explicit credentials provided (access_key/secret_key or profile)")
	}
	// Otherwise the loader falls back to the SDK default chain

	// SDK retries with exponential backoff; the store itself never retries
	options = append(options, config.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = cfg.MaxRetries + 1
			o.MaxBackoff = cfg.BackoffMax
			o.Backoff = createBackoffStrategy(cfg)
		})
	}))

	awsConfig, err := loader(ctx, options...)
	if err != nil {
		return aws.Config{}, credSource, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}

	if credSource == "unknown" {
		credSource = "sdk-default"
	}

	logger.Debug("AWS config loaded",
		zap.String("region", awsConfig.Region),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.String("cred_source", credSource))

	// RoleARN instructs the SDK to call STS:AssumeRole using the credentials
	// loaded above as the source
	if cfg.RoleARN != "" {
		logger.Info("Config requests STS AssumeRole", zap.String("role_arn", cfg.RoleARN))

		stsClient := sts.NewFromConfig(awsConfig)
		assumeProv := stscreds.NewAssumeRoleProvider(stsClient, cfg.RoleARN, func(o *stscreds.AssumeRoleOptions) {
			if cfg.ExternalID != "" {
				o.ExternalID = aws.String(cfg.ExternalID)
			}
			o.RoleSessionName = "prefixstore-assume-role"
		})

		awsConfig.Credentials = aws.NewCredentialsCache(assumeProv)
		credSource = "assumed-role"
	}

	return awsConfig, credSource, nil
}

// createBackoffStrategy creates the SDK retry delay function
func createBackoffStrategy(cfg *prefixstore.Config) retry.BackoffDelayerFunc {
	return func(attempt int, err error) (time.Duration, error) {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = cfg.BackoffInitial
		b.MaxInterval = cfg.BackoffMax
		b.MaxElapsedTime = 0 // No maximum elapsed time
		b.Multiplier = 2.0
		b.RandomizationFactor = 0.1
		b.Reset()

		var delay time.Duration
		for i := 0; i < attempt; i++ {
			delay = b.NextBackOff()
			if delay == backoff.Stop {
				break
			}
		}

		return delay, nil
	}
}

// validateConnection performs a basic connectivity check
func (cm *ClientManager) validateConnection(ctx context.Context) error {
	_, err := cm.s3Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(cm.config.Bucket),
	})
	if err != nil {
		cm.logger.Warn("Failed to validate bucket access",
			zap.String("bucket", cm.config.Bucket),
			zap.Error(err))
		return fmt.Errorf("cannot access bucket %q: %w", cm.config.Bucket, err)
	}

	cm.logger.Debug("Bucket access validated", zap.String("bucket", cm.config.Bucket))
	return nil
}

// GetS3Client returns the configured S3 client
func (cm *ClientManager) GetS3Client() *s3.Client {
	return cm.s3Client
}

// GetConfig returns the storage configuration
func (cm *ClientManager) GetConfig() *prefixstore.Config {
	return cm.config
}

// Close performs cleanup operations
func (cm *ClientManager) Close() error {
	cm.logger.Debug("Closing S3 client manager")
	return nil
}

// BucketExists checks if the configured bucket exists and is accessible
func (cm *ClientManager) BucketExists(ctx context.Context) (bool, error) {
	_, err := cm.s3Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(cm.config.Bucket),
	})
	if err != nil {
		var notFound *s3Types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("error checking bucket existence: %w", err)
	}

	return true, nil
}

// CreateBucketIfNotExists creates the bucket if it doesn't exist
func (cm *ClientManager) CreateBucketIfNotExists(ctx context.Context) error {
	exists, err := cm.BucketExists(ctx)
	if err != nil {
		return fmt.Errorf("failed to check if bucket exists: %w", err)
	}

	if exists {
		cm.logger.Debug("Bucket already exists", zap.String("bucket", cm.config.Bucket))
		return nil
	}

	cm.logger.Info("Creating bucket", zap.String("bucket", cm.config.Bucket))

	input := &s3.CreateBucketInput{
		Bucket: aws.String(cm.config.Bucket),
	}

	// Regions other than us-east-1 need a location constraint
	if cm.config.Region != "" && cm.config.Region != "us-east-1" {
		input.CreateBucketConfiguration = &s3Types.CreateBucketConfiguration{
			LocationConstraint: s3Types.BucketLocationConstraint(cm.config.Region),
		}
	}

	if _, err := cm.s3Client.CreateBucket(ctx, input); err != nil {
		return fmt.Errorf("failed to create bucket %q: %w", cm.config.Bucket, err)
	}

	cm.logger.Info("Bucket created successfully", zap.String("bucket", cm.config.Bucket))
	return nil
}
