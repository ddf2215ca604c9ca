package prefixstore

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config field %q: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrInvalidConfig
func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}

// ValidateConfig performs comprehensive validation of storage configuration
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return &ValidationError{Field: "config", Message: "configuration cannot be nil"}
	}

	var errors []string

	// Validate provider
	switch cfg.Provider {
	case "":
		errors = append(errors, "provider cannot be empty")
	case ProviderS3, ProviderMinIO:
	default:
		errors = append(errors, fmt.Sprintf("unsupported provider %q, expected %q or %q", cfg.Provider, ProviderS3, ProviderMinIO))
	}

	// Validate bucket
	if cfg.Bucket == "" {
		errors = append(errors, "bucket cannot be empty")
	} else if err := validateBucketName(cfg.Bucket); err != nil {
		errors = append(errors, fmt.Sprintf("invalid bucket name: %v", err))
	}

	if cfg.Prefix != "" {
		if err := validatePrefix(cfg.Prefix); err != nil {
			errors = append(errors, fmt.Sprintf("invalid prefix: %v", err))
		}
	}

	// Region is required for AWS, optional for custom endpoints
	if cfg.Region == "" && cfg.Endpoint == "" {
		errors = append(errors, "region is required when endpoint is not specified (AWS mode)")
	}

	// Disallow partially-specified explicit credentials
	if (cfg.AccessKey == "" && cfg.SecretKey != "") || (cfg.AccessKey != "" && cfg.SecretKey == "") {
		errors = append(errors, "both access_key and secret_key must be set together; do not provide only one")
	}

	if cfg.AccessKey == "" && cfg.SecretKey == "" {
		switch {
		case cfg.Provider == ProviderMinIO:
			errors = append(errors, "minio provider requires access_key and secret_key")
		case cfg.Endpoint != "" && cfg.RoleARN == "" && !cfg.UseSDKDefaults && cfg.Profile == "":
			errors = append(errors, "credentials required for custom endpoint: provide access_key+secret_key or enable use_sdk_defaults")
		}
	}

	if cfg.Provider == ProviderMinIO && cfg.Endpoint == "" {
		errors = append(errors, "minio provider requires an endpoint")
	}

	// Validate timeouts
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, "request_timeout must be positive")
	}
	if cfg.RequestTimeout > 10*time.Minute {
		errors = append(errors, "request_timeout should not exceed 10 minutes")
	}

	// Validate SDK retry configuration
	if cfg.MaxRetries < 0 {
		errors = append(errors, "max_retries cannot be negative")
	}
	if cfg.MaxRetries > 10 {
		errors = append(errors, "max_retries should not exceed 10")
	}
	if cfg.BackoffInitial <= 0 {
		errors = append(errors, "backoff_initial must be positive")
	}
	if cfg.BackoffMax <= cfg.BackoffInitial {
		errors = append(errors, "backoff_max must be greater than backoff_initial")
	}

	// ListObjectsV2 returns at most 1000 keys per page
	if cfg.PageSize <= 0 || cfg.PageSize > 1000 {
		errors = append(errors, "page_size must be between 1 and 1000")
	}

	if cfg.Endpoint != "" {
		if err := validateEndpoint(cfg.Endpoint); err != nil {
			errors = append(errors, fmt.Sprintf("invalid endpoint: %v", err))
		}
	}

	if cfg.RoleARN != "" && !isPlausibleRoleARN(cfg.RoleARN) {
		errors = append(errors, "role_arn looks invalid: must be a valid IAM role ARN (e.g., arn:aws:iam::123456789012:role/RoleName)")
	}

	if len(errors) > 0 {
		return &ValidationError{
			Field:   "config",
			Message: strings.Join(errors, "; "),
		}
	}

	return nil
}

// isPlausibleRoleARN performs a light-weight validation of an IAM role ARN
func isPlausibleRoleARN(arn string) bool {
	// Expected form: arn:partition:service:region:account-id:resource
	parts := strings.SplitN(arn, ":", 6)
	if len(parts) != 6 || parts[0] != "arn" || parts[2] != "iam" {
		return false
	}
	if !isNumeric(parts[4]) {
		return false
	}
	return strings.HasPrefix(parts[5], "role/")
}

// validateBucketName validates S3 bucket naming rules
func validateBucketName(bucket string) error {
	if len(bucket) < 3 || len(bucket) > 63 {
		return fmt.Errorf("bucket name must be between 3 and 63 characters")
	}

	if strings.HasPrefix(bucket, "-") || strings.HasSuffix(bucket, "-") {
		return fmt.Errorf("bucket name cannot start or end with a hyphen")
	}

	if strings.HasPrefix(bucket, ".") || strings.HasSuffix(bucket, ".") {
		return fmt.Errorf("bucket name cannot start or end with a period")
	}

	if strings.Contains(bucket, "..") {
		return fmt.Errorf("bucket name cannot contain consecutive periods")
	}

	for _, char := range bucket {
		if !isValidBucketChar(char) {
			return fmt.Errorf("bucket name contains invalid character: %c", char)
		}
	}

	parts := strings.Split(bucket, ".")
	if len(parts) == 4 {
		allNumeric := true
		for _, part := range parts {
			if !isNumeric(part) {
				allNumeric = false
				break
			}
		}
		if allNumeric {
			return fmt.Errorf("bucket name cannot be formatted as an IP address")
		}
	}

	return nil
}

// isValidBucketChar checks if a character is valid in S3 bucket names
func isValidBucketChar(char rune) bool {
	return (char >= 'a' && char <= 'z') ||
		(char >= '0' && char <= '9') ||
		char == '-' || char == '.'
}

// isNumeric checks if a string contains only digits
func isNumeric(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, char := range s {
		if char < '0' || char > '9' {
			return false
		}
	}
	return true
}

// validateEndpoint validates the endpoint URL format
func validateEndpoint(endpoint string) error {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return fmt.Errorf("endpoint cannot be empty")
	}

	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return nil
	}

	if strings.Contains(endpoint, "://") {
		return fmt.Errorf("endpoint protocol must be http or https")
	}

	if strings.Contains(endpoint, " ") {
		return fmt.Errorf("endpoint cannot contain spaces")
	}

	return nil
}

// validatePrefix rejects prefixes that would escape or duplicate a namespace.
// It expects a sanitized prefix.
func validatePrefix(prefix string) error {
	if strings.HasPrefix(prefix, Separator) {
		return fmt.Errorf("prefix cannot start with %q", Separator)
	}

	for _, segment := range strings.Split(strings.TrimSuffix(prefix, Separator), Separator) {
		if segment == "" {
			return fmt.Errorf("prefix cannot contain consecutive separators")
		}
		if segment == "." || segment == ".." {
			return fmt.Errorf("prefix cannot contain %q segments", segment)
		}
	}

	return nil
}

// Sanitize applies automatic fixes to configuration where possible and returns
// a sanitized copy without mutating the receiver.
func (cfg *Config) Sanitize() *Config {
	if cfg == nil {
		return DefaultConfig()
	}

	sanitized := *cfg
	defaults := DefaultConfig()

	if sanitized.Provider == "" {
		sanitized.Provider = defaults.Provider
	}
	sanitized.Provider = strings.ToLower(strings.TrimSpace(sanitized.Provider))

	if sanitized.Region == "" && sanitized.Endpoint == "" {
		sanitized.Region = defaults.Region
	}

	if sanitized.RequestTimeout == 0 {
		sanitized.RequestTimeout = defaults.RequestTimeout
	}

	if sanitized.MaxRetries == 0 {
		sanitized.MaxRetries = defaults.MaxRetries
	}

	if sanitized.BackoffInitial == 0 {
		sanitized.BackoffInitial = defaults.BackoffInitial
	}

	if sanitized.BackoffMax == 0 {
		sanitized.BackoffMax = defaults.BackoffMax
	}

	if sanitized.PageSize == 0 {
		sanitized.PageSize = defaults.PageSize
	}

	if sanitized.LogLevel == "" {
		sanitized.LogLevel = defaults.LogLevel
	}

	if sanitized.Endpoint != "" {
		sanitized.Endpoint = strings.TrimSpace(sanitized.Endpoint)
		sanitized.Endpoint = strings.TrimSuffix(sanitized.Endpoint, "/")
	}

	sanitized.Bucket = strings.TrimSpace(sanitized.Bucket)
	sanitized.Prefix = NormalizePrefix(sanitized.Prefix)

	return &sanitized
}
