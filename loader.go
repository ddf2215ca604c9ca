package prefixstore

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ConfigKey is the root key of the storage section in config files
const ConfigKey = "prefixstore"

// EnvPrefix is prepended to every environment variable (PREFIXSTORE_BUCKET, ...)
const EnvPrefix = "PREFIXSTORE"

// LoadDotEnv loads a .env file into the process environment. A missing file
// is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// LoadConfig reads the storage section from v, then sanitizes and validates it
func LoadConfig(v *viper.Viper) (*Config, error) {
	if v == nil {
		v = NewViper()
	}

	setDefaults(v)
	bindEnvVars(v)

	// Unmarshal resolves every key through Get, so env bindings apply
	var root struct {
		Storage Config `mapstructure:"prefixstore"`
	}
	root.Storage = *DefaultConfig()
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg := root.Storage.Sanitize()
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// NewViper returns a viper instance looking for prefixstore.yaml in the usual
// places. A missing config file is not an error.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("prefixstore")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/prefixstore")
	v.AddConfigPath("$HOME/.config/prefixstore")

	_ = v.ReadInConfig()
	return v
}

// setDefaults registers every key so AutomaticEnv can resolve it
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	defaults := map[string]any{
		"provider":          d.Provider,
		"bucket":            "",
		"prefix":            "",
		"region":            d.Region,
		"endpoint":          "",
		"use_path_style":    d.UsePathStyle,
		"access_key":        "",
		"secret_key":        "",
		"session_token":     "",
		"use_sdk_defaults":  false,
		"profile":           "",
		"role_arn":          "",
		"external_id":       "",
		"request_timeout":   d.RequestTimeout.String(),
		"max_retries":       d.MaxRetries,
		"backoff_initial":   d.BackoffInitial.String(),
		"backoff_max":       d.BackoffMax.String(),
		"page_size":         d.PageSize,
		"disable_ssl":       d.DisableSSL,
		"skip_bucket_check": false,
		"enable_logging":    d.EnableLogging,
		"log_level":         d.LogLevel,
	}

	for key, value := range defaults {
		v.SetDefault(ConfigKey+"."+key, value)
	}
}

// bindEnvVars maps prefixstore.bucket to PREFIXSTORE_BUCKET and so on
func bindEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		if !strings.HasPrefix(key, ConfigKey+".") {
			continue
		}
		env := EnvPrefix + "_" + strings.ToUpper(strings.TrimPrefix(key, ConfigKey+"."))
		_ = v.BindEnv(key, env)
	}
}
