package prefixstore

import (
	"fmt"

	"go.uber.org/zap"
)

// NewLogger creates a logger based on configuration
func NewLogger(cfg *Config) (*zap.Logger, error) {
	if cfg == nil || !cfg.EnableLogging {
		return zap.NewNop(), nil
	}

	config := zap.NewProductionConfig()

	// Development settings for local/MinIO endpoints
	if cfg.Endpoint != "" {
		config = zap.NewDevelopmentConfig()
	}

	if cfg.LogLevel != "" {
		level, err := zap.ParseAtomicLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid log_level %q: %w", cfg.LogLevel, err)
		}
		config.Level = level
	}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return logger.Named("prefixstore"), nil
}
