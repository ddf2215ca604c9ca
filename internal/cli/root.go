// Package cli implements the prefixstore command line tool.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/gostratum/prefixstore"
)

// rootOptions holds the persistent flags shared by every subcommand
type rootOptions struct {
	configFile string
	envFile    string
	v          *viper.Viper
}

// NewRootCmd builds the prefixstore command tree
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{v: viper.New()}

	root := &cobra.Command{
		Use:   "prefixstore",
		Short: "Read and write objects under a key prefix",
		Long: `prefixstore lists, reads and writes objects in an S3 or MinIO bucket,
scoped to a configured key prefix. Names on the command line are relative
to that prefix.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file (default: prefixstore.yaml in . ./config /etc/prefixstore)")
	flags.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	flags.String("provider", prefixstore.ProviderS3, "storage provider (s3 or minio)")
	flags.String("bucket", "", "bucket name")
	flags.String("prefix", "", "key prefix every name is scoped under")
	flags.String("region", "", "bucket region")
	flags.String("endpoint", "", "custom endpoint for S3-compatible services")
	flags.Bool("path-style", false, "use path-style addressing")
	flags.String("log-level", "", "log level (debug, info, warn, error)")

	for flag, key := range map[string]string{
		"provider":   "provider",
		"bucket":     "bucket",
		"prefix":     "prefix",
		"region":     "region",
		"endpoint":   "endpoint",
		"path-style": "use_path_style",
		"log-level":  "log_level",
	} {
		_ = opts.v.BindPFlag(prefixstore.ConfigKey+"."+key, flags.Lookup(flag))
	}

	root.AddCommand(
		newListCmd(opts),
		newCatCmd(opts),
		newPutCmd(opts),
		newHealthCmd(opts),
	)

	return root
}

func (o *rootOptions) load() error {
	if err := prefixstore.LoadDotEnv(o.envFile); err != nil {
		return err
	}

	if o.configFile != "" {
		o.v.SetConfigFile(o.configFile)
		if err := o.v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		return nil
	}

	o.v.SetConfigName("prefixstore")
	o.v.SetConfigType("yaml")
	o.v.AddConfigPath(".")
	o.v.AddConfigPath("./config")
	o.v.AddConfigPath("/etc/prefixstore")
	if err := o.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

// config resolves flags, env and file into a validated Config
func (o *rootOptions) config() (*prefixstore.Config, error) {
	return prefixstore.LoadConfig(o.v)
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		l, logErr := consoleLogger()
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func consoleLogger() (*zap.Logger, error) {
	config := zap.NewDevelopmentConfig()
	config.Encoding = "console"
	config.DisableStacktrace = true
	return config.Build()
}
