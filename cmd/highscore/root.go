package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/okian/highscore/internal/config"
	"github.com/okian/highscore/pkg/logger"
)

const version = "1.0.0"

// Flag names. Each one overrides the config key of the same meaning.
const (
	flagConfig         = "config"
	flagPort           = "port"
	flagAddr           = "addr"
	flagTables         = "tables"
	flagSize           = "size"
	flagSecretRequired = "secret-required"
	flagSalt           = "salt"
	flagDynamicTables  = "dynamic-tables"
	flagStorage        = "storage"
	flagDataDir        = "data-dir"
	flagSQLitePath     = "sqlite-path"
	flagLogLevel       = "log-level"
	flagLogFormat      = "log-format"
)

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "highscore",
		Short:   "Serve ranked highscore tables",
		Long:    "highscore keeps bounded, score-ordered tables and serves them over HTTP.",
		Version: version,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := loadConfig(ctx, cmd.Flags())
			if err != nil {
				return err
			}
			return serve(ctx, cfg)
		},
	}

	fs := cmd.Flags()
	defaults := config.New()
	fs.String(flagConfig, "", "YAML config file (default $"+config.EnvConfigPath+")")
	fs.Int(flagPort, 0, "listen port; keeps the host of --addr")
	fs.String(flagAddr, defaults.Addr, "listen address")
	fs.StringSlice(flagTables, defaults.Tables, "tables to register at startup")
	fs.Int(flagSize, defaults.MaxSize, "maximum entries per table")
	fs.Bool(flagSecretRequired, defaults.SecretRequired, "require a valid secret on every save")
	fs.String(flagSalt, "", "salt used to derive secrets")
	fs.Bool(flagDynamicTables, defaults.DynamicTables, "let saves create unregistered tables")
	fs.String(flagStorage, defaults.Storage, "storage backend: file, sqlite or memory")
	fs.String(flagDataDir, defaults.DataDir, "directory for CSV table files")
	fs.String(flagSQLitePath, defaults.SQLitePath, "sqlite database file")
	fs.String(flagLogLevel, defaults.LogLevel, "log level: debug, info, warn, error")
	fs.String(flagLogFormat, defaults.LogFormat, "log format: text or json")
	return cmd
}

// loadConfig layers flags the user set over the file and environment
// configuration and validates the result.
func loadConfig(ctx context.Context, fs *pflag.FlagSet) (*config.Config, error) {
	path, _ := fs.GetString(flagConfig)
	cfg, err := config.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := applyFlags(cfg, fs); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFlags(cfg *config.Config, fs *pflag.FlagSet) error {
	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case flagAddr:
			cfg.Addr = f.Value.String()
		case flagTables:
			cfg.Tables, err = fs.GetStringSlice(flagTables)
		case flagSize:
			cfg.MaxSize, err = fs.GetInt(flagSize)
		case flagSecretRequired:
			cfg.SecretRequired, err = fs.GetBool(flagSecretRequired)
		case flagSalt:
			cfg.Salt = f.Value.String()
		case flagDynamicTables:
			cfg.DynamicTables, err = fs.GetBool(flagDynamicTables)
		case flagStorage:
			cfg.Storage = strings.ToLower(f.Value.String())
		case flagDataDir:
			cfg.DataDir = f.Value.String()
		case flagSQLitePath:
			cfg.SQLitePath = f.Value.String()
		case flagLogLevel:
			cfg.LogLevel = f.Value.String()
		case flagLogFormat:
			cfg.LogFormat = f.Value.String()
		}
	})
	if err != nil {
		return fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}
	// --port is applied last so it composes with --addr.
	if fs.Changed(flagPort) {
		port, _ := fs.GetInt(flagPort)
		if port < 1 || port > 65535 {
			return fmt.Errorf("%w: port %d out of range", config.ErrInvalidConfig, port)
		}
		cfg.SetPort(port)
	}
	return nil
}

func initLogger(cfg *config.Config) (logger.Logger, error) {
	if err := logger.InitWithOptions(
		logger.WithFormat(cfg.LogFormat),
		logger.WithLevel(cfg.LogLevel),
		logger.WithWriter(os.Stderr),
	); err != nil {
		return nil, err
	}
	return logger.Get(), nil
}
