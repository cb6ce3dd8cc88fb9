package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultLogFilePath = "tracker.csv"
	DefaultLogLevel    = "warn"

	// configName is looked up in the home directory when no file is given.
	configName = ".thesis-time-tracker.yaml"
)

type Config struct {
	LogFilePath string `mapstructure:"log_file_path"`
	LogLevel    string `mapstructure:"log_level"`
}

func DefaultConfig() *Config {
	return &Config{
		LogFilePath: DefaultLogFilePath,
		LogLevel:    DefaultLogLevel,
	}
}

// Loader resolves configuration from defaults, an optional YAML file and command line
// flags, in increasing order of precedence.
type Loader struct {
	configPath string
	flags      *pflag.FlagSet
}

func NewLoader(configPath string, flags *pflag.FlagSet) *Loader {
	return &Loader{configPath: configPath, flags: flags}
}

func (l *Loader) Load() (*Config, error) {
	v := viper.New()
	v.SetDefault("log_file_path", DefaultLogFilePath)
	v.SetDefault("log_level", DefaultLogLevel)

	if l.flags != nil {
		if f := l.flags.Lookup("log-file-path"); f != nil {
			if err := v.BindPFlag("log_file_path", f); err != nil {
				return nil, fmt.Errorf("failed to bind flag: %w", err)
			}
		}
	}

	path, explicit := l.configPath, l.configPath != ""
	if !explicit {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, configName)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			missing := errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
			if explicit || !missing {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.LogFilePath == "" {
		cfg.LogFilePath = DefaultLogFilePath
	}
	return cfg, nil
}
