// Package config loads qassist settings from, in rising precedence: the
// qassist.yaml config file, a .env file, QASSIST_* environment variables and
// command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/roach88/qassist/internal/intent"
)

// EnvPrefix prefixes every environment variable, e.g. QASSIST_DB or
// QASSIST_MATCHER_MIN_SCORE.
const EnvPrefix = "QASSIST"

// Config holds the resolved settings.
type Config struct {
	DB         string        `mapstructure:"db"`
	RulesDir   string        `mapstructure:"rules_dir"`
	SchemaFile string        `mapstructure:"schema_file"`
	Matcher    MatcherConfig `mapstructure:"matcher"`
	Log        LogConfig     `mapstructure:"log"`
	Batch      BatchConfig   `mapstructure:"batch"`
}

// MatcherConfig tunes rule matching.
type MatcherConfig struct {
	MinScore         int    `mapstructure:"min_score"`
	PriorityCategory string `mapstructure:"priority_category"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// BatchConfig tunes the batch command.
type BatchConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// MatchOptions converts the matcher settings.
func (c *Config) MatchOptions() intent.Options {
	return intent.Options{
		MinScore:         c.Matcher.MinScore,
		PriorityCategory: c.Matcher.PriorityCategory,
	}
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	var errs []error
	if c.Matcher.MinScore < 0 {
		errs = append(errs, fmt.Errorf("matcher.min_score must be >= 0, got %d", c.Matcher.MinScore))
	}
	if c.Batch.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("batch.concurrency must be >= 1, got %d", c.Batch.Concurrency))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}
	return errors.Join(errs...)
}

// FlagKeys maps CLI flag names to config keys. Flags that are set override
// every other source.
var FlagKeys = map[string]string{
	"db":         "db",
	"rules":      "rules_dir",
	"schema":     "schema_file",
	"min-score":  "matcher.min_score",
	"log-level":  "log.level",
	"log-format": "log.format",
	"workers":    "batch.concurrency",
}

// Options controls where Load looks.
type Options struct {
	// ConfigFile is an explicit config path. When empty, qassist.yaml is
	// searched for in the working directory and $HOME/.config/qassist.
	ConfigFile string

	// Flags, when non-nil, are bound according to FlagKeys.
	Flags *pflag.FlagSet

	// Fs is the filesystem for config and .env files. Default: the OS.
	Fs afero.Fs
}

// Load resolves the configuration.
//
// A missing config file or .env file is not an error; a malformed one is.
func Load(opts Options) (*Config, error) {
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	if err := loadDotenv(fs, ".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetFs(fs)
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("qassist")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "qassist"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if opts.Flags != nil {
		for name, key := range FlagKeys {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag --%s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db", "")
	v.SetDefault("rules_dir", "")
	v.SetDefault("schema_file", "")
	v.SetDefault("matcher.min_score", 1)
	v.SetDefault("matcher.priority_category", intent.DefaultPriorityCategory)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("batch.concurrency", 4)
}

// loadDotenv exports variables from a .env file without overriding ones
// already set in the environment, matching godotenv.Load.
func loadDotenv(fs afero.Fs, path string) error {
	f, err := fs.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	vars, err := godotenv.Parse(f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	for k, val := range vars {
		if _, set := os.LookupEnv(k); set {
			continue
		}
		if err := os.Setenv(k, val); err != nil {
			return fmt.Errorf("set %s from %s: %w", k, path, err)
		}
	}
	return nil
}
