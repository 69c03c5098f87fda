// Package config loads atelier settings from defaults, an optional config
// file, ATELIER_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override, e.g.
// ATELIER_BLACKBOX_URL.
const EnvPrefix = "ATELIER"

// Defaults.
const (
	DefaultBlackboxURL    = "http://98.71.171.3:8002"
	DefaultSubmitURL      = "http://127.0.0.1:8003"
	DefaultListenAddr     = "127.0.0.1:8003"
	DefaultRequestTimeout = 2 * time.Minute
	DefaultLogLevel       = "info"
)

// Config is the effective configuration.
type Config struct {
	BlackboxURL    string        `mapstructure:"blackbox_url" yaml:"blackbox_url" validate:"required,url"`
	SubmitURL      string        `mapstructure:"submit_url" yaml:"submit_url" validate:"required,url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	LogLevel       string        `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFile        string        `mapstructure:"log_file" yaml:"log_file"`
	ListenAddr     string        `mapstructure:"listen_addr" yaml:"listen_addr" validate:"required"`
	DBPath         string        `mapstructure:"db_path" yaml:"db_path" validate:"required"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-" yaml:"-"`
}

// FlagKeys maps command-line flag names to config keys.
var FlagKeys = map[string]string{
	"blackbox-url": "blackbox_url",
	"submit-url":   "submit_url",
	"timeout":      "request_timeout",
	"log-level":    "log_level",
	"log-file":     "log_file",
	"addr":         "listen_addr",
	"db":           "db_path",
}

// Dir returns the directory holding the config file, log file and the
// default database.
func Dir() string {
	if dir := os.Getenv(EnvPrefix + "_HOME"); dir != "" {
		return dir
	}
	base, err := os.UserConfigDir()
	if err != nil {
		base = "."
	}
	return filepath.Join(base, "atelier")
}

func setDefaults(v *viper.Viper, dir string) {
	v.SetDefault("blackbox_url", DefaultBlackboxURL)
	v.SetDefault("submit_url", DefaultSubmitURL)
	v.SetDefault("request_timeout", DefaultRequestTimeout)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("log_file", filepath.Join(dir, "atelier.log"))
	v.SetDefault("listen_addr", DefaultListenAddr)
	v.SetDefault("db_path", filepath.Join(dir, "atelier.db"))
}

// Load builds the effective config. configFile may be empty, in which case
// config.{yaml,json} is looked up in Dir(); a missing file is not an
// error. flags may be nil; only flags the user changed override lower
// layers.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	dir := Dir()
	v := viper.New()
	setDefaults(v, dir)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(dir)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if flags != nil {
		for name, key := range FlagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			problems := make([]string, len(verrs))
			for i, fe := range verrs {
				problems[i] = fmt.Sprintf("%s: failed %s %s", fe.Field(), fe.Tag(), fe.Param())
				problems[i] = strings.TrimSpace(problems[i])
			}
			return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// YAML renders the config as YAML.
func (c *Config) YAML() (string, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return string(out), nil
}

// Save writes the config as YAML to path, creating parent directories.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := cfg.YAML()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(data), 0644)
}
