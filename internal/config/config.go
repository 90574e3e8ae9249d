// Package config loads the jobcache CLI configuration from a YAML file,
// JOBCACHE_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/meigma/jobcache"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "JOBCACHE"

// Plain HTTP modes.
const (
	PlainHTTPAuto  = "auto"
	PlainHTTPTrue  = "true"
	PlainHTTPFalse = "false"
)

// ErrInvalid is returned when the loaded configuration cannot be used.
var ErrInvalid = errors.New("config: invalid")

// Config is the CLI configuration.
type Config struct {
	Registry RegistryConfig `mapstructure:"registry"`
	Log      LogConfig      `mapstructure:"log"`
}

// RegistryConfig describes the registry backing the cache.
type RegistryConfig struct {
	URL       string `mapstructure:"url"`
	Namespace string `mapstructure:"namespace"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`

	// PlainHTTP is "auto", "true" or "false". Auto derives the transport
	// from the URL scheme and whether credentials or DockerConfig are set.
	PlainHTTP string `mapstructure:"plain_http"`

	// DockerConfig reads credentials from ~/.docker/config.json when no
	// username is configured.
	DockerConfig bool `mapstructure:"docker_config"`

	// IconFile overrides the embedded artifact icon.
	IconFile string `mapstructure:"icon_file"`
}

// LogConfig controls CLI logging.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// flagKeys maps CLI flag names to configuration keys.
var flagKeys = map[string]string{
	"registry":      "registry.url",
	"namespace":     "registry.namespace",
	"username":      "registry.username",
	"password":      "registry.password",
	"plain-http":    "registry.plain_http",
	"docker-config": "registry.docker_config",
	"icon-file":     "registry.icon_file",
	"log-level":     "log.level",
}

// Load reads the configuration.
//
// Precedence, highest first: flags that were set, JOBCACHE_* environment
// variables (JOBCACHE_REGISTRY_URL, ...), the file at path, defaults.
// An empty path skips the file. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("registry.url", "")
	v.SetDefault("registry.namespace", "")
	v.SetDefault("registry.username", "")
	v.SetDefault("registry.password", "")
	v.SetDefault("registry.plain_http", PlainHTTPAuto)
	v.SetDefault("registry.docker_config", false)
	v.SetDefault("registry.icon_file", "")
	v.SetDefault("log.level", "info")
}

func (c *Config) normalize() {
	c.Registry.URL = strings.TrimSpace(c.Registry.URL)
	c.Registry.Namespace = strings.Trim(strings.TrimSpace(c.Registry.Namespace), "/")
	// Unquoted YAML booleans arrive weakly decoded as "1" or "0".
	switch mode := strings.ToLower(strings.TrimSpace(c.Registry.PlainHTTP)); mode {
	case "":
		c.Registry.PlainHTTP = PlainHTTPAuto
	case "1":
		c.Registry.PlainHTTP = PlainHTTPTrue
	case "0":
		c.Registry.PlainHTTP = PlainHTTPFalse
	default:
		c.Registry.PlainHTTP = mode
	}
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
}

// Validate checks that the configuration is complete.
func (c *Config) Validate() error {
	if c.Registry.URL == "" {
		return fmt.Errorf("%w: registry.url is required", ErrInvalid)
	}
	if c.Registry.Password != "" && c.Registry.Username == "" {
		return fmt.Errorf("%w: registry.password set without registry.username", ErrInvalid)
	}
	if !slices.Contains([]string{PlainHTTPAuto, PlainHTTPTrue, PlainHTTPFalse}, c.Registry.PlainHTTP) {
		return fmt.Errorf("%w: registry.plain_http must be auto, true or false, got %q", ErrInvalid, c.Registry.PlainHTTP)
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.Log.Level) {
		return fmt.Errorf("%w: log.level must be debug, info, warn or error, got %q", ErrInvalid, c.Log.Level)
	}
	return nil
}

// ClientOptions translates the registry settings into client options.
func (c *Config) ClientOptions(logger *slog.Logger) []jobcache.Option {
	r := c.Registry
	opts := []jobcache.Option{jobcache.WithNamespace(r.Namespace)}
	if r.Username != "" {
		opts = append(opts, jobcache.WithCredentials(r.Username, r.Password))
	}
	if r.DockerConfig {
		opts = append(opts, jobcache.WithDockerConfig())
	}
	switch r.PlainHTTP {
	case PlainHTTPTrue:
		opts = append(opts, jobcache.WithPlainHTTP(true))
	case PlainHTTPFalse:
		opts = append(opts, jobcache.WithPlainHTTP(false))
	}
	if r.IconFile != "" {
		opts = append(opts, jobcache.WithIconFile(r.IconFile))
	}
	if logger != nil {
		opts = append(opts, jobcache.WithLogger(logger))
	}
	return opts
}

// NewClient creates a cache client from the configuration.
func (c *Config) NewClient(logger *slog.Logger) (*jobcache.Client, error) {
	return jobcache.NewClient(c.Registry.URL, c.ClientOptions(logger)...)
}
