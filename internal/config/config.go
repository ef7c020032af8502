// Package config loads the backend configuration.
//
// Values are layered, later layers winning:
//
//	defaults < YAML file (CONFIG_FILE) < environment (.env fills unset vars) < CLI flags
//
// The result is a plain Config value built once at startup and passed to
// every component that needs it.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultHost            = "0.0.0.0"
	defaultPort            = 8000
	defaultAPIPrefix       = "/api"
	defaultDatabaseURL     = "sqlite:///./app.db"
	defaultSecretKey       = "dev-secret-key-change-in-production"
	defaultConnPolicy      = "per-worker"
	defaultWorkers         = 4
	defaultLogLevel        = "info"
	defaultLogFormat       = "text"
	defaultShutdownTimeout = 10 * time.Second
	defaultProjectName     = "Items Backend"
	defaultVersion         = "1.0.0"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config represents the complete backend configuration.
type Config struct {
	App      AppConfig      `yaml:"app"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`

	// SecretKey is not used by any handler yet. It is never logged.
	SecretKey string `yaml:"secret_key"`
	// Debug turns on debug logging with source locations.
	Debug bool `yaml:"debug"`
}

// AppConfig describes the service to clients.
type AppConfig struct {
	ProjectName string `yaml:"project_name"`
	Version     string `yaml:"version"`
}

// ServerConfig holds listener configuration.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	APIPrefix       string        `yaml:"api_prefix"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig holds store configuration.
type DatabaseConfig struct {
	URL        string `yaml:"url"`
	ConnPolicy string `yaml:"conn_policy"`
	Workers    int    `yaml:"workers"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`
	File      string `yaml:"file"`
	MaxSizeMB int    `yaml:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files"`
}

// MetricsConfig holds metrics endpoint configuration.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LoadOptions says where configuration comes from.
type LoadOptions struct {
	// ConfigPath is an optional YAML file. When empty, CONFIG_FILE is consulted.
	ConfigPath string
	// EnvFiles are dotenv files read in order; they only fill variables that
	// are not already set. Missing files are skipped.
	EnvFiles []string
	// Env replaces the process environment when non-nil.
	Env map[string]string
	// Flags are command-line overrides.
	Flags FlagOverrides
}

// FlagOverrides holds values set explicitly on the command line.
type FlagOverrides struct {
	Host        *string
	Port        *int
	DatabaseURL *string
	Debug       *bool
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		App: AppConfig{
			ProjectName: defaultProjectName,
			Version:     defaultVersion,
		},
		Server: ServerConfig{
			Host:            defaultHost,
			Port:            defaultPort,
			APIPrefix:       defaultAPIPrefix,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Database: DatabaseConfig{
			URL:        defaultDatabaseURL,
			ConnPolicy: defaultConnPolicy,
			Workers:    defaultWorkers,
		},
		Logging: LoggingConfig{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		SecretKey: defaultSecretKey,
	}
}

// Load builds a Config from defaults, file, environment and flags.
func Load(opts LoadOptions) (Config, error) {
	cfg := DefaultConfig()

	env, err := environment(opts)
	if err != nil {
		return Config{}, err
	}

	path := opts.ConfigPath
	if path == "" {
		path = env["CONFIG_FILE"]
	}
	if path != "" {
		if err := loadFile(path, env, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg, env); err != nil {
		return Config{}, err
	}
	applyFlags(&cfg, opts.Flags)
	finalize(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// environment merges the process (or injected) environment with dotenv files.
func environment(opts LoadOptions) (map[string]string, error) {
	env := make(map[string]string)
	if opts.Env != nil {
		for k, v := range opts.Env {
			env[k] = v
		}
	} else {
		for _, kv := range os.Environ() {
			if k, v, ok := strings.Cut(kv, "="); ok {
				env[k] = v
			}
		}
	}

	for _, file := range opts.EnvFiles {
		values, err := godotenv.Read(file)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading env file %s: %w", file, err)
		}
		for k, v := range values {
			if _, set := env[k]; !set {
				env[k] = v
			}
		}
	}
	return env, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// loadFile overlays a YAML file onto cfg. ${VAR} references in the file are
// expanded from env; unset variables expand to "".
func loadFile(path string, env map[string]string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	expanded := envVarPattern.ReplaceAllStringFunc(string(data), func(match string) string {
		return env[envVarPattern.FindStringSubmatch(match)[1]]
	})

	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config, env map[string]string) error {
	str := func(key string, dst *string) {
		if v, ok := env[key]; ok && v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) error {
		v, ok := env[key]
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, key, v)
		}
		*dst = n
		return nil
	}
	boolean := func(key string, dst *bool) error {
		v, ok := env[key]
		if !ok || v == "" {
			return nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalidConfig, key, v)
		}
		*dst = b
		return nil
	}

	str("PROJECT_NAME", &cfg.App.ProjectName)
	str("HOST", &cfg.Server.Host)
	str("API_PREFIX", &cfg.Server.APIPrefix)
	str("DATABASE_URL", &cfg.Database.URL)
	str("DB_CONN_POLICY", &cfg.Database.ConnPolicy)
	str("SECRET_KEY", &cfg.SecretKey)
	str("LOG_LEVEL", &cfg.Logging.Level)
	str("LOG_FORMAT", &cfg.Logging.Format)
	str("LOG_FILE", &cfg.Logging.File)

	if v, ok := env["SHUTDOWN_TIMEOUT"]; ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: SHUTDOWN_TIMEOUT=%q: %v", ErrInvalidConfig, v, err)
		}
		cfg.Server.ShutdownTimeout = d
	}

	return errors.Join(
		integer("PORT", &cfg.Server.Port),
		integer("DB_WORKERS", &cfg.Database.Workers),
		boolean("DEBUG", &cfg.Debug),
		boolean("METRICS_ENABLED", &cfg.Metrics.Enabled),
	)
}

func applyFlags(cfg *Config, flags FlagOverrides) {
	if flags.Host != nil {
		cfg.Server.Host = *flags.Host
	}
	if flags.Port != nil {
		cfg.Server.Port = *flags.Port
	}
	if flags.DatabaseURL != nil {
		cfg.Database.URL = *flags.DatabaseURL
	}
	if flags.Debug != nil {
		cfg.Debug = *flags.Debug
	}
}

// finalize normalizes derived values once every layer has been applied.
func finalize(cfg *Config) {
	cfg.Server.APIPrefix = strings.TrimRight(strings.TrimSpace(cfg.Server.APIPrefix), "/")
	cfg.Database.ConnPolicy = strings.ToLower(strings.TrimSpace(cfg.Database.ConnPolicy))
	cfg.Logging.Format = strings.ToLower(strings.TrimSpace(cfg.Logging.Format))
	if cfg.Debug {
		cfg.Logging.Level = "debug"
	}
}

// Validate checks that all configuration fields are usable.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	if c.Server.APIPrefix != "" && !strings.HasPrefix(c.Server.APIPrefix, "/") {
		return fmt.Errorf("%w: api prefix %q must start with /", ErrInvalidConfig, c.Server.APIPrefix)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: shutdown timeout must be positive", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.Database.URL) == "" {
		return fmt.Errorf("%w: database url is required", ErrInvalidConfig)
	}
	switch c.Database.ConnPolicy {
	case "per-request", "per-worker":
	default:
		return fmt.Errorf("%w: unknown connection policy %q", ErrInvalidConfig, c.Database.ConnPolicy)
	}
	if c.Database.Workers < 1 {
		return fmt.Errorf("%w: database workers must be at least 1", ErrInvalidConfig)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.Logging.Format)
	}
	return nil
}

// Addr is the host:port the server listens on.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// LogValue renders the config for logs with the secret redacted.
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("addr", c.Addr()),
		slog.String("api_prefix", c.Server.APIPrefix),
		slog.String("database_url", c.Database.URL),
		slog.String("conn_policy", c.Database.ConnPolicy),
		slog.Int("workers", c.Database.Workers),
		slog.Bool("debug", c.Debug),
		slog.Bool("metrics", c.Metrics.Enabled),
		slog.String("secret_key", "[redacted]"),
	)
}
