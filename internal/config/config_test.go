package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(LoadOptions{Env: map[string]string{}})
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8000", cfg.Addr())
	assert.Equal(t, "/api", cfg.Server.APIPrefix)
	assert.Equal(t, "sqlite:///./app.db", cfg.Database.URL)
	assert.Equal(t, "per-worker", cfg.Database.ConnPolicy)
	assert.Equal(t, 4, cfg.Database.Workers)
	assert.Equal(t, "dev-secret-key-change-in-production", cfg.SecretKey)
	assert.False(t, cfg.Debug)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Parallel()

	cfg, err := Load(LoadOptions{Env: map[string]string{
		"HOST":             "127.0.0.1",
		"PORT":             "9090",
		"DATABASE_URL":     "sqlite:////var/lib/items.db",
		"SECRET_KEY":       "s3cret",
		"DEBUG":            "true",
		"API_PREFIX":       "/v1/",
		"DB_CONN_POLICY":   "Per-Request",
		"DB_WORKERS":       "8",
		"METRICS_ENABLED":  "false",
		"SHUTDOWN_TIMEOUT": "3s",
		"LOG_FORMAT":       "JSON",
	}})
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9090", cfg.Addr())
	assert.Equal(t, "sqlite:////var/lib/items.db", cfg.Database.URL)
	assert.Equal(t, "s3cret", cfg.SecretKey)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "debug", cfg.Logging.Level, "DEBUG forces debug logging")
	assert.Equal(t, "/v1", cfg.Server.APIPrefix)
	assert.Equal(t, "per-request", cfg.Database.ConnPolicy)
	assert.Equal(t, 8, cfg.Database.Workers)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadRejectsMalformedEnv(t *testing.T) {
	t.Parallel()

	for key, value := range map[string]string{
		"PORT":             "eighty",
		"DEBUG":            "sometimes",
		"DB_WORKERS":       "many",
		"SHUTDOWN_TIMEOUT": "soon",
		"DB_CONN_POLICY":   "thread-local",
		"LOG_FORMAT":       "xml",
	} {
		_, err := Load(LoadOptions{Env: map[string]string{key: value}})
		assert.ErrorIs(t, err, ErrInvalidConfig, key)
	}
}

func TestLoadPrecedenceFlagOverEnvOverFile(t *testing.T) {
	t.Parallel()

	cfgPath := writeFile(t, "config.yaml", `
server:
  host: filehost
  port: 7000
  shutdown_timeout: 30s
database:
  url: ${DB_FROM_ENV}
  workers: 2
logging:
  level: warn
`)

	port := 6000
	cfg, err := Load(LoadOptions{
		ConfigPath: cfgPath,
		Env: map[string]string{
			"HOST":        "envhost",
			"PORT":        "7500",
			"DB_FROM_ENV": "sqlite:///expanded.db",
		},
		Flags: FlagOverrides{Port: &port},
	})
	require.NoError(t, err)

	assert.Equal(t, "envhost", cfg.Server.Host, "env beats file")
	assert.Equal(t, 6000, cfg.Server.Port, "flag beats env")
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "sqlite:///expanded.db", cfg.Database.URL)
	assert.Equal(t, 2, cfg.Database.Workers)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "/api", cfg.Server.APIPrefix, "untouched defaults survive the file")
}

func TestLoadConfigFileFromEnv(t *testing.T) {
	t.Parallel()

	cfgPath := writeFile(t, "config.yaml", "app:\n  project_name: From File\n")
	cfg, err := Load(LoadOptions{Env: map[string]string{"CONFIG_FILE": cfgPath}})
	require.NoError(t, err)
	assert.Equal(t, "From File", cfg.App.ProjectName)
}

func TestLoadMissingOrBadConfigFile(t *testing.T) {
	t.Parallel()

	_, err := Load(LoadOptions{ConfigPath: filepath.Join(t.TempDir(), "nope.yaml"), Env: map[string]string{}})
	assert.Error(t, err)

	bad := writeFile(t, "bad.yaml", "server: [unclosed")
	_, err = Load(LoadOptions{ConfigPath: bad, Env: map[string]string{}})
	assert.Error(t, err)
}

func TestLoadDotEnvFillsOnlyUnset(t *testing.T) {
	t.Parallel()

	envFile := writeFile(t, ".env", "PORT=9001\nSECRET_KEY=from-dotenv\n")
	missing := filepath.Join(t.TempDir(), ".env.local")

	cfg, err := Load(LoadOptions{
		EnvFiles: []string{missing, envFile},
		Env:      map[string]string{"PORT": "9002"},
	})
	require.NoError(t, err)
	assert.Equal(t, 9002, cfg.Server.Port)
	assert.Equal(t, "from-dotenv", cfg.SecretKey)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	mutate := map[string]func(*Config){
		"port zero":        func(c *Config) { c.Server.Port = 0 },
		"port too big":     func(c *Config) { c.Server.Port = 70000 },
		"relative prefix":  func(c *Config) { c.Server.APIPrefix = "api" },
		"no database":      func(c *Config) { c.Database.URL = " " },
		"zero workers":     func(c *Config) { c.Database.Workers = 0 },
		"zero shutdown":    func(c *Config) { c.Server.ShutdownTimeout = 0 },
		"unknown policy":   func(c *Config) { c.Database.ConnPolicy = "pooled" },
		"unknown log type": func(c *Config) { c.Logging.Format = "xml" },
	}
	for name, fn := range mutate {
		cfg := DefaultConfig()
		fn(&cfg)
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig, name)
	}

	cfg := DefaultConfig()
	cfg.Server.APIPrefix = ""
	assert.NoError(t, cfg.Validate(), "empty prefix mounts items at the root")
}

func TestLogValueRedactsSecret(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.SecretKey = "hunter2"

	var buf bytes.Buffer
	slog.New(slog.NewTextHandler(&buf, nil)).Info("config", "config", cfg)

	assert.NotContains(t, buf.String(), "hunter2")
	assert.Contains(t, buf.String(), "[redacted]")
}
