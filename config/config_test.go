package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zombar/seoaudit/db"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, db.DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "seoaudit.db", cfg.Database.DSN)
	assert.Equal(t, 1, cfg.Batch.Workers)
	assert.Equal(t, 10, cfg.Batch.ChunkSize)
	assert.True(t, cfg.Augment.Enabled)
	assert.True(t, cfg.Augment.QualityGate)
	assert.Equal(t, 1000, cfg.Augment.TargetWords)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := writeFile(t, "seoaudit.yml", `
database:
  driver: postgres
  dsn: postgres://seo@localhost/seo?sslmode=disable
  query_timeout: 5s
augment:
  enabled: false
  target_words: 800
batch:
  workers: 4
  write_xlsx: true
server:
  schedule: "@hourly"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, db.DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 5*time.Second, cfg.Database.QueryTimeout)
	assert.False(t, cfg.Augment.Enabled)
	assert.True(t, cfg.Augment.QualityGate, "keys absent from the file keep their defaults")
	assert.Equal(t, 800, cfg.Augment.TargetWords)
	assert.Equal(t, 4, cfg.Batch.Workers)
	assert.Equal(t, 10, cfg.Batch.ChunkSize)
	assert.True(t, cfg.Batch.WriteXLSX)
	assert.Equal(t, "@hourly", cfg.Server.Schedule)
	assert.Equal(t, "https://yourdomain.com", cfg.Site.BaseURL)
}

func TestLoadEnvironmentWinsOverFile(t *testing.T) {
	path := writeFile(t, "seoaudit.yml", "ollama:\n  model: from-file\n")

	t.Setenv("OLLAMA_MODEL", "from-env")
	t.Setenv("OLLAMA_TIMEOUT", "45s")
	t.Setenv("OLLAMA_RATE_LIMIT_RPS", "2.5")
	t.Setenv("BATCH_WORKERS", "3")
	t.Setenv("BATCH_WRITE_HTML", "no")
	t.Setenv("LOG_OUTPUT_PATHS", "stdout, /tmp/seoaudit.log")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Ollama.Model)
	assert.Equal(t, 45*time.Second, cfg.Ollama.Timeout)
	assert.InDelta(t, 2.5, cfg.Ollama.RateLimitRPS, 1e-9)
	assert.Equal(t, 3, cfg.Batch.Workers)
	assert.False(t, cfg.Batch.WriteHTML)
	assert.Equal(t, []string{"stdout", "/tmp/seoaudit.log"}, cfg.Logging.OutputPaths)
}

func TestLoadEnvFile(t *testing.T) {
	envFile := writeFile(t, "custom.env", "SITE_BASE_URL=https://blog.example.org\nSERVER_ADDR=:9090\n")
	t.Setenv("ENV_FILE", envFile)
	t.Cleanup(func() {
		os.Unsetenv("SITE_BASE_URL")
		os.Unsetenv("SERVER_ADDR")
	})

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://blog.example.org", cfg.Site.BaseURL)
	assert.Equal(t, ":9090", cfg.Server.Addr)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "malformed yaml", yaml: "database: [unclosed"},
		{name: "unknown driver", yaml: "database:\n  driver: oracle\n"},
		{name: "zero workers", yaml: "batch:\n  workers: 0\n"},
		{name: "negative chunk size", yaml: "batch:\n  chunk_size: -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "bad.yml", tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadInvalidEnvValueKeepsCurrent(t *testing.T) {
	t.Setenv("BATCH_CHUNK_SIZE", "many")
	t.Setenv("DATABASE_QUERY_TIMEOUT", "soon")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Batch.ChunkSize)
	assert.Equal(t, db.DefaultQueryTimeout, cfg.Database.QueryTimeout)
}

func TestPath(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		setEnv   bool
		want     string
	}{
		{name: "environment variable set", envValue: "/etc/seoaudit.yml", setEnv: true, want: "/etc/seoaudit.yml"},
		{name: "environment variable not set", want: DefaultPath},
		{name: "environment variable set to empty string", envValue: "", setEnv: true, want: DefaultPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Unsetenv("CONFIG_PATH")
			if tt.setEnv {
				t.Setenv("CONFIG_PATH", tt.envValue)
			}

			if got := Path(DefaultPath); got != tt.want {
				t.Errorf("Path(%q) = %q, want %q", DefaultPath, got, tt.want)
			}
		})
	}
}

func TestParseBool(t *testing.T) {
	for _, s := range []string{"true", "TRUE", "1", " yes "} {
		assert.True(t, parseBool(s), s)
	}
	for _, s := range []string{"false", "0", "no", "off", ""} {
		assert.False(t, parseBool(s), s)
	}
}
