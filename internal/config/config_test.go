package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	assert.Equal(t, 400*time.Millisecond, cfg.Editor.Debounce)
	assert.Equal(t, 30*time.Second, cfg.Execution.Timeout)
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))

	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "talkdeck.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9090"
execution:
  timeout: 5s
editor:
  debounce: 250ms
slides:
  path: ./talk.yaml
  watch: true
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host, "unset keys keep defaults")
	assert.Equal(t, 5*time.Second, cfg.Execution.Timeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Editor.Debounce)
	assert.True(t, cfg.Slides.Watch)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: ["), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("PORT", "3000")
	t.Setenv("DB_PATH", "/tmp/deck.db")
	t.Setenv("EXEC_ENDPOINT", "http://localhost:9000/execute")
	t.Setenv("EXEC_TIMEOUT", "3s")
	t.Setenv("DRAFT_DEBOUNCE", "1s")
	t.Setenv("SLIDES_FILE", "talk.yaml")
	t.Setenv("SLIDES_WATCH", "true")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_DEV", "1")

	cfg := DefaultConfig()
	require.NoError(t, cfg.applyEnvOverrides())

	assert.Equal(t, "127.0.0.1:3000", cfg.Addr())
	assert.Equal(t, "/tmp/deck.db", cfg.Database.Path)
	assert.Equal(t, "http://localhost:9000/execute", cfg.Execution.Endpoint)
	assert.Equal(t, 3*time.Second, cfg.Execution.Timeout)
	assert.Equal(t, time.Second, cfg.Editor.Debounce)
	assert.Equal(t, "talk.yaml", cfg.Slides.Path)
	assert.True(t, cfg.Slides.Watch)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
}

func TestEnvOverrides_InvalidValues(t *testing.T) {
	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("EXEC_TIMEOUT", "soon")
		assert.ErrorContains(t, DefaultConfig().applyEnvOverrides(), "EXEC_TIMEOUT")
	})
	t.Run("bad bool", func(t *testing.T) {
		t.Setenv("TLS_ENABLED", "maybe")
		assert.ErrorContains(t, DefaultConfig().applyEnvOverrides(), "TLS_ENABLED")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		err    string
	}{
		{"port not a number", func(c *Config) { c.Server.Port = "http" }, "invalid port"},
		{"port out of range", func(c *Config) { c.Server.Port = "70000" }, "invalid port"},
		{"tls without files", func(c *Config) { c.TLS.Enabled = true }, "cert_file"},
		{"tls bad version", func(c *Config) {
			c.TLS = TLSConfig{Enabled: true, CertFile: "c", KeyFile: "k", MinVersion: "2.0"}
		}, "invalid TLS min version"},
		{"zero timeout", func(c *Config) { c.Execution.Timeout = 0 }, "execution timeout"},
		{"zero debounce", func(c *Config) { c.Editor.Debounce = 0 }, "draft debounce"},
		{"watch without file", func(c *Config) { c.Slides.Watch = true }, "slides watch"},
		{"no endpoint", func(c *Config) { c.Execution.Endpoint = "" }, "endpoint"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.err)
		})
	}
}

func TestLoadConfig_FromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "talkdeck.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: \"9090\"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DB_PATH=from-dotenv.db\n"), 0o644))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "9191")
	t.Setenv("DB_PATH", "")
	os.Unsetenv("DB_PATH")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9191", cfg.Server.Port, "env beats the file")
	assert.Equal(t, "from-dotenv.db", cfg.Database.Path)
}
