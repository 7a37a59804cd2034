package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"talkdeck/internal/execution"
	"talkdeck/internal/storage"
)

// Config holds all configuration for the deck server
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	TLS       TLSConfig       `yaml:"tls"`
	Database  DatabaseConfig  `yaml:"database"`
	Execution ExecutionConfig `yaml:"execution"`
	Editor    EditorConfig    `yaml:"editor"`
	Slides    SlidesConfig    `yaml:"slides"`
	Logging   LoggingConfig   `yaml:"logging"`
	Sessions  SessionsConfig  `yaml:"sessions"`
}

// ServerConfig holds the listen address
type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

// TLSConfig holds HTTPS settings
type TLSConfig struct {
	Enabled    bool   `yaml:"enabled"`
	CertFile   string `yaml:"cert_file"`
	KeyFile    string `yaml:"key_file"`
	MinVersion string `yaml:"min_version"`
}

// DatabaseConfig holds the SQLite location
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ExecutionConfig configures the remote code runner
type ExecutionConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`
}

// EditorConfig configures draft persistence
type EditorConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// SlidesConfig selects the slide content. An empty path uses the embedded talk.
type SlidesConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// LoggingConfig configures zap
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// SessionsConfig controls how long idle browser sessions keep their editor state
type SessionsConfig struct {
	Retention     time.Duration `yaml:"retention"`
	PurgeInterval time.Duration `yaml:"purge_interval"`
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: "8080",
		},
		TLS: TLSConfig{
			MinVersion: "1.2",
		},
		Database: DatabaseConfig{
			Path: "./data/talkdeck.db",
		},
		Execution: ExecutionConfig{
			Endpoint: execution.DefaultEndpoint,
			Timeout:  execution.DefaultTimeout,
		},
		Editor: EditorConfig{
			Debounce: storage.DefaultDebounce,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Sessions: SessionsConfig{
			Retention:     30 * 24 * time.Hour,
			PurgeInterval: time.Hour,
		},
	}
}

// LoadConfig builds the configuration from defaults, an optional YAML file
// named by CONFIG_FILE, a .env file and the environment, then validates it.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := DefaultConfig()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		loaded, err := Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads a YAML config file over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}

	if v := os.Getenv("TLS_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid TLS_ENABLED %q: %w", v, err)
		}
		c.TLS.Enabled = enabled
	}
	if v := os.Getenv("TLS_CERT_FILE"); v != "" {
		c.TLS.CertFile = v
	}
	if v := os.Getenv("TLS_KEY_FILE"); v != "" {
		c.TLS.KeyFile = v
	}
	if v := os.Getenv("TLS_MIN_VERSION"); v != "" {
		c.TLS.MinVersion = v
	}

	if v := os.Getenv("DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("EXEC_ENDPOINT"); v != "" {
		c.Execution.Endpoint = v
	}

	durations := []struct {
		env string
		dst *time.Duration
	}{
		{"EXEC_TIMEOUT", &c.Execution.Timeout},
		{"DRAFT_DEBOUNCE", &c.Editor.Debounce},
		{"SESSION_RETENTION", &c.Sessions.Retention},
	}
	for _, d := range durations {
		v := os.Getenv(d.env)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", d.env, v, err)
		}
		*d.dst = parsed
	}

	if v := os.Getenv("SLIDES_FILE"); v != "" {
		c.Slides.Path = v
	}
	if v := os.Getenv("SLIDES_WATCH"); v != "" {
		watch, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid SLIDES_WATCH %q: %w", v, err)
		}
		c.Slides.Watch = watch
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("LOG_DEV"); v != "" {
		dev, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid LOG_DEV %q: %w", v, err)
		}
		c.Logging.Development = dev
	}
	return nil
}

// TLSVersions lists the accepted TLS minimum versions
var TLSVersions = []string{"1.0", "1.1", "1.2", "1.3"}

// Validate validates the configuration
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.Server.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid port: %q", c.Server.Port)
	}

	if c.TLS.Enabled {
		if c.TLS.CertFile == "" || c.TLS.KeyFile == "" {
			return errors.New("TLS is enabled but cert_file or key_file is missing")
		}
		valid := false
		for _, v := range TLSVersions {
			if c.TLS.MinVersion == v {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("invalid TLS min version: %s (valid: %v)", c.TLS.MinVersion, TLSVersions)
		}
	}

	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	if c.Execution.Endpoint == "" {
		return errors.New("execution endpoint is required")
	}
	if c.Execution.Timeout <= 0 {
		return fmt.Errorf("execution timeout must be positive, got %s", c.Execution.Timeout)
	}
	if c.Editor.Debounce <= 0 {
		return fmt.Errorf("draft debounce must be positive, got %s", c.Editor.Debounce)
	}
	if c.Slides.Watch && c.Slides.Path == "" {
		return errors.New("slides watch requires a slides file")
	}
	if c.Sessions.Retention < 0 || c.Sessions.PurgeInterval < 0 {
		return errors.New("session retention and purge interval must not be negative")
	}
	return nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}
