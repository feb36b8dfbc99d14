package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// ConfigPathEnv names the variable holding an optional YAML config file.
const ConfigPathEnv = "BIDSYNC_CONFIG_PATH"

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Storage   StorageConfig   `yaml:"storage"`
	Source    SourceConfig    `yaml:"source"`
	Broadcast BroadcastConfig `yaml:"broadcast"`
}

type ServerConfig struct {
	Host string `yaml:"host" env:"BIDSYNC_SERVER_HOST"`
	Port int    `yaml:"port" env:"BIDSYNC_SERVER_PORT"`
	// Transport is "stdio" or "http".
	Transport string `yaml:"transport" env:"BIDSYNC_TRANSPORT"`
}

type DBConfig struct {
	Path string `yaml:"path" env:"BIDSYNC_DB_PATH"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"BIDSYNC_LOG_LEVEL"`
	Format string `yaml:"format" env:"BIDSYNC_LOG_FORMAT"`
	// Path sends logs to a rotated file instead of stderr.
	Path       string `yaml:"path" env:"BIDSYNC_LOG_PATH"`
	MaxSizeMB  int    `yaml:"max_size_mb" env:"BIDSYNC_LOG_MAX_SIZE_MB"`
	MaxBackups int    `yaml:"max_backups" env:"BIDSYNC_LOG_MAX_BACKUPS"`
	MaxAgeDays int    `yaml:"max_age_days" env:"BIDSYNC_LOG_MAX_AGE_DAYS"`
}

// StorageConfig selects the storage origin shared by tabs. "sqlite" persists
// to DB.Path and works across processes; "memory" lives as long as the process.
type StorageConfig struct {
	Backend       string        `yaml:"backend" env:"BIDSYNC_STORAGE_BACKEND"`
	PollInterval  time.Duration `yaml:"poll_interval" env:"BIDSYNC_STORAGE_POLL_INTERVAL"`
	MaxValueBytes int           `yaml:"max_value_bytes" env:"BIDSYNC_STORAGE_MAX_VALUE_BYTES"`
}

type SourceConfig struct {
	// URL of the project list. Empty uses the built-in projects.
	URL     string        `yaml:"url" env:"BIDSYNC_SOURCE_URL"`
	Timeout time.Duration `yaml:"timeout" env:"BIDSYNC_SOURCE_TIMEOUT"`
}

type BroadcastConfig struct {
	Channel string `yaml:"channel" env:"BIDSYNC_BROADCAST_CHANNEL"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:      "0.0.0.0",
			Port:      8080,
			Transport: "stdio",
		},
		DB: DBConfig{
			Path: "bidsync.db",
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Storage: StorageConfig{
			Backend:       "sqlite",
			PollInterval:  250 * time.Millisecond,
			MaxValueBytes: 5 << 20,
		},
		Source: SourceConfig{
			Timeout: 10 * time.Second,
		},
		Broadcast: BroadcastConfig{
			Channel: "bidsync",
		},
	}
}

// Load reads configuration from defaults, an optional YAML file and
// environment variables, in that order.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv(ConfigPathEnv); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects unknown enumerated values.
func (c Config) Validate() error {
	switch strings.ToLower(c.Server.Transport) {
	case "stdio", "http":
	default:
		return fmt.Errorf("invalid transport %q: want stdio or http", c.Server.Transport)
	}
	switch strings.ToLower(c.Storage.Backend) {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("invalid storage backend %q: want sqlite or memory", c.Storage.Backend)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q: want text or json", c.Log.Format)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
