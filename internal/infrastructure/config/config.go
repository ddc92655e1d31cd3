package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage backends
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	OTLP    OTLPConfig    `yaml:"otlp"`
	Log     LogConfig     `yaml:"log"`
	Storage StorageConfig `yaml:"storage"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
	Host string `yaml:"host"`
}

type OTLPConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
	Environment string `yaml:"environment"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type StorageConfig struct {
	Backend string      `yaml:"backend"`
	DataDir string      `yaml:"data_dir"`
	Redis   RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: "8080",
		},
		OTLP: OTLPConfig{
			Enabled:     true,
			Endpoint:    "localhost:4317",
			ServiceName: "inventory-api",
			Environment: "development",
		},
		Log: LogConfig{
			Level: "debug",
		},
		Storage: StorageConfig{
			Backend: BackendFile,
			DataDir: "data",
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				KeyPrefix: "inventory:",
			},
		},
	}
}

// LoadConfig loads a .env file if present, then the YAML file at path (or
// the one named by INVENTORY_CONFIG_FILE when path is empty), then
// environment variables.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if path == "" {
		path = os.Getenv("INVENTORY_CONFIG_FILE")
	}
	return Load(path)
}

// Load layers defaults, the optional YAML file at path and environment
// variables, in that order.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Server.Host = getEnv("SERVER_HOST", c.Server.Host)
	c.Server.Port = getEnv("SERVER_PORT", c.Server.Port)

	c.OTLP.Endpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.OTLP.Endpoint)
	c.OTLP.ServiceName = getEnv("OTEL_SERVICE_NAME", c.OTLP.ServiceName)
	c.OTLP.Environment = getEnv("OTEL_ENVIRONMENT", c.OTLP.Environment)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)

	c.Storage.Backend = getEnv("STORAGE_BACKEND", c.Storage.Backend)
	c.Storage.DataDir = getEnv("STORAGE_DATA_DIR", c.Storage.DataDir)
	c.Storage.Redis.Addr = getEnv("REDIS_ADDR", c.Storage.Redis.Addr)
	c.Storage.Redis.Password = getEnv("REDIS_PASSWORD", c.Storage.Redis.Password)
	c.Storage.Redis.KeyPrefix = getEnv("REDIS_KEY_PREFIX", c.Storage.Redis.KeyPrefix)

	var err error
	if c.OTLP.Enabled, err = getEnvBool("OTEL_ENABLED", c.OTLP.Enabled); err != nil {
		return err
	}
	if c.Storage.Redis.DB, err = getEnvInt("REDIS_DB", c.Storage.Redis.DB); err != nil {
		return err
	}
	return nil
}

// Validate checks the settings that would otherwise fail late
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendFile:
		if c.Storage.DataDir == "" {
			return errors.New("storage data_dir is required for the file backend")
		}
	case BackendRedis:
		if c.Storage.Redis.Addr == "" {
			return errors.New("redis addr is required for the redis backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Server.Port == "" {
		return errors.New("server port is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
