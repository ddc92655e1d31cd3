package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SERVER_HOST", "SERVER_PORT", "OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_SERVICE_NAME",
		"OTEL_ENVIRONMENT", "OTEL_ENABLED", "LOG_LEVEL", "STORAGE_BACKEND", "STORAGE_DATA_DIR",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "REDIS_KEY_PREFIX",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.True(t, cfg.OTLP.Enabled)
}

func TestLoadLayers(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "inventory.yaml")
	content := `
server:
  port: "9000"
storage:
  backend: redis
  redis:
    addr: "cache:6379"
    db: 2
otlp:
  enabled: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("SERVER_PORT", "9100")
	t.Setenv("REDIS_DB", "5")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Server.Port, "env overrides file")
	assert.Equal(t, "0.0.0.0", cfg.Server.Host, "default kept")
	assert.Equal(t, BackendRedis, cfg.Storage.Backend)
	assert.Equal(t, "cache:6379", cfg.Storage.Redis.Addr)
	assert.Equal(t, 5, cfg.Storage.Redis.DB)
	assert.Equal(t, "inventory:", cfg.Storage.Redis.KeyPrefix)
	assert.False(t, cfg.OTLP.Enabled)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		file string
	}{
		{name: "unknown backend", env: map[string]string{"STORAGE_BACKEND": "s3"}},
		{name: "bad redis db", env: map[string]string{"REDIS_DB": "two"}},
		{name: "bad otel flag", env: map[string]string{"OTEL_ENABLED": "sometimes"}},
		{name: "bad yaml", file: "server: [unclosed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			path := ""
			if tt.file != "" {
				path = filepath.Join(t.TempDir(), "bad.yaml")
				require.NoError(t, os.WriteFile(path, []byte(tt.file), 0o644))
			}

			_, err := Load(path)
			assert.Error(t, err)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		clearEnv(t)
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid default config", func(c *Config) {}, false},
		{"memory backend", func(c *Config) { c.Storage.Backend = BackendMemory }, false},
		{"file backend without dir", func(c *Config) { c.Storage.DataDir = "" }, true},
		{"redis backend without addr", func(c *Config) {
			c.Storage.Backend = BackendRedis
			c.Storage.Redis.Addr = ""
		}, true},
		{"missing port", func(c *Config) { c.Server.Port = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
