package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Server:  ServerConfig{Host: "0.0.0.0", Port: 3000, MaxBodyBytes: 4 << 20},
		Storage: StorageConfig{Driver: "file", DataDir: "./data"},
		Session: SessionConfig{IdleTTL: time.Hour, JanitorInterval: 10 * time.Minute},
		Mail:    MailConfig{From: "santa@example.com"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: "server.port"},
		{name: "half kv", mutate: func(c *Config) { c.Storage.KVRestURL = "https://kv" }, wantErr: "kv_rest_token"},
		{name: "full kv", mutate: func(c *Config) { c.Storage.KVRestURL, c.Storage.KVRestToken = "https://kv", "tok" }},
		{name: "unknown driver", mutate: func(c *Config) { c.Storage.Driver = "postgres" }, wantErr: "storage.driver"},
		{name: "zero ttl", mutate: func(c *Config) { c.Session.IdleTTL = 0 }, wantErr: "idle_ttl"},
		{name: "mail without from", mutate: func(c *Config) { c.Mail = MailConfig{ResendAPIKey: "re_123"} }, wantErr: "mail.from"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_EphemeralUsesTmp(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Ephemeral = true

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "/tmp", cfg.Storage.DataDir)
}

func TestLoad_FromYAMLAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "server:\n  port: 8081\nstorage:\n  driver: sqlite\n  sqlite_path: /var/lib/santa.db\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	t.Setenv("CONFIG_PATH", path)
	t.Setenv("PORT", "8081")
	t.Setenv("KV_REST_API_URL", "https://kv.example.com")
	t.Setenv("KV_REST_API_TOKEN", "token")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "/var/lib/santa.db", cfg.Storage.SQLitePath)
	assert.True(t, cfg.Storage.KVEnabled())
	assert.Equal(t, "sso_", cfg.Storage.KVKeyPrefix)
	assert.Equal(t, time.Hour, cfg.Session.IdleTTL)
	assert.Equal(t, "0.0.0.0:8081", cfg.Server.Addr())
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := Load()
	assert.Error(t, err)
}
