package config

import (
	"net"
	"strconv"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Session SessionConfig `yaml:"session"`
	Mail    MailConfig    `yaml:"mail"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"PORT"                    env-default:"3000"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"   env:"SERVER_MAX_BODY_BYTES"   env-default:"4194304"`
	Release         bool          `yaml:"release"          env:"GIN_RELEASE"             env-default:"false"`
}

// StorageConfig selects and configures the persistence tiers.
type StorageConfig struct {
	KVRestURL   string        `yaml:"kv_rest_url"   env:"KV_REST_API_URL"`
	KVRestToken string        `yaml:"kv_rest_token" env:"KV_REST_API_TOKEN"`
	KVKeyPrefix string        `yaml:"kv_key_prefix" env:"KV_KEY_PREFIX" env-default:"sso_"`
	KVTimeout   time.Duration `yaml:"kv_timeout"    env:"KV_TIMEOUT"    env-default:"5s"`
	// Driver is the disk tier: "file", "sqlite" or "memory".
	Driver     string `yaml:"driver"      env:"STORAGE_DRIVER"      env-default:"file"`
	DataDir    string `yaml:"data_dir"    env:"STORAGE_DATA_DIR"    env-default:"./data"`
	SQLitePath string `yaml:"sqlite_path" env:"STORAGE_SQLITE_PATH" env-default:"./data/santa.db"`
	// Ephemeral marks a serverless deployment whose disk does not survive
	// between invocations. Saves then report the "local" mode.
	Ephemeral bool `yaml:"ephemeral" env:"VERCEL" env-default:"false"`
}

// SessionConfig controls the in-memory event cache.
type SessionConfig struct {
	IdleTTL         time.Duration `yaml:"idle_ttl"         env:"SESSION_IDLE_TTL"         env-default:"1h"`
	JanitorInterval time.Duration `yaml:"janitor_interval" env:"SESSION_JANITOR_INTERVAL" env-default:"10m"`
}

// MailConfig holds settings for assignment emails. An empty API key disables sending.
type MailConfig struct {
	ResendAPIKey string `yaml:"resend_api_key" env:"RESEND_API_KEY"`
	From         string `yaml:"from"           env:"MAIL_FROM" env-default:"Secret Santa <santa@example.com>"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Verbose   bool   `yaml:"verbose"    env:"LOG_VERBOSE"    env-default:"true"`
	SystemLog bool   `yaml:"system_log" env:"LOG_SYSTEM_LOG" env-default:"false"`
	File      string `yaml:"file"       env:"LOG_FILE"`
}

// KVEnabled reports whether both remote key-value credentials are present.
func (s StorageConfig) KVEnabled() bool {
	return s.KVRestURL != "" && s.KVRestToken != ""
}

// MailEnabled reports whether assignment emails are actually delivered.
func (m MailConfig) MailEnabled() bool {
	return m.ResendAPIKey != ""
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}
