package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

const defaultConfigFile = "config.yaml"

// Load builds the configuration from env-default tags, an optional YAML file
// and the environment, in increasing order of precedence, and validates it.
// CONFIG_PATH names the file; when unset, config.yaml is used if it exists.
func Load() (*Config, error) {
	var cfg Config
	if err := read(&cfg, os.Getenv("CONFIG_PATH")); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func read(cfg *Config, path string) error {
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); errors.Is(err, fs.ErrNotExist) {
			if err := cleanenv.ReadEnv(cfg); err != nil {
				return fmt.Errorf("read config from env: %w", err)
			}
			return nil
		}
		path = defaultConfigFile
	}
	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}
