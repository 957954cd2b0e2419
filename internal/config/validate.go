package config

import (
	"fmt"
	"slices"
)

var storageDrivers = []string{"file", "sqlite", "memory"}

// Validate performs business-rule validation on the loaded configuration.
// Load calls it automatically.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535 (got %d)", c.Server.Port)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.max_body_bytes must be > 0 (got %d)", c.Server.MaxBodyBytes)
	}

	if (c.Storage.KVRestURL == "") != (c.Storage.KVRestToken == "") {
		return fmt.Errorf("storage: kv_rest_url and kv_rest_token must be set together")
	}
	if !slices.Contains(storageDrivers, c.Storage.Driver) {
		return fmt.Errorf("storage.driver must be one of %v (got %q)", storageDrivers, c.Storage.Driver)
	}
	if c.Storage.Ephemeral && c.Storage.Driver == "file" && c.Storage.DataDir == "./data" {
		// Serverless platforms only allow writes under /tmp.
		c.Storage.DataDir = "/tmp"
	}

	if c.Session.IdleTTL <= 0 {
		return fmt.Errorf("session.idle_ttl must be > 0 (got %v)", c.Session.IdleTTL)
	}
	if c.Session.JanitorInterval <= 0 {
		return fmt.Errorf("session.janitor_interval must be > 0 (got %v)", c.Session.JanitorInterval)
	}

	if c.Mail.MailEnabled() && c.Mail.From == "" {
		return fmt.Errorf("mail.from is required when a Resend API key is set")
	}

	return nil
}
