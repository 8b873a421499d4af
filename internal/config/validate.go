package config

import (
	"fmt"
	"net"
)

// Validate ensures the configuration is structurally usable. Credential
// presence is deliberately not enforced here: each generation request
// validates the keys its chosen pipeline path actually needs, so a daemon
// configured for only one provider still starts.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateCoaches(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if _, _, err := net.SplitHostPort(c.Paths.APIBind); err != nil {
		return fmt.Errorf("paths.api_bind %q is not a host:port value: %w", c.Paths.APIBind, err)
	}
	return nil
}

func (c *Config) validateCoaches() error {
	switch c.Coaches.DefaultProvider {
	case "heygen", "did":
		return nil
	default:
		return fmt.Errorf("coaches.default_provider must be %q or %q, got %q", "heygen", "did", c.Coaches.DefaultProvider)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be %q or %q, got %q", "console", "json", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
	return nil
}
