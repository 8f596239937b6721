package config

import (
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateRelocation(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateRelocation() error {
	switch c.Relocation.HashAlgorithm {
	case HashSHA1, HashSHA256:
		return nil
	default:
		return fmt.Errorf("relocation.hash_algorithm must be %q or %q, got %q", HashSHA1, HashSHA256, c.Relocation.HashAlgorithm)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
}
