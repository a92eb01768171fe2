package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateMoltbook(); err != nil {
		return err
	}
	if err := c.validateClawnch(); err != nil {
		return err
	}
	if err := c.validateFal(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.APIBind == "" {
		return errors.New("paths.api_bind must be set")
	}
	return nil
}

func (c *Config) validateMoltbook() error {
	if c.Moltbook.BaseURL == "" {
		return errors.New("moltbook.base_url must be set")
	}
	if c.Moltbook.Submolt == "" {
		return errors.New("moltbook.submolt must be set")
	}
	return nil
}

func (c *Config) validateClawnch() error {
	if c.Clawnch.BaseURL == "" {
		return errors.New("clawnch.base_url must be set")
	}
	if c.Clawnch.TimeoutSeconds <= 0 {
		return fmt.Errorf("clawnch.timeout_seconds must be positive, got %d", c.Clawnch.TimeoutSeconds)
	}
	return nil
}

func (c *Config) validateFal() error {
	// An empty API key is allowed; generation falls back without it.
	if c.Fal.BaseURL == "" {
		return errors.New("fal.base_url must be set")
	}
	if c.Fal.TimeoutSeconds <= 0 {
		return fmt.Errorf("fal.timeout_seconds must be positive, got %d", c.Fal.TimeoutSeconds)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
