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
	if err := c.validateAcquisition(); err != nil {
		return err
	}
	if err := c.validateSeparation(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.CatalogDir == "" {
		return errors.New("paths.catalog_dir must be set")
	}
	return nil
}

func (c *Config) validateAcquisition() error {
	if c.Acquisition.ProbeTimeout <= 0 {
		return errors.New("acquisition.probe_timeout must be positive")
	}
	if c.Acquisition.AttemptsPerSource <= 0 {
		return errors.New("acquisition.attempts_per_source must be positive")
	}
	if c.Acquisition.SplitTimeout <= 0 {
		return errors.New("acquisition.split_timeout must be positive")
	}
	return nil
}

func (c *Config) validateSeparation() error {
	if c.Separation.SpleeterTimeoutMultiplier <= 0 {
		return errors.New("separation.spleeter_timeout_multiplier must be positive")
	}
	if c.Separation.DemucsTimeoutMultiplier <= 0 {
		return errors.New("separation.demucs_timeout_multiplier must be positive")
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
