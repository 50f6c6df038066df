package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTools()
	c.normalizeSeparation()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	// Artifact directories default to the layout under data_dir when unset.
	if strings.TrimSpace(c.Paths.RawAudioDir) == "" {
		c.Paths.RawAudioDir = filepath.Join(c.Paths.DataDir, filepath.FromSlash(defaultRawAudioSubdir))
	}
	if strings.TrimSpace(c.Paths.SpleeterDir) == "" {
		c.Paths.SpleeterDir = filepath.Join(c.Paths.DataDir, filepath.FromSlash(defaultSpleeterSubdir))
	}
	if strings.TrimSpace(c.Paths.DemucsDir) == "" {
		c.Paths.DemucsDir = filepath.Join(c.Paths.DataDir, filepath.FromSlash(defaultDemucsSubdir))
	}
	if c.Paths.RawAudioDir, err = expandPath(c.Paths.RawAudioDir); err != nil {
		return fmt.Errorf("paths.raw_audio_dir: %w", err)
	}
	if c.Paths.SpleeterDir, err = expandPath(c.Paths.SpleeterDir); err != nil {
		return fmt.Errorf("paths.spleeter_dir: %w", err)
	}
	if c.Paths.DemucsDir, err = expandPath(c.Paths.DemucsDir); err != nil {
		return fmt.Errorf("paths.demucs_dir: %w", err)
	}
	if c.Paths.CatalogDir, err = expandPath(c.Paths.CatalogDir); err != nil {
		return fmt.Errorf("paths.catalog_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTools() {
	defaults := Default().Tools
	if strings.TrimSpace(c.Tools.YtDlp) == "" {
		c.Tools.YtDlp = defaults.YtDlp
	}
	if strings.TrimSpace(c.Tools.FFmpeg) == "" {
		c.Tools.FFmpeg = defaults.FFmpeg
	}
	if strings.TrimSpace(c.Tools.FFprobe) == "" {
		c.Tools.FFprobe = defaults.FFprobe
	}
	if strings.TrimSpace(c.Tools.Spleeter) == "" {
		c.Tools.Spleeter = defaults.Spleeter
	}
	if strings.TrimSpace(c.Tools.Demucs) == "" {
		c.Tools.Demucs = defaults.Demucs
	}
}

func (c *Config) normalizeSeparation() {
	if strings.TrimSpace(c.Separation.SpleeterModel) == "" {
		c.Separation.SpleeterModel = defaultSpleeterModel
	}
	if strings.TrimSpace(c.Separation.DemucsModel) == "" {
		c.Separation.DemucsModel = defaultDemucsModel
	}
	if c.Separation.SpleeterTimeoutMultiplier <= 0 {
		c.Separation.SpleeterTimeoutMultiplier = defaultSpleeterTimeoutMultiplier
	}
	if c.Separation.DemucsTimeoutMultiplier <= 0 {
		c.Separation.DemucsTimeoutMultiplier = defaultDemucsTimeoutMultiplier
	}
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if format == "" {
		format = defaultLogFormat
	}
	c.Logging.Format = format

	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
}
