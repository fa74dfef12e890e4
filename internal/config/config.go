// Package config handles bazaar configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata" // timezone lookups must work without a system zoneinfo

	"github.com/saravenpi/bazaar/internal/timeline"
)

// Config is the root configuration structure for bazaar.
type Config struct {
	// FixturesDir is a directory of *.yml fixture files. Empty uses the
	// built-in sample data.
	FixturesDir string `yaml:"fixtures_dir" mapstructure:"fixtures_dir"`

	// Timezone is the viewer's IANA time zone ("Local" for the system zone).
	Timezone string `yaml:"timezone" mapstructure:"timezone"`

	Timeline TimelineConfig `yaml:"timeline" mapstructure:"timeline"`
	UI       UIConfig       `yaml:"ui" mapstructure:"ui"`
	Logging  LoggingConfig  `yaml:"logging" mapstructure:"logging"`
}

type TimelineConfig struct {
	// Anchor is "oldest" or "newest"; see timeline.Anchor.
	Anchor string `yaml:"anchor" mapstructure:"anchor"`
}

type UIConfig struct {
	// UnreadOnly starts the chat list filtered to unread rooms.
	UnreadOnly bool `yaml:"unread_only" mapstructure:"unread_only"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`

	// File is the log file path. Empty disables logging.
	File string `yaml:"file" mapstructure:"file"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Timezone: "Local",
		Timeline: TimelineConfig{Anchor: "oldest"},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			File:   filepath.Join(homeDir, ".bazaar", "bazaar.log"),
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := timeline.ParseAnchor(c.Timeline.Anchor); err != nil {
		return fmt.Errorf("timeline.anchor: %w", err)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error", "trace":
	default:
		return fmt.Errorf("logging.level: invalid level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format: invalid format %q", c.Logging.Format)
	}

	if c.FixturesDir != "" {
		info, err := os.Stat(c.FixturesDir)
		if err != nil {
			return fmt.Errorf("fixtures_dir: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("fixtures_dir: %s is not a directory", c.FixturesDir)
		}
	}
	return nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}
	return loc, nil
}

// Anchor resolves Timeline.Anchor. Call Validate first.
func (c *Config) Anchor() timeline.Anchor {
	a, _ := timeline.ParseAnchor(c.Timeline.Anchor)
	return a
}
