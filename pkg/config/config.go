// Package config provides configuration loading for the preparation tool.
// It handles loading defaults from YAML files so site-specific settings
// (FLIRT location, study roster) don't have to be repeated on every run.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the preparation defaults loaded from YAML
type Config struct {
	// Registration parameters
	Registration struct {
		// FlirtPath is the command used to invoke FLIRT. A bare name is
		// resolved through PATH.
		FlirtPath string `yaml:"flirtPath"`

		// ContrastType selects which first-level files to register
		// (cope, zstat, etc.)
		ContrastType string `yaml:"contrastType"`
	} `yaml:"registration"`

	// Roster describes the study's subject numbering
	Roster struct {
		// First and Last bound the subject numbers, inclusive
		First int `yaml:"first"`
		Last  int `yaml:"last"`

		// Exclude lists subject numbers dropped from the study
		Exclude []int `yaml:"exclude"`
	} `yaml:"roster"`
}

// DefaultConfig returns a configuration with default values: FLIRT on PATH,
// cope contrasts, and the study roster of subjects 1-32 with 15 and 26
// excluded.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Registration.FlirtPath = "flirt"
	cfg.Registration.ContrastType = "cope"

	cfg.Roster.First = 1
	cfg.Roster.Last = 32
	cfg.Roster.Exclude = []int{15, 26}

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// Subjects expands the roster into the ordered list of included subject
// numbers.
func (c *Config) Subjects() []int {
	excluded := make(map[int]bool, len(c.Roster.Exclude))
	for _, n := range c.Roster.Exclude {
		excluded[n] = true
	}

	var subjects []int
	for n := c.Roster.First; n <= c.Roster.Last; n++ {
		if !excluded[n] {
			subjects = append(subjects, n)
		}
	}
	return subjects
}
