// Package config provides unified configuration loading for pulsenet.
// It supports loading from YAML files and environment variables.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config contains all pulsenet configuration settings.
type Config struct {
	// Simulation contains settings for bulk counts and period detection.
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`

	// Logging contains settings for operational logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// History contains settings for the run ledger.
	History HistoryConfig `json:"history" yaml:"history"`
}

// SimulationConfig configures the simulator.
type SimulationConfig struct {
	// Presses is the number of button presses of a bulk count.
	Presses int `json:"presses" yaml:"presses"`

	// Target is the module whose first Low pulse is extrapolated.
	Target string `json:"target" yaml:"target"`

	// MaxPresses caps the presses simulated by the period detector.
	// 0 selects a cap proportional to the network size.
	MaxPresses uint64 `json:"max_presses,omitempty" yaml:"max_presses,omitempty"`

	// MinCycles is the number of consecutive equal intervals needed to
	// establish a period.
	MinCycles int `json:"min_cycles" yaml:"min_cycles"`
}

// LoggingConfig configures pulsenet's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "error", "warn", "info" (default),
	// "debug" or "trace".
	Level string `json:"level" yaml:"level"`
}

// HistoryConfig configures the run ledger.
type HistoryConfig struct {
	// Path is the SQLite database file. Defaults to ~/.pulsenet/history.db.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// Enabled records every run in the ledger.
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Simulation: SimulationConfig{
			Presses:   1000,
			Target:    "rx",
			MinCycles: 2,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		History: HistoryConfig{
			Path:    defaultHistoryPath(),
			Enabled: false,
		},
	}
}

// Dir returns the pulsenet configuration directory, ~/.pulsenet.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "locating home directory")
	}
	return filepath.Join(home, ".pulsenet"), nil
}

func defaultHistoryPath() string {
	dir, err := Dir()
	if err != nil {
		return "pulsenet-history.db"
	}
	return filepath.Join(dir, "history.db")
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.pulsenet/config.yaml -> environment variables
func Load() (*Config, error) {
	config := Default()

	if dir, err := Dir(); err == nil {
		configPath := filepath.Join(dir, "config.yaml")
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, errors.Wrap(loadErr, "loading config file")
			}
			config = fileConfig
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadFile loads configuration from a specific YAML file then applies
// environment variable overrides.
func LoadFile(path string) (*Config, error) {
	config, err := LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	applyEnvOverrides(config)
	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config file")
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(err, "parsing config file")
	}
	config.History.Path = os.ExpandEnv(config.History.Path)

	return config, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Simulation.Presses < 0 {
		return errors.Errorf("presses must be non-negative, got %d", c.Simulation.Presses)
	}
	if c.Simulation.Target == "" {
		return errors.New("target must not be empty")
	}
	if c.Simulation.MinCycles < 1 {
		return errors.Errorf("min_cycles must be at least 1, got %d", c.Simulation.MinCycles)
	}

	validLevels := map[string]bool{"error": true, "warn": true, "info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[strings.ToLower(c.Logging.Level)] {
		return errors.Errorf("invalid log level: %s (valid: error, warn, info, debug, trace, or empty for default)", c.Logging.Level)
	}

	if c.History.Enabled && c.History.Path == "" {
		return errors.New("history is enabled but history path is empty")
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("PULSENET_PRESSES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Simulation.Presses = n
		}
	}

	if v := os.Getenv("PULSENET_TARGET"); v != "" {
		config.Simulation.Target = v
	}

	if v := os.Getenv("PULSENET_MAX_PRESSES"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			config.Simulation.MaxPresses = n
		}
	}

	if v := os.Getenv("PULSENET_MIN_CYCLES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Simulation.MinCycles = n
		}
	}

	if v := os.Getenv("PULSENET_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}

	if v := os.Getenv("PULSENET_HISTORY_PATH"); v != "" {
		config.History.Path = v
	}

	if v := os.Getenv("PULSENET_HISTORY"); v != "" {
		config.History.Enabled = v == "true" || v == "1"
	}
}
