// Package config provides configuration management for the chat launcher.
// It handles the optional YAML launcher configuration including environment,
// script, and storage settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// Sentinel errors for configuration validation
var (
	ErrEnvNameRequired    = errors.New("environment name is required")
	ErrPythonPathRequired = errors.New("environment python path is required")
	ErrManagerRequired    = errors.New("environment manager is required")
	ErrScriptRequired     = errors.New("launch script is required")
	ErrNoModules          = errors.New("at least one required module must be configured")
)

// Defaults for the chat invocation. These mirror the downstream script's own
// defaults and are substituted whenever the corresponding variable is unset.
const (
	DefaultURL      = "https://huggingface.co/papers/date/2025-09-30"
	DefaultStyle    = "concise"
	DefaultQuestion = "What are the main contributions?"
)

// Defaults for the launcher environment.
const (
	DefaultEnvName      = "paperchat"
	DefaultManager      = "conda"
	DefaultScript       = "run_chat.py"
	DefaultDatabasePath = "chat-launcher.db"
)

// DefaultModules is the ordered list of python modules that must be importable
// in the target environment before the downstream script is launched.
var DefaultModules = []string{
	"requests",
	"bs4",
	"pdfplumber",
	"sentence_transformers",
	"numpy",
	"sklearn",
	"transformers",
	"accelerate",
	"torch",
	"rich",
	"pydantic",
	"feedparser",
	"wikipedia",
}

// Config represents the top-level launcher configuration structure.
type Config struct {
	Version     string      `yaml:"version"`
	Environment Environment `yaml:"environment"`
	Launch      Launch      `yaml:"launch"`
	Storage     Storage     `yaml:"storage"`
}

// Environment describes the python environment the launcher resolves.
type Environment struct {
	Name      string   `yaml:"name"`
	Python    string   `yaml:"python"`     // absolute path to the interpreter binary
	Manager   string   `yaml:"manager"`    // fallback environment manager executable
	MinPython string   `yaml:"min_python"` // optional semver constraint, e.g. ">= 3.10"
	Modules   []string `yaml:"modules"`    // required modules, probed in this order
}

// Launch describes the downstream script invocation.
type Launch struct {
	Script string `yaml:"script"`
}

// Storage represents storage configuration for launch tracking.
type Storage struct {
	DatabasePath string `yaml:"database_path"`
}

// DefaultConfig returns the built-in configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0",
		Environment: Environment{
			Name:    DefaultEnvName,
			Python:  defaultPythonPath(),
			Manager: DefaultManager,
			Modules: append([]string(nil), DefaultModules...),
		},
		Launch: Launch{
			Script: DefaultScript,
		},
		Storage: Storage{
			DatabasePath: DefaultDatabasePath,
		},
	}
}

// defaultPythonPath builds the conventional interpreter location inside the
// named environment under the user's miniconda tree.
func defaultPythonPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "/opt"
	}
	return filepath.Join(home, "miniconda3", "envs", DefaultEnvName, "bin", "python")
}

// LoadConfig loads and parses the launcher configuration from a YAML file.
// Fields absent from the file keep their built-in defaults.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filePath, err)
	}
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filePath, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// LoadOrDefault loads the configuration file if it exists; a missing file is
// not an error and yields the built-in defaults.
func LoadOrDefault(filePath string) (*Config, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	return LoadConfig(filePath)
}

// Validate validates the configuration structure and required fields.
func (c *Config) Validate() error {
	if c.Environment.Name == "" {
		return ErrEnvNameRequired
	}
	if c.Environment.Python == "" {
		return ErrPythonPathRequired
	}
	if c.Environment.Manager == "" {
		return ErrManagerRequired
	}
	if len(c.Environment.Modules) == 0 {
		return ErrNoModules
	}
	if c.Launch.Script == "" {
		return ErrScriptRequired
	}
	if c.Environment.MinPython != "" {
		if _, err := semver.NewConstraint(c.Environment.MinPython); err != nil {
			return fmt.Errorf("invalid min_python constraint %q: %w", c.Environment.MinPython, err)
		}
	}
	return nil
}

// SaveConfig saves the configuration to a YAML file.
func SaveConfig(config *Config, filePath string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", filePath, err)
	}
	return nil
}
