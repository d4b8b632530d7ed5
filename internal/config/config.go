// Package config provides configuration management for packlint.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/packlint/internal/util"
	"github.com/randalmurphal/packlint/templates"
)

const (
	// ConfigFileName is the default config file name
	ConfigFileName = "config.yaml"
	// PacklintDir is the packlint configuration directory
	PacklintDir = ".packlint"
)

// ValidatorConfig controls one validator in the chain.
type ValidatorConfig struct {
	// Enabled toggles the validator. Unset means enabled.
	Enabled *bool `yaml:"enabled,omitempty"`

	// Severity overrides the severity of the validator's findings
	// (error, warning, info). Unset keeps the validator's default.
	Severity string `yaml:"severity,omitempty"`
}

// On reports whether the validator should run.
func (v ValidatorConfig) On() bool {
	return v.Enabled == nil || *v.Enabled
}

// StateConfig controls run bookkeeping.
type StateConfig struct {
	// Enabled toggles the sqlite run store (default: true)
	Enabled bool `yaml:"enabled"`

	// Path is the database location (default: .packlint/state.db)
	Path string `yaml:"path"`
}

// WatchConfig controls watch mode.
type WatchConfig struct {
	// DebounceMs coalesces bursts of file events into one run (default: 400)
	DebounceMs int `yaml:"debounce_ms"`
}

// Config represents the packlint configuration.
type Config struct {
	// Version is the config file version
	Version int `yaml:"version"`

	// Layout settings
	WorkDir      string   `yaml:"work_dir"`
	Classifier   string   `yaml:"classifier,omitempty"`
	MetadataDirs []string `yaml:"metadata_dirs"`
	ContentDirs  []string `yaml:"content_dirs"`

	// Excludes are user glob patterns, unioned with the built-in
	// default excludes at scan time
	Excludes []string `yaml:"excludes,omitempty"`

	// FailOnWarnings makes warning findings fail the run
	FailOnWarnings bool `yaml:"fail_on_warnings"`

	// SkipIfPlanned skips validation when the build plan schedules a
	// later full package validation (default: true)
	SkipIfPlanned bool `yaml:"skip_if_planned"`

	// PipelineFile is the build plan inspected for the skip decision
	PipelineFile string `yaml:"pipeline_file,omitempty"`

	// Validators configures the chain per validator ID
	Validators map[string]ValidatorConfig `yaml:"validators,omitempty"`

	// State configuration
	State StateConfig `yaml:"state"`

	// Watch configuration
	Watch WatchConfig `yaml:"watch"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: 1,
		WorkDir: "target/vault-work",
		MetadataDirs: []string{
			"META-INF/vault",
			"src/main/META-INF/vault",
			"src/main/content/META-INF/vault",
			"src/content/META-INF/vault",
		},
		ContentDirs: []string{
			"jcr_root",
			"src/main/jcr_root",
			"src/main/content/jcr_root",
			"src/content/jcr_root",
		},
		SkipIfPlanned: true,
		State: StateConfig{
			Enabled: true,
			Path:    PacklintDir + "/state.db",
		},
		Watch: WatchConfig{
			DebounceMs: 400,
		},
	}
}

// Load loads the config from the default location.
func Load() (*Config, error) {
	return LoadFrom(filepath.Join(PacklintDir, ConfigFileName))
}

// LoadFrom loads the config from a specific path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return default config if file doesn't exist
			return Default(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default() // Start with defaults
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// Save saves the config to the default location.
func (c *Config) Save() error {
	return c.SaveTo(filepath.Join(PacklintDir, ConfigFileName))
}

// SaveTo saves the config to a specific path.
func (c *Config) SaveTo(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := util.AtomicWriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// Init initializes the packlint directory structure in the current
// directory.
func Init(force bool) error {
	return InitAt(".", force)
}

// InitAt initializes the packlint directory structure under dir.
func InitAt(dir string, force bool) error {
	packlintDir := filepath.Join(dir, PacklintDir)
	configPath := filepath.Join(packlintDir, ConfigFileName)

	// Check if already initialized
	if !force {
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("packlint already initialized (use --force to overwrite)")
		}
	}

	if err := os.MkdirAll(packlintDir, 0755); err != nil {
		return fmt.Errorf("create directory %s: %w", packlintDir, err)
	}

	// The annotated template documents every key; its values match Default().
	data, err := templates.Config.ReadFile("config.yaml")
	if err != nil {
		return fmt.Errorf("read config template: %w", err)
	}
	if err := util.AtomicWriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// IsInitializedAt returns true if packlint is initialized under dir.
func IsInitializedAt(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, PacklintDir, ConfigFileName))
	return err == nil
}
