// Package config handles configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all tool configuration. Values are resolved in order:
// built-in defaults, then an optional YAML file, then environment
// variables, with command line flags applied last by the commands
// themselves.
type Config struct {
	// Population configuration
	Populate PopulateConfig `yaml:"populate"`

	// Validation configuration
	Validate ValidateConfig `yaml:"validate"`

	// Output configuration
	Output OutputConfig `yaml:"output"`

	// Logging configuration
	Log LogConfig `yaml:"log"`
}

// PopulateConfig holds the page population settings.
type PopulateConfig struct {
	TopK             int  `envconfig:"CAR_TOP_K" yaml:"top_k"`
	RemoveDuplicates bool `envconfig:"CAR_REMOVE_DUPLICATES" yaml:"remove_duplicates"`
}

// ValidateConfig holds the submission checking settings.
type ValidateConfig struct {
	TopK           int    `envconfig:"CAR_VALIDATE_TOP_K" yaml:"top_k"`
	SquidNamespace string `envconfig:"CAR_SQUID_NAMESPACE" yaml:"squid_namespace"`
	RunIDMaxLen    int    `envconfig:"CAR_RUN_ID_MAX_LEN" yaml:"run_id_max_len"`
	IDListFile     string `envconfig:"CAR_ID_LIST_FILE" yaml:"id_list_file"`
}

// OutputConfig holds output file settings.
type OutputConfig struct {
	Compression string `envconfig:"CAR_OUTPUT_COMPRESSION" yaml:"compression"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `envconfig:"CAR_LOG_LEVEL" yaml:"level"`
	Format string `envconfig:"CAR_LOG_FORMAT" yaml:"format"`
}

// Load loads configuration from defaults, an optional YAML file and
// environment variables.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	// Set defaults first
	setDefaults(cfg)

	// Load from YAML file if provided (overrides defaults)
	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	// Override with environment variables (highest priority)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("processing env config: %w", err)
	}

	// Validate configuration
	if err := cfg.Check(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only.
func LoadFromEnv() (*Config, error) {
	return Load("")
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

func setDefaults(cfg *Config) {
	cfg.Populate = PopulateConfig{
		TopK:             20,
		RemoveDuplicates: true,
	}

	cfg.Validate = ValidateConfig{
		TopK:           20,
		SquidNamespace: "tqa2:",
		RunIDMaxLen:    15,
		IDListFile:     "paragraph_ids.txt.xz",
	}

	cfg.Output = OutputConfig{
		Compression: "none",
	}

	cfg.Log = LogConfig{
		Level:  "info",
		Format: "text",
	}
}

// Check validates the configuration.
func (c *Config) Check() error {
	var errs []string

	if c.Populate.TopK < 1 {
		errs = append(errs, "populate top_k must be positive")
	}

	if c.Validate.TopK < 1 {
		errs = append(errs, "validate top_k must be positive")
	}

	if c.Validate.SquidNamespace == "" {
		errs = append(errs, "squid_namespace must not be empty")
	}

	if c.Validate.RunIDMaxLen < 1 {
		errs = append(errs, "run_id_max_len must be positive")
	}

	validCompressions := map[string]bool{"": true, "none": true, "gz": true, "xz": true}
	if !validCompressions[c.Output.Compression] {
		errs = append(errs, fmt.Sprintf("invalid output compression: %s (must be none, gz, or xz)", c.Output.Compression))
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("invalid log level: %s (must be debug, info, warn, or error)", c.Log.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		errs = append(errs, fmt.Sprintf("invalid log format: %s (must be text or json)", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// IsDevelopment returns true if running with debug logging.
func (c *Config) IsDevelopment() bool {
	return c.Log.Level == "debug"
}
