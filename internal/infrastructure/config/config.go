package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for tbimport.
// All settings can come from YAML and be overridden by environment
// variables; command-line flags are layered on top by the cmd package.
type Config struct {
	Upload  UploadConfig  `yaml:"upload"`
	CSV     CSVConfig     `yaml:"csv"`
	Logging LoggingConfig `yaml:"logging"`
}

// UploadConfig contains the settings that shape outbound HTTP traffic.
type UploadConfig struct {
	// BaseURL is the ingestion endpoint root. The fixed API path
	// /api/v1/{token}/telemetry is appended per device.
	BaseURL string `yaml:"base_url"`

	// BatchSize is the number of points sent per request. Zero means
	// "use the per-command default" (10 for csv, 100 for multi).
	BatchSize int `yaml:"batch_size"`

	// DelayMillis is the pause between consecutive requests of one
	// stream, in milliseconds. The pause is skipped after the final
	// batch of a stream.
	DelayMillis int `yaml:"delay_ms"`

	// Strict aborts the run on the first non-2xx response instead of
	// the historical observe-and-continue behavior.
	Strict bool `yaml:"strict"`
}

// CSVConfig contains input file parsing settings.
type CSVConfig struct {
	// Separator is the field separator, exactly one character.
	Separator string `yaml:"separator"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment
// variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: TBIMPORT_SECTION_KEY
// For example: TBIMPORT_UPLOAD_BASE_URL, TBIMPORT_LOGGING_LEVEL
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - Config: Loaded and validated configuration
//   - error: If the file cannot be read, parsed, or validation fails
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config with the historical tool defaults applied,
// including environment variable overrides. Used when no config file is
// present.
func Default() Config {
	cfg := Config{
		Upload: UploadConfig{
			BaseURL:     "https://tesenso.io",
			BatchSize:   0,
			DelayMillis: 100,
		},
		CSV: CSVConfig{
			Separator: ";",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
	applyEnvOverrides(&cfg)
	return cfg
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Variables follow the pattern TBIMPORT_SECTION_KEY.
func applyEnvOverrides(cfg *Config) {
	// Upload
	if v := os.Getenv("TBIMPORT_UPLOAD_BASE_URL"); v != "" {
		cfg.Upload.BaseURL = v
	}
	if v := os.Getenv("TBIMPORT_UPLOAD_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Upload.BatchSize = n
		}
	}
	if v := os.Getenv("TBIMPORT_UPLOAD_DELAY_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Upload.DelayMillis = n
		}
	}

	// CSV
	if v := os.Getenv("TBIMPORT_CSV_SEPARATOR"); v != "" {
		cfg.CSV.Separator = v
	}

	// Logging
	if v := os.Getenv("TBIMPORT_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TBIMPORT_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c Config) Validate() error {
	var errs []string

	if c.Upload.BaseURL == "" {
		errs = append(errs, "upload.base_url is required")
	}
	if c.Upload.BatchSize < 0 {
		errs = append(errs, "upload.batch_size must not be negative")
	}
	if c.Upload.DelayMillis < 0 {
		errs = append(errs, "upload.delay_ms must not be negative")
	}
	if len([]rune(c.CSV.Separator)) != 1 {
		errs = append(errs, "csv.separator must be exactly one character")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// Delay returns the inter-batch pause as a Duration.
func (u UploadConfig) Delay() time.Duration {
	return time.Duration(u.DelayMillis) * time.Millisecond
}

// SeparatorRune returns the CSV field separator as a rune.
// Validate guarantees the separator is exactly one character.
func (c CSVConfig) SeparatorRune() rune {
	return []rune(c.Separator)[0]
}
