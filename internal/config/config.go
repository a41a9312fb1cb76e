// Package config handles configuration loading from YAML files and environment variables.
// Configuration precedence: CLI flags > environment variables > config file > embedded > defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a wrapper around time.Duration that supports YAML unmarshaling
// from human-readable strings like "15s", "30s", "1m".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		parsed, err := time.ParseDuration(value.Value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value.Value, err)
		}
		d.Duration = parsed
		return nil
	default:
		return fmt.Errorf("unsupported duration format: %v", value.Kind)
	}
}

// MarshalYAML implements the yaml.Marshaler interface for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Config holds all sampler configuration.
type Config struct {
	Sampling SamplingConfig `yaml:"sampling"`
	Output   OutputConfig   `yaml:"output"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SamplingConfig holds discovery and sampling settings.
type SamplingConfig struct {
	Interval Interval `yaml:"interval"`
	Source   string   `yaml:"source"`
	// Metrics are name patterns selecting the metrics to record.
	// Empty selects every metric.
	Metrics []string `yaml:"metrics"`
	// Duration bounds a standalone run; zero runs until interrupted.
	Duration Duration `yaml:"duration"`
}

// OutputConfig holds report output settings.
type OutputConfig struct {
	Dir string `yaml:"dir"`
	// MaxReports is the number of reports kept; older ones are removed.
	MaxReports int `yaml:"max_reports"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Sampling: SamplingConfig{
			Interval: Interval{DefaultInterval},
			Source:   "/proc/meminfo",
		},
		Output: OutputConfig{
			Dir:        "./meminfo-reports",
			MaxReports: 20,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from a YAML file and merges with defaults.
// If path is empty or the file does not exist, only defaults and environment
// variables are used.
func Load(path string) (*Config, error) {
	return LoadLayered(CLIOverrides{}, nil, path)
}

// CLIOverrides holds values from command-line flags.
// Empty values are treated as "not set" and skipped.
type CLIOverrides struct {
	Interval string
	Source   string
	Metrics  string
	Output   string
	Duration time.Duration
}

// Locate searches standard config file paths and returns the first one found.
// Returns empty string if no config file exists.
func Locate() string {
	for _, p := range configSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// LoadLayered loads configuration with the full precedence chain:
// CLI flags > env vars > external YAML file > embedded bytes > defaults.
//
// An optional configPath argument controls external-file discovery:
//   - omitted        → auto-discover via Locate()
//   - explicit value  → use that path ("" means no external file)
func LoadLayered(cli CLIOverrides, embedded []byte, configPath ...string) (*Config, error) {
	cfg := DefaultConfig()

	// Layer 1: embedded config (lowest priority data layer)
	if len(embedded) > 0 {
		if err := yaml.Unmarshal(embedded, cfg); err != nil {
			return nil, fmt.Errorf("parsing embedded config: %w", err)
		}
	}

	// Layer 2: external YAML file
	var filePath string
	if len(configPath) > 0 {
		filePath = configPath[0]
	} else {
		filePath = Locate()
	}
	if filePath != "" {
		data, err := os.ReadFile(filePath)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", filePath, err)
			}
		}
	}

	// Layer 3: environment variables
	applyEnvOverrides(cfg)

	// Layer 4: CLI flags (highest priority)
	if cli.Interval != "" {
		cfg.Sampling.Interval = ParseIntervalOrDefault(cli.Interval)
	}
	if cli.Source != "" {
		cfg.Sampling.Source = cli.Source
	}
	if cli.Metrics != "" {
		cfg.Sampling.Metrics = splitList(cli.Metrics)
	}
	if cli.Output != "" {
		cfg.Output.Dir = cli.Output
	}
	if cli.Duration > 0 {
		cfg.Sampling.Duration = Duration{cli.Duration}
	}

	return cfg, nil
}

// WriteConfig serializes the config to a YAML file at the given path.
// Creates parent directories if needed.
func WriteConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0640)
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	if interval, ok := os.LookupEnv("MEMINFO_INTERVAL"); ok {
		cfg.Sampling.Interval = ParseIntervalOrDefault(interval)
	}
	if source := os.Getenv("MEMINFO_SOURCE"); source != "" {
		cfg.Sampling.Source = source
	}
	if metrics := os.Getenv("MEMINFO_METRICS"); metrics != "" {
		cfg.Sampling.Metrics = splitList(metrics)
	}
	if level := os.Getenv("MEMINFO_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}

// splitList splits a comma-separated list, dropping empty entries.
func splitList(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

// Validate checks that the configuration can be used for a sampling run.
func (c *Config) Validate() error {
	if c.Sampling.Source == "" {
		return fmt.Errorf("sampling source is required")
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output directory is required")
	}
	if c.Sampling.Duration.Duration < 0 {
		return fmt.Errorf("sampling duration must not be negative (got: %s)", c.Sampling.Duration)
	}
	return nil
}
