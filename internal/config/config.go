package config

import (
	"errors"
	"fmt"
	"os"

	"gqlfuzz/internal/logger"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file picked up from the working directory.
const DefaultPath = "gqlfuzz.yaml"

// OutputConfig holds configuration settings related to output and logging.
type OutputConfig struct {
	LogFile    string `yaml:"log_file"`    // Append-only log of every fuzz record.
	OutputFile string `yaml:"output_file"` // Path to save the JSON report.
	Verbose    bool   `yaml:"verbose"`     // Print DEBUG entries on the console.
}

// Config is the main struct to hold all configuration data from the YAML file.
type Config struct {
	Target       string `yaml:"target"`        // GraphQL endpoint URL.
	Token        string `yaml:"token"`         // Bearer token for the Authorization header.
	Iterations   int    `yaml:"iterations"`    // Number of fuzz iterations.
	Depth        int    `yaml:"depth"`         // Field-selection rounds per query.
	Concurrency  int    `yaml:"concurrency"`   // Number of concurrent workers.
	Seed         int64  `yaml:"seed"`          // Random seed, 0 picks one from the clock.
	FindEndpoint bool   `yaml:"find_endpoint"` // Probe common GraphQL paths under Target.

	// Transport settings.
	TimeoutSeconds     int               `yaml:"timeout_seconds"`
	MaxRetries         int               `yaml:"max_retries"`
	DelayMS            int               `yaml:"delay_ms"`
	UserAgent          string            `yaml:"user_agent"`
	InsecureSkipVerify bool              `yaml:"insecure_skip_verify"`
	Headers            map[string]string `yaml:"headers"`

	// Synthesis settings.
	ExcludeMetaTypes  bool `yaml:"exclude_meta_types"`
	FailOnEmptyFields bool `yaml:"fail_on_empty_fields"`

	Output OutputConfig `yaml:"output"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Iterations:     10,
		Depth:          1,
		Concurrency:    1,
		TimeoutSeconds: 10,
		Output: OutputConfig{
			LogFile: logger.DefaultLogFile,
		},
	}
}

// LoadConfig reads the configuration from a YAML file and returns a Config struct.
// Missing keys keep their defaults and a missing file yields Default().
func LoadConfig(filePath string) (*Config, error) {
	config := Default()

	yamlFile, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("read config %s: %w", filePath, err)
	}

	if err := yaml.Unmarshal(yamlFile, config); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", filePath, err)
	}

	return config, nil
}

// Validate reports the first setting that cannot drive a run.
func (c *Config) Validate() error {
	switch {
	case c.Target == "":
		return errors.New("target URL is required (--url)")
	case c.Iterations < 0:
		return fmt.Errorf("iterations must be >= 0, got %d", c.Iterations)
	case c.Depth < 1:
		return fmt.Errorf("depth must be >= 1, got %d", c.Depth)
	case c.Concurrency < 1:
		return fmt.Errorf("concurrency must be >= 1, got %d", c.Concurrency)
	case c.TimeoutSeconds < 1:
		return fmt.Errorf("timeout_seconds must be >= 1, got %d", c.TimeoutSeconds)
	}
	return nil
}

// RequestHeaders merges the static headers with the bearer token.
func (c *Config) RequestHeaders() map[string]string {
	headers := make(map[string]string, len(c.Headers)+1)
	for k, v := range c.Headers {
		headers[k] = v
	}
	if c.Token != "" {
		headers["Authorization"] = "Bearer " + c.Token
	}
	return headers
}
