// config.go loads hub settings from a YAML file.

package aisen

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DSNEnvVars are checked in order; the first non-empty value overrides the
// DSN from the file.
var DSNEnvVars = []string{"AISEN_DSN", "SENTRY_DSN"}

// Config is the file form of the hub settings.
//
//	dsn: https://public@o1.ingest.example.com/42
//	release: ${APP_VERSION}
//	environment: production
//	max_breadcrumbs: 50
//	scrubbing:
//	  enabled: true
//	  patterns: ["internal-[0-9]+"]
type Config struct {
	DSN            string          `yaml:"dsn"`
	Release        string          `yaml:"release"`
	Environment    string          `yaml:"environment"`
	ServerName     string          `yaml:"server_name"`
	MaxBreadcrumbs *int            `yaml:"max_breadcrumbs"`
	SystemState    *bool           `yaml:"system_state"`
	Fingerprinting bool            `yaml:"fingerprinting"`
	Scrubbing      ScrubbingConfig `yaml:"scrubbing"`
}

// ScrubbingConfig is the file form of ScrubberConfig.
type ScrubbingConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Patterns       []string `yaml:"patterns"`
	MaxMessageSize int      `yaml:"max_message_size"`
	FailClosed     bool     `yaml:"fail_closed"`
}

// LoadConfig reads a YAML config file. ${VAR} references are expanded from
// the environment before parsing.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML config data. See LoadConfig.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	for _, name := range DSNEnvVars {
		if v := os.Getenv(name); v != "" {
			cfg.DSN = v
			break
		}
	}
	return &cfg, nil
}

// ParsedDSN parses the configured DSN. It returns nil and no error when the
// DSN is empty.
func (c *Config) ParsedDSN() (*DSN, error) {
	if c.DSN == "" {
		return nil, nil
	}
	return ParseDSN(c.DSN)
}

// Options converts the config into hub options. The transport is not part
// of the file config and must be added by the caller.
func (c *Config) Options() ([]Option, error) {
	dsn, err := c.ParsedDSN()
	if err != nil {
		return nil, err
	}

	var opts []Option
	if dsn != nil {
		opts = append(opts, WithDSN(dsn))
	}
	if c.Release != "" {
		opts = append(opts, WithRelease(c.Release))
	}
	if c.Environment != "" {
		opts = append(opts, WithEnvironment(c.Environment))
	}
	if c.ServerName != "" {
		opts = append(opts, WithServerName(c.ServerName))
	}
	if c.MaxBreadcrumbs != nil {
		opts = append(opts, WithMaxBreadcrumbs(*c.MaxBreadcrumbs))
	}
	if c.SystemState != nil {
		opts = append(opts, WithSystemState(*c.SystemState))
	}
	if c.Fingerprinting {
		opts = append(opts, WithFingerprinting())
	}
	if c.Scrubbing.Enabled {
		scrub := DefaultScrubberConfig()
		scrub.SensitivePatterns = c.Scrubbing.Patterns
		if c.Scrubbing.MaxMessageSize > 0 {
			scrub.MaxMessageSize = c.Scrubbing.MaxMessageSize
		}
		scrub.FailClosed = c.Scrubbing.FailClosed
		opts = append(opts, WithScrubber(scrub))
	}
	return opts, nil
}
