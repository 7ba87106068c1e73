// Package cliconfig provides configuration types and loading for the carshop CLI.
package cliconfig

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// CLIConfig represents the complete configuration for the carshop CLI.
// Configuration values can come from multiple sources with the following precedence:
// 1. Command-line flags (highest priority)
// 2. Environment variables
// 3. Local config file (.carshoprc.yaml in current directory)
// 4. Global config file (~/.config/carshop/config.yaml)
// 5. Default values (lowest priority)
type CLIConfig struct {
	// Server settings
	BaseURL string   `yaml:"baseUrl" json:"baseUrl"`
	Timeout Duration `yaml:"timeout" json:"timeout"`
	Strict  bool     `yaml:"strict" json:"strict"`

	// Display settings
	PageSize int `yaml:"pageSize" json:"pageSize"`

	// Logging settings
	LogLevel  string `yaml:"logLevel" json:"logLevel"`
	LogFormat string `yaml:"logFormat" json:"logFormat"`

	// Source tracks where each value came from (for debugging)
	Sources map[string]string `yaml:"-" json:"-"`

	// SetFields records which keys were present in a loaded file, so an
	// explicit false can override a true from a lower-priority source.
	SetFields map[string]bool `yaml:"-" json:"-"`
}

// ConfigSource identifies where a config value originated.
const (
	SourceDefault = "default"
	SourceEnv     = "env"
	SourceGlobal  = "global"
	SourceLocal   = "local"
	SourceFlag    = "flag"
)

// Duration is a time.Duration that reads and writes as text ("30s").
// Bare integers are read as seconds.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// ParseDuration parses "30s", "1m" or a bare number of seconds.
func ParseDuration(s string) (Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty duration")
	}
	if isDigits(s) {
		s += "s"
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return Duration(v), nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Validate checks the configuration for values the CLI cannot use.
func (c *CLIConfig) Validate() error {
	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("baseUrl %q must be an absolute http or https URL", c.BaseURL)
		}
	}
	if c.Timeout < 0 || c.Timeout.Std() > MaxTimeout {
		return fmt.Errorf("timeout %s is out of range (0-%s)", c.Timeout, MaxTimeout)
	}
	if c.PageSize < 0 || c.PageSize > MaxPageSize {
		return fmt.Errorf("pageSize %d is out of range (0-%d)", c.PageSize, MaxPageSize)
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logLevel %q is not one of debug, info, warn, error", c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("logFormat %q is not one of text, json", c.LogFormat)
	}
	return nil
}
