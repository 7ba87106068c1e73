package cliconfig

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Environment variable names
const (
	EnvBaseURL   = "CARSHOP_BASE_URL"
	EnvTimeout   = "CARSHOP_TIMEOUT"
	EnvPageSize  = "CARSHOP_PAGE_SIZE"
	EnvLogLevel  = "CARSHOP_LOG_LEVEL"
	EnvLogFormat = "CARSHOP_LOG_FORMAT"
	EnvStrict    = "CARSHOP_STRICT"
)

// LoadEnvConfig loads configuration from environment variables.
// It only sets values that are present. Unparseable values are reported
// together and leave the affected fields unchanged.
func LoadEnvConfig(cfg *CLIConfig, getenv func(string) string) error {
	if cfg.Sources == nil {
		cfg.Sources = make(map[string]string)
	}
	var errs []error

	if v := getenv(EnvBaseURL); v != "" {
		cfg.BaseURL = v
		cfg.Sources["baseUrl"] = SourceEnv
	}

	if v := getenv(EnvTimeout); v != "" {
		if d, err := ParseDuration(v); err == nil {
			cfg.Timeout = d
			cfg.Sources["timeout"] = SourceEnv
		} else {
			errs = append(errs, fmt.Errorf("%s: %w", EnvTimeout, err))
		}
	}

	if v := getenv(EnvPageSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.PageSize = n
			cfg.Sources["pageSize"] = SourceEnv
		} else {
			errs = append(errs, fmt.Errorf("%s: %q is not an integer", EnvPageSize, v))
		}
	}

	if v := getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
		cfg.Sources["logLevel"] = SourceEnv
	}

	if v := getenv(EnvLogFormat); v != "" {
		cfg.LogFormat = v
		cfg.Sources["logFormat"] = SourceEnv
	}

	if v := getenv(EnvStrict); v != "" {
		cfg.Strict = parseBool(v)
		cfg.Sources["strict"] = SourceEnv
	}

	return errors.Join(errs...)
}

func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}
