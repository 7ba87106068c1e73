package cliconfig

import "time"

// DefaultBaseURL is the hosted car REST service.
const DefaultBaseURL = "https://car-rest-service-carshop.2.rahtiapp.fi"

// DefaultTimeout is the default HTTP timeout.
const DefaultTimeout = 30 * time.Second

// MaxTimeout is the largest accepted HTTP timeout.
const MaxTimeout = 10 * time.Minute

// DefaultPageSize is the default number of grid rows per page.
const DefaultPageSize = 10

// MaxPageSize is the largest accepted page size.
const MaxPageSize = 1000

// DefaultLogLevel is the default minimum log level.
const DefaultLogLevel = "warn"

// DefaultLogFormat is the default log output format.
const DefaultLogFormat = "text"

// NewDefault creates a new CLIConfig with default values.
func NewDefault() *CLIConfig {
	cfg := &CLIConfig{
		BaseURL:   DefaultBaseURL,
		Timeout:   Duration(DefaultTimeout),
		PageSize:  DefaultPageSize,
		LogLevel:  DefaultLogLevel,
		LogFormat: DefaultLogFormat,
		Sources:   make(map[string]string),
	}

	for _, key := range Keys {
		cfg.Sources[key] = SourceDefault
	}

	return cfg
}

// Keys lists every config key in display order.
var Keys = []string{"baseUrl", "timeout", "pageSize", "logLevel", "logFormat", "strict"}
