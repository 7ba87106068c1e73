package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/getmockd/carshop/pkg/carclient"
	"github.com/getmockd/carshop/pkg/cliconfig"
	"github.com/getmockd/carshop/pkg/collection"
	"github.com/getmockd/carshop/pkg/logging"
)

var errCarNotFound = errors.New("car not found")

// app bundles what a command needs to talk to the service.
type app struct {
	cfg      *cliconfig.CLIConfig
	logger   *slog.Logger
	closeLog func() error
	client   *carclient.Client
	store    *collection.Store
}

func (a *app) Close() {
	_ = a.closeLog()
}

// loadConfig resolves configuration with flags applied on top.
func (o *rootOptions) loadConfig(cmd *cobra.Command) (*cliconfig.CLIConfig, error) {
	cfg, err := cliconfig.Loader{LocalDir: o.workDir, Getenv: o.getenv}.Load()
	if err != nil {
		return nil, err
	}

	f := cmd.Flags()
	flagCfg := &cliconfig.CLIConfig{}
	if f.Changed("base-url") {
		flagCfg.BaseURL = o.baseURL
	}
	if f.Changed("timeout") {
		d, err := cliconfig.ParseDuration(o.timeout)
		if err != nil {
			return nil, fmt.Errorf("--timeout: %w", err)
		}
		flagCfg.Timeout = d
	}
	if f.Changed("log-level") {
		flagCfg.LogLevel = o.logLevel
	}
	if f.Changed("log-format") {
		flagCfg.LogFormat = o.logFormat
	}
	cliconfig.MergeConfig(cfg, flagCfg, cliconfig.SourceFlag)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newApp loads configuration and builds the logger, client and store.
// tweak, when not nil, adjusts the logging config before use.
func (o *rootOptions) newApp(cmd *cobra.Command, tweak func(*logging.Config)) (*app, error) {
	cfg, err := o.loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logCfg := logging.Config{
		Level:  logging.ParseLevel(cfg.LogLevel),
		Format: logging.ParseFormat(cfg.LogFormat),
		Output: o.stderr,
	}
	if tweak != nil {
		tweak(&logCfg)
	}
	logger, closeLog, err := logging.New(logCfg)
	if err != nil {
		return nil, err
	}

	clientOpts := []carclient.Option{
		carclient.WithTimeout(cfg.Timeout.Std()),
		carclient.WithLogger(logger),
	}
	if cfg.Strict {
		clientOpts = append(clientOpts, carclient.WithStrictEnvelope())
	}
	client := carclient.New(cfg.BaseURL, clientOpts...)

	return &app{
		cfg:      cfg,
		logger:   logger,
		closeLog: closeLog,
		client:   client,
		store:    collection.New(client, collection.WithLogger(logger)),
	}, nil
}
