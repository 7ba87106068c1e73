package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/carshop/pkg/cli/internal/output"
	"github.com/getmockd/carshop/pkg/cliconfig"
)

// configOutput is the JSON shape of `carshop config --json`.
type configOutput struct {
	Config  *cliconfig.CLIConfig `json:"config"`
	Sources map[string]string    `json:"sources"`
	Files   configFiles          `json:"files"`
}

type configFiles struct {
	Local  string `json:"local,omitempty"`
	Global string `json:"global,omitempty"`
}

func newConfigCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show effective configuration",
		Long: `Show the effective configuration and where each value came from.

Precedence: flags > environment > .carshoprc.yaml > global config > defaults.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.loadConfig(cmd)
			if err != nil {
				return err
			}

			files := configFiles{}
			if o.workDir != "" {
				for _, p := range cliconfig.LocalConfigPaths(o.workDir) {
					if fileExists(p) {
						files.Local = p
						break
					}
				}
			} else {
				files.Local, _ = cliconfig.FindLocalConfig()
			}
			files.Global, _ = cliconfig.FindGlobalConfig()

			if o.jsonOutput {
				return output.JSON(o.stdout, configOutput{Config: cfg, Sources: cfg.Sources, Files: files})
			}

			values := map[string]string{
				"baseUrl":   cfg.BaseURL,
				"timeout":   cfg.Timeout.String(),
				"pageSize":  fmt.Sprint(cfg.PageSize),
				"logLevel":  cfg.LogLevel,
				"logFormat": cfg.LogFormat,
				"strict":    fmt.Sprint(cfg.Strict),
			}
			tw := output.Table(o.stdout)
			_, _ = fmt.Fprintln(tw, "KEY\tVALUE\tSOURCE")
			for _, key := range cliconfig.Keys {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", key, values[key], cfg.Sources[key])
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			_, _ = fmt.Fprintln(o.stdout)
			_, _ = fmt.Fprintf(o.stdout, "Local config:  %s\n", orNone(files.Local))
			_, err = fmt.Fprintf(o.stdout, "Global config: %s\n", orNone(files.Global))
			return err
		},
	}
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
