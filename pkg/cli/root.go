package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/getmockd/carshop/pkg/carclient"
	"github.com/getmockd/carshop/pkg/form"
)

var (
	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// rootOptions holds the persistent flags and the process environment shared
// by every subcommand.
type rootOptions struct {
	baseURL    string
	timeout    string
	logLevel   string
	logFormat  string
	jsonOutput bool

	stdout io.Writer
	stderr io.Writer
	getenv func(string) string
	// workDir is searched for a local config file. Empty means the working
	// directory.
	workDir string

	prompt  draftPrompter
	confirm confirmPrompter
}

// NewRootCommand builds the carshop command tree writing to stdout and stderr.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	o := &rootOptions{
		stdout:  stdout,
		stderr:  stderr,
		getenv:  os.Getenv,
		prompt:  promptDraft,
		confirm: promptConfirm,
	}
	return newRootCommand(o)
}

func newRootCommand(o *rootOptions) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "carshop",
		Short: "carshop manages a remote car inventory",
		Long: `carshop lists, adds, edits and deletes cars held by a REST service that
serves the /cars collection as HAL JSON.

Configuration can be provided via flags, environment variables (CARSHOP_*),
a local .carshoprc.yaml or a global ~/.config/carshop/config.yaml.`,
		// No Run function here means 'carshop' with no args will print help text by default.
		SilenceUsage:  true,
		SilenceErrors: true, // errors are printed by Main
	}
	rootCmd.SetOut(o.stdout)
	rootCmd.SetErr(o.stderr)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&o.baseURL, "base-url", "", "Car service base URL (default from config)")
	pf.StringVar(&o.timeout, "timeout", "", "HTTP timeout, e.g. 10s (default 30s)")
	pf.StringVar(&o.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&o.logFormat, "log-format", "", "Log format: text, json")
	pf.BoolVar(&o.jsonOutput, "json", false, "Output command results in JSON format")

	rootCmd.AddCommand(
		newListCmd(o),
		newAddCmd(o),
		newEditCmd(o),
		newDeleteCmd(o),
		newTUICmd(o),
		newConfigCmd(o),
		newStubCmd(o),
		newVersionCmd(o),
	)
	return rootCmd
}

// Execute runs the CLI and exits the process with its status.
// This is called by main.main().
func Execute() {
	os.Exit(Main())
}

// Main runs the CLI with os.Args and returns the exit code.
func Main() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

// Run executes args and returns the exit code. Errors are printed to stderr
// with suggestions.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCommand(stdout, stderr)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, FormatError(err))
		return 1
	}
	return 0
}

// FormatError returns a user-facing description of err with suggestions.
func FormatError(err error) string {
	var re *form.RequiredError
	if errors.As(err, &re) {
		names := make([]string, len(re.Fields))
		for i, f := range re.Fields {
			names[i] = "--" + flagName(f)
		}
		return fmt.Sprintf(`Error: missing required fields: %s

Suggestions:
  • Pass them as flags: %s
  • Or run without field flags to fill in a form`, strings.Join(re.Fields, ", "), strings.Join(names, " "))
	}
	if errors.Is(err, errCarNotFound) {
		return `Error: ` + err.Error() + `

Suggestions:
  • Check the ID with: carshop list`
	}
	return carclient.FormatError(err)
}
