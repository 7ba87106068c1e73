package cli

import (
	"fmt"
	"net"
	"os"

	"github.com/spf13/cobra"

	"github.com/getmockd/carshop/pkg/logging"
	"github.com/getmockd/carshop/pkg/stub"
)

func newStubCmd(o *rootOptions) *cobra.Command {
	var (
		addr string
		seed bool
	)
	cmd := &cobra.Command{
		Use:   "stub",
		Short: "Run an in-memory car service",
		Long: `Run an in-memory server implementing the /cars collection. Data is lost
when the server stops. Point other commands at it with --base-url.`,
		Example: `  carshop stub --seed
  carshop stub --addr 127.0.0.1:9000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.loadConfig(cmd)
			if err != nil {
				return err
			}
			logger, closeLog, err := logging.New(logging.Config{
				Level:  logging.ParseLevel(cfg.LogLevel),
				Format: logging.ParseFormat(cfg.LogFormat),
				Output: o.stderr,
			})
			if err != nil {
				return err
			}
			defer func() { _ = closeLog() }()

			opts := []stub.Option{stub.WithLogger(logger)}
			if seed {
				opts = append(opts, stub.WithSeed(stub.SampleCars()...))
			}
			srv, err := stub.New(opts...)
			if err != nil {
				return err
			}

			return srv.ListenAndServe(cmd.Context(), addr, func(a net.Addr) {
				_, _ = fmt.Fprintf(o.stdout, "Serving /cars on http://%s\n", displayAddr(a))
				_, _ = fmt.Fprintln(o.stdout, "Press Ctrl+C to stop")
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	cmd.Flags().BoolVar(&seed, "seed", false, "Start with sample cars")
	return cmd
}

// displayAddr replaces an unspecified host with localhost.
func displayAddr(a net.Addr) string {
	tcp, ok := a.(*net.TCPAddr)
	if !ok || !tcp.IP.IsUnspecified() {
		return a.String()
	}
	return net.JoinHostPort("localhost", fmt.Sprint(tcp.Port))
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
