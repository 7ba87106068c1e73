package cli

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/getmockd/carshop/pkg/collection"
	"github.com/getmockd/carshop/pkg/form"
	"github.com/getmockd/carshop/pkg/logging"
	"github.com/getmockd/carshop/pkg/tui"
)

func newTUICmd(o *rootOptions) *cobra.Command {
	var logFile string
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Browse and edit cars in a terminal UI",
		Long: `Open a full-screen grid of the collection.

Keys: a add, e/enter edit, d delete, r reload, s sort, S reverse sort,
/ filter, n/p page, q quit. Logs go to --log-file since the screen owns
the terminal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.newApp(cmd, func(c *logging.Config) {
				c.Output = io.Discard
				c.File = logFile
			})
			if err != nil {
				return err
			}
			defer a.Close()

			rec := &collection.Recorder{}
			notify := collection.NotifierFunc(func(n collection.Notice) {
				a.logger.Info("notice", "kind", n.Kind, "message", n.Message)
				rec.Notify(n)
			})
			store := collection.New(a.client, collection.WithLogger(a.logger), collection.WithNotifier(notify))
			ctl := form.NewController(store, form.WithLogger(a.logger))
			m := tui.New(store, ctl,
				tui.WithNotices(rec),
				tui.WithLogger(a.logger),
				tui.WithPageSize(a.cfg.PageSize),
			)
			return tui.Run(cmd.Context(), m, tea.WithInput(cmd.InOrStdin()), tea.WithOutput(o.stdout))
		},
	}
	cmd.Flags().StringVar(&logFile, "log-file", "", "Append logs to this file as JSON")
	return cmd
}
