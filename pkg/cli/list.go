package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/getmockd/carshop/pkg/car"
	"github.com/getmockd/carshop/pkg/cli/internal/flags"
	"github.com/getmockd/carshop/pkg/cli/internal/output"
	"github.com/getmockd/carshop/pkg/cli/internal/parse"
	"github.com/getmockd/carshop/pkg/grid"
)

// listOutput is the JSON shape of `carshop list --json`.
type listOutput struct {
	Cars  []car.Car `json:"cars"`
	Page  int       `json:"page"`
	Pages int       `json:"pages"`
	Total int       `json:"total"`
}

func newListCmd(o *rootOptions) *cobra.Command {
	var (
		sortBy   string
		desc     bool
		filters  flags.StringSlice
		where    string
		page     int
		pageSize int
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List cars",
		Long: `List the cars held by the service, one page at a time.

Filters match case-insensitively as substrings; a pattern containing
glob characters (* ? [ {) must match the whole value.`,
		Example: `  carshop list
  carshop list --sort price --desc
  carshop list --filter fuel=diesel --filter 'model=A*'
  carshop list --where 'price < 20000 && modelYear >= 2015'
  carshop list --page 2 --page-size 5 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filterMap, err := parse.Filters(filters)
			if err != nil {
				return err
			}

			a, err := o.newApp(cmd, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.Reload(cmd.Context()); err != nil {
				return err
			}

			size := a.cfg.PageSize
			if cmd.Flags().Changed("page-size") {
				size = pageSize
			}
			p, err := grid.Apply(a.store.Snapshot().Cars, grid.Query{
				SortBy:   sortBy,
				Desc:     desc,
				Filters:  filterMap,
				Where:    where,
				Page:     page,
				PageSize: size,
			})
			if err != nil {
				return err
			}

			if o.jsonOutput {
				return output.JSON(o.stdout, listOutput{
					Cars:  p.Rows,
					Page:  p.Number,
					Pages: p.Count,
					Total: p.Total,
				})
			}
			return printPage(o.stdout, p)
		},
	}

	f := cmd.Flags()
	f.StringVar(&sortBy, "sort", "", "Sort by field: "+strings.Join(fieldNames(), ", "))
	f.BoolVar(&desc, "desc", false, "Sort in descending order")
	f.Var(&filters, "filter", "Column filter field=pattern (repeatable)")
	f.StringVar(&where, "where", "", "Row expression, e.g. 'price < 20000'")
	f.IntVar(&page, "page", 1, "Page number")
	f.IntVar(&pageSize, "page-size", grid.DefaultPageSize, "Rows per page (default from config)")
	return cmd
}

// printPage writes one grid page as an aligned table.
func printPage(w io.Writer, p grid.Page) error {
	if p.Total == 0 {
		_, err := fmt.Fprintln(w, "No cars found")
		return err
	}

	tw := output.Table(w)
	headers := []string{"ID"}
	for _, col := range grid.Columns {
		if col.Field == grid.ActionsColumn {
			continue
		}
		headers = append(headers, strings.ToUpper(col.Header))
	}
	_, _ = fmt.Fprintln(tw, strings.Join(headers, "\t"))

	for _, c := range p.Rows {
		cells := []string{c.ID}
		for _, f := range car.Fields {
			v, _ := c.Get(f.Name)
			cells = append(cells, output.Truncate(v, 24))
		}
		_, _ = fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\nPage %d of %d (%d %s)\n", p.Number, p.Count, p.Total, plural(p.Total, "car", "cars"))
	return err
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func fieldNames() []string {
	names := make([]string, len(car.Fields))
	for i, f := range car.Fields {
		names[i] = f.Name
	}
	return names
}
