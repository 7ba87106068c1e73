package grid

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/expr-lang/expr/vm"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/getmockd/carshop/pkg/car"
)

// DefaultPageSize is the number of rows per page when Query.PageSize is 0.
const DefaultPageSize = 10

// ActionsColumn is the name of the non-data column holding row actions.
const ActionsColumn = "actions"

// Column describes one grid column.
type Column struct {
	Field      string
	Header     string
	Numeric    bool
	Sortable   bool
	Filterable bool
}

// Columns lists the grid columns in display order.
var Columns = buildColumns()

func buildColumns() []Column {
	cols := make([]Column, 0, len(car.Fields)+1)
	for _, f := range car.Fields {
		cols = append(cols, Column{
			Field:      f.Name,
			Header:     f.Label,
			Numeric:    f.Numeric,
			Sortable:   true,
			Filterable: true,
		})
	}
	return append(cols, Column{Field: ActionsColumn, Header: "Actions"})
}

// LookupColumn returns the column for field.
func LookupColumn(field string) (Column, bool) {
	for _, c := range Columns {
		if c.Field == field {
			return c, true
		}
	}
	return Column{}, false
}

// Query selects, orders and pages rows.
type Query struct {
	SortBy   string
	Desc     bool
	Filters  map[string]string
	Where    string
	Page     int
	PageSize int
	// Search keeps rows where any filterable column matches.
	Search string
}

// Page is one page of query results.
type Page struct {
	Rows []car.Car
	// Number is the 1-based page number after clamping.
	Number int
	// Count is the number of pages; at least 1.
	Count int
	// Total is the number of rows that matched before paging.
	Total int
}

// Apply runs q over cars. cars is not modified.
func Apply(cars []car.Car, q Query) (Page, error) {
	rows, err := Filter(cars, q.Filters, q.Where)
	if err != nil {
		return Page{}, err
	}
	if q.Search != "" {
		rows = Search(rows, q.Search)
	}
	if q.SortBy != "" {
		if err := Sort(rows, q.SortBy, q.Desc); err != nil {
			return Page{}, err
		}
	}
	return Paginate(rows, q.Page, q.PageSize), nil
}

// Filter returns the cars matching every column filter and the where
// expression. Empty filter values are ignored.
func Filter(cars []car.Car, filters map[string]string, where string) ([]car.Car, error) {
	for field := range filters {
		col, ok := LookupColumn(field)
		if !ok || !col.Filterable {
			return nil, fmt.Errorf("cannot filter on %q", field)
		}
	}

	var program *vm.Program
	if strings.TrimSpace(where) != "" {
		p, err := compileWhere(where)
		if err != nil {
			return nil, err
		}
		program = p
	}

	out := make([]car.Car, 0, len(cars))
	for _, c := range cars {
		if !matchFilters(c, filters) {
			continue
		}
		if program != nil && !evalWhere(program, c) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func matchFilters(c car.Car, filters map[string]string) bool {
	for field, pattern := range filters {
		if pattern == "" {
			continue
		}
		value, _ := c.Get(field)
		if !MatchValue(pattern, value) {
			return false
		}
	}
	return true
}

// Search returns the cars where at least one filterable column matches
// pattern. The id counts as a column.
func Search(cars []car.Car, pattern string) []car.Car {
	out := make([]car.Car, 0, len(cars))
	for _, c := range cars {
		if MatchValue(pattern, c.ID) {
			out = append(out, c)
			continue
		}
		for _, col := range Columns {
			if !col.Filterable {
				continue
			}
			if v, _ := c.Get(col.Field); MatchValue(pattern, v) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// MatchValue reports whether value matches a column filter pattern. Patterns
// with glob metacharacters match the whole value with doublestar; others
// match as a substring. Both ignore case.
func MatchValue(pattern, value string) bool {
	pattern = strings.ToLower(pattern)
	value = strings.ToLower(value)
	if strings.ContainsAny(pattern, "*?[{") {
		ok, err := doublestar.Match(pattern, value)
		if err == nil {
			return ok
		}
	}
	return strings.Contains(value, pattern)
}

// Sort orders cars in place by field. Ties keep their order.
func Sort(cars []car.Car, field string, desc bool) error {
	col, ok := LookupColumn(field)
	if !ok || !col.Sortable {
		return fmt.Errorf("cannot sort on %q", field)
	}

	less := textLess()
	if col.Numeric {
		less = numericLess(less)
	}

	sort.SliceStable(cars, func(i, j int) bool {
		a, _ := cars[i].Get(field)
		b, _ := cars[j].Get(field)
		if desc {
			return less(b, a)
		}
		return less(a, b)
	})
	return nil
}

var (
	collatorMu sync.Mutex
	collator   = collate.New(language.English, collate.IgnoreCase)
)

func textLess() func(a, b string) bool {
	return func(a, b string) bool {
		collatorMu.Lock()
		defer collatorMu.Unlock()
		return collator.CompareString(a, b) < 0
	}
}

// numericLess compares as numbers when both sides parse and falls back to
// text otherwise.
func numericLess(text func(a, b string) bool) func(a, b string) bool {
	return func(a, b string) bool {
		x, errA := strconv.ParseFloat(strings.TrimSpace(a), 64)
		y, errB := strconv.ParseFloat(strings.TrimSpace(b), 64)
		if errA == nil && errB == nil {
			return x < y
		}
		return text(a, b)
	}
}

// Paginate returns page number (1-based) of rows. size <= 0 means
// DefaultPageSize; number is clamped into [1, Count].
func Paginate(rows []car.Car, number, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	total := len(rows)
	count := (total + size - 1) / size
	if count == 0 {
		count = 1
	}
	if number < 1 {
		number = 1
	}
	if number > count {
		number = count
	}

	start := (number - 1) * size
	end := start + size
	if end > total {
		end = total
	}
	page := make([]car.Car, end-start)
	copy(page, rows[start:end])

	return Page{Rows: page, Number: number, Count: count, Total: total}
}
