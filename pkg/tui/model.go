package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/getmockd/carshop/pkg/car"
	"github.com/getmockd/carshop/pkg/collection"
	"github.com/getmockd/carshop/pkg/form"
	"github.com/getmockd/carshop/pkg/grid"
	"github.com/getmockd/carshop/pkg/logging"
)

// Store is the part of the collection store the grid drives directly.
// Modal writes go through the form.Controller.
type Store interface {
	Snapshot() *collection.Snapshot
	Reload(ctx context.Context) error
	Remove(ctx context.Context, id string, confirm collection.Confirmer) error
}

var _ Store = (*collection.Store)(nil)

type mode int

const (
	modeBrowse mode = iota
	modeForm
	modeConfirm
	modeSearch
	modeAlert
)

type op int

const (
	opReload op = iota
	opSubmit
	opRemove
)

// doneMsg reports a finished store operation.
type doneMsg struct {
	op  op
	err error
}

type alert struct {
	message string
	isError bool
}

// chrome is the number of lines around the table: title, status, help and
// spacing.
const chrome = 6

// Model is the bubbletea model of the car grid.
type Model struct {
	store   Store
	ctl     *form.Controller
	notices *collection.Recorder
	logger  *slog.Logger
	keys    keyMap

	mode mode
	// prev is restored once the alert queue is empty.
	prev    mode
	alerts  []alert
	loading bool
	busy    bool

	query grid.Query
	page  grid.Page
	table table.Model
	help  help.Model

	inputs  []textinput.Model
	focus   int
	formErr string

	confirmID    string
	confirmLabel string

	search textinput.Model

	width  int
	height int
}

// Option configures a Model.
type Option func(*Model)

// WithLogger sets the logger. The screen owns stdout and stderr, so callers
// should hand in a file-backed or discarding logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithNotices sets the recorder the store publishes to. Its notices become
// alerts. Without it, only errors are shown.
func WithNotices(r *collection.Recorder) Option {
	return func(m *Model) { m.notices = r }
}

// WithPageSize sets the number of rows per page.
func WithPageSize(n int) Option {
	return func(m *Model) { m.query.PageSize = n }
}

// New returns a Model over store. ctl must write to the same store.
func New(store Store, ctl *form.Controller, opts ...Option) Model {
	m := Model{
		store:   store,
		ctl:     ctl,
		logger:  logging.Nop(),
		keys:    defaultKeyMap(),
		help:    help.New(),
		loading: true,
		query:   grid.Query{Page: 1},
	}
	for _, opt := range opts {
		opt(&m)
	}

	m.table = table.New(
		table.WithColumns(m.columns()),
		table.WithFocused(true),
		table.WithHeight(grid.DefaultPageSize+1),
		table.WithKeyMap(tableKeyMap()),
		table.WithStyles(tableStyles()),
	)

	m.inputs = make([]textinput.Model, len(car.Fields))
	for i, f := range car.Fields {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = f.Label
		ti.CharLimit = 64
		ti.Width = 30
		m.inputs[i] = ti
	}

	m.search = textinput.New()
	m.search.Prompt = "/"
	m.search.Placeholder = "filter all columns"
	m.search.CharLimit = 64

	m.refresh()
	return m
}

// Run starts a full-screen program for m and blocks until it quits.
func Run(ctx context.Context, m Model, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	_, err := tea.NewProgram(m, opts...).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Init loads the collection once.
func (m Model) Init() tea.Cmd {
	return m.reload()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.table.SetWidth(msg.Width)
		if h := msg.Height - chrome; h > 2 {
			m.table.SetHeight(h)
		}
		return m, nil

	case doneMsg:
		return m.handleDone(msg), nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case modeAlert:
			return m.updateAlert(msg), nil
		case modeForm:
			return m.updateForm(msg)
		case modeConfirm:
			return m.updateConfirm(msg)
		case modeSearch:
			return m.updateSearch(msg)
		default:
			return m.updateBrowse(msg)
		}
	}
	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Add):
		if err := m.ctl.OpenAdd(); err != nil {
			return m.fail(err), nil
		}
		cmd := m.openForm()
		return m, cmd

	case key.Matches(msg, m.keys.Edit):
		record, ok := m.selected()
		if !ok {
			return m, nil
		}
		if err := m.ctl.OpenEdit(record); err != nil {
			return m.fail(err), nil
		}
		cmd := m.openForm()
		return m, cmd

	case key.Matches(msg, m.keys.Delete):
		record, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.confirmID = record.ID
		m.confirmLabel = strings.TrimSpace(record.Brand + " " + record.Model)
		m.mode = modeConfirm
		return m, nil

	case key.Matches(msg, m.keys.Reload):
		if m.loading {
			return m, nil
		}
		m.loading = true
		return m, m.reload()

	case key.Matches(msg, m.keys.Sort):
		m.query.SortBy = nextSortField(m.query.SortBy)
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.Reverse):
		if m.query.SortBy == "" {
			m.query.SortBy = nextSortField("")
		}
		m.query.Desc = !m.query.Desc
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.Search):
		m.mode = modeSearch
		m.table.Blur()
		cmd := m.search.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.Next):
		m.query.Page++
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.Prev):
		if m.query.Page > 1 {
			m.query.Page--
			m.refresh()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Cancel):
		if err := m.ctl.Cancel(); err != nil {
			return m.fail(err), nil
		}
		m.closeForm()
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		m.formErr = ""
		m.busy = true
		return m, m.submit()

	case key.Matches(msg, m.keys.NextField):
		cmd := m.focusField(m.focus + 1)
		return m, cmd

	case key.Matches(msg, m.keys.PrevField):
		cmd := m.focusField(m.focus - 1)
		return m, cmd
	}

	field := car.Fields[m.focus]
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	value := m.inputs[m.focus].Value()
	if field.Numeric {
		if clean := form.NumericFilter(value); clean != value {
			value = clean
			m.inputs[m.focus].SetValue(value)
		}
	}
	if err := m.ctl.FieldChange(field.Name, value); err != nil {
		m.logger.Warn("field change rejected", "field", field.Name, "error", err)
	}
	return m, cmd
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Yes):
		m.mode = modeBrowse
		return m, m.remove(m.confirmID, collection.Answer(true))
	case key.Matches(msg, m.keys.No):
		m.mode = modeBrowse
		return m, m.remove(m.confirmID, collection.Answer(false))
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.search.SetValue("")
		fallthrough
	case "enter":
		m.search.Blur()
		m.table.Focus()
		m.mode = modeBrowse
		m.query.Search = m.search.Value()
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.query.Search = m.search.Value()
	m.query.Page = 1
	m.refresh()
	return m, cmd
}

func (m Model) updateAlert(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "enter", "esc", " ":
		m.alerts = m.alerts[1:]
		if len(m.alerts) == 0 {
			m.mode = m.prev
		}
	}
	return m
}

func (m Model) handleDone(msg doneMsg) Model {
	base := m.mode
	if base == modeAlert {
		base = m.prev
	}

	var notices []collection.Notice
	if m.notices != nil {
		notices = m.notices.Drain()
	}

	switch msg.op {
	case opReload:
		m.loading = false
	case opRemove:
		if base == modeConfirm {
			base = modeBrowse
		}
	case opSubmit:
		m.busy = false
		var re *form.RequiredError
		if errors.As(msg.err, &re) {
			m.formErr = "Required: " + strings.Join(labels(re.Fields), ", ")
			m.refresh()
			return m
		}
		if m.ctl.State() == form.Closed {
			m.closeForm()
			base = modeBrowse
		} else {
			base = modeForm
		}
	}

	if msg.err != nil {
		m.logger.Debug("store operation failed", "op", msg.op, "error", msg.err)
		if len(notices) == 0 {
			notices = append(notices, collection.Notice{Kind: collection.KindError, Message: msg.err.Error(), Err: msg.err})
		}
	}

	m.refresh()
	for _, n := range notices {
		m.alerts = append(m.alerts, alert{message: n.Message, isError: n.Kind == collection.KindError})
	}
	if len(m.alerts) > 0 {
		m.prev = base
		m.mode = modeAlert
	} else {
		m.mode = base
	}
	return m
}

// fail shows err as an alert over the current mode.
func (m Model) fail(err error) Model {
	if m.mode != modeAlert {
		m.prev = m.mode
	}
	m.alerts = append(m.alerts, alert{message: err.Error(), isError: true})
	m.mode = modeAlert
	return m
}

func (m *Model) openForm() tea.Cmd {
	draft := m.ctl.Buffer()
	for i, f := range car.Fields {
		v, _ := draft.Get(f.Name)
		m.inputs[i].SetValue(v)
		m.inputs[i].CursorEnd()
	}
	m.formErr = ""
	m.mode = modeForm
	m.table.Blur()
	return m.focusField(0)
}

func (m *Model) closeForm() {
	for i := range m.inputs {
		m.inputs[i].Blur()
		m.inputs[i].SetValue("")
	}
	m.formErr = ""
	m.focus = 0
	m.mode = modeBrowse
	m.table.Focus()
}

// focusField moves focus to field i, wrapping around.
func (m *Model) focusField(i int) tea.Cmd {
	n := len(m.inputs)
	i = ((i % n) + n) % n
	m.inputs[m.focus].Blur()
	m.focus = i
	return m.inputs[i].Focus()
}

// selected returns the record under the cursor from the current snapshot.
func (m Model) selected() (car.Car, bool) {
	row := m.table.SelectedRow()
	if len(row) == 0 {
		return car.Car{}, false
	}
	return m.store.Snapshot().Find(row[0])
}

// refresh re-applies the query to the current snapshot.
func (m *Model) refresh() {
	page, err := grid.Apply(m.store.Snapshot().Cars, m.query)
	if err != nil {
		m.logger.Warn("grid query failed", "error", err)
		return
	}
	m.page = page
	m.query.Page = page.Number

	rows := make([]table.Row, len(page.Rows))
	for i, c := range page.Rows {
		row := table.Row{c.ID}
		for _, f := range car.Fields {
			v, _ := c.Get(f.Name)
			row = append(row, v)
		}
		rows[i] = row
	}
	m.table.SetColumns(m.columns())
	m.table.SetRows(rows)
	// SetCursor on an empty table leaves the cursor at -1.
	if c := m.table.Cursor(); c < 0 || c >= len(rows) {
		m.table.SetCursor(max(min(c, len(rows)-1), 0))
	}
}

var columnWidths = map[string]int{
	car.FieldBrand:     14,
	car.FieldModel:     14,
	car.FieldColor:     10,
	car.FieldFuel:      10,
	car.FieldModelYear: 7,
	car.FieldPrice:     10,
}

func (m Model) columns() []table.Column {
	cols := []table.Column{{Title: "ID", Width: 6}}
	for _, c := range grid.Columns {
		if c.Field == grid.ActionsColumn {
			continue
		}
		title := c.Header
		if c.Field == m.query.SortBy {
			if m.query.Desc {
				title += " ▼"
			} else {
				title += " ▲"
			}
		}
		cols = append(cols, table.Column{Title: title, Width: columnWidths[c.Field]})
	}
	return cols
}

// nextSortField cycles through the sortable columns and back to unsorted.
func nextSortField(current string) string {
	var fields []string
	for _, c := range grid.Columns {
		if c.Sortable {
			fields = append(fields, c.Field)
		}
	}
	if current == "" {
		return fields[0]
	}
	for i, f := range fields {
		if f == current && i+1 < len(fields) {
			return fields[i+1]
		}
	}
	return ""
}

func labels(fields []string) []string {
	out := make([]string, len(fields))
	for i, name := range fields {
		out[i] = name
		if f, ok := car.LookupField(name); ok {
			out[i] = f.Label
		}
	}
	return out
}

func (m Model) reload() tea.Cmd {
	store := m.store
	return func() tea.Msg {
		return doneMsg{op: opReload, err: store.Reload(context.Background())}
	}
}

func (m Model) submit() tea.Cmd {
	ctl := m.ctl
	return func() tea.Msg {
		return doneMsg{op: opSubmit, err: ctl.Submit(context.Background())}
	}
}

func (m Model) remove(id string, confirm collection.Confirmer) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		return doneMsg{op: opRemove, err: store.Remove(context.Background(), id, confirm)}
	}
}

func (o op) String() string {
	switch o {
	case opReload:
		return "reload"
	case opSubmit:
		return "submit"
	case opRemove:
		return "remove"
	}
	return fmt.Sprintf("op(%d)", int(o))
}
