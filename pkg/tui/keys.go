package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
)

type keyMap struct {
	Quit    key.Binding
	Add     key.Binding
	Edit    key.Binding
	Delete  key.Binding
	Reload  key.Binding
	Sort    key.Binding
	Reverse key.Binding
	Search  key.Binding
	Next    key.Binding
	Prev    key.Binding

	// modal and dialogs
	NextField key.Binding
	PrevField key.Binding
	Submit    key.Binding
	Cancel    key.Binding
	Yes       key.Binding
	No        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Add:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Edit:    key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e", "edit")),
		Delete:  key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
		Reload:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Sort:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
		Reverse: key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "reverse")),
		Search:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		Next:    key.NewBinding(key.WithKeys("n", "right"), key.WithHelp("n", "next page")),
		Prev:    key.NewBinding(key.WithKeys("p", "left"), key.WithHelp("p", "prev page")),

		NextField: key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
		PrevField: key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev field")),
		Submit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
		Cancel:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Yes:       key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "yes")),
		No:        key.NewBinding(key.WithKeys("n", "N", "esc"), key.WithHelp("n", "no")),
	}
}

// ShortHelp implements help.KeyMap for the browse view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Add, k.Edit, k.Delete, k.Reload, k.Sort, k.Search, k.Next, k.Prev, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Add, k.Edit, k.Delete, k.Reload},
		{k.Sort, k.Reverse, k.Search},
		{k.Next, k.Prev, k.Quit},
	}
}

// formHelp is the help map shown while the modal is open.
type formHelp struct{ k keyMap }

func (f formHelp) ShortHelp() []key.Binding {
	return []key.Binding{f.k.NextField, f.k.PrevField, f.k.Submit, f.k.Cancel}
}

func (f formHelp) FullHelp() [][]key.Binding { return [][]key.Binding{f.ShortHelp()} }

// tableKeyMap keeps row navigation only. The default map binds d, u, b and
// f, which collide with the browse actions.
func tableKeyMap() table.KeyMap {
	return table.KeyMap{
		LineUp:     key.NewBinding(key.WithKeys("up", "k")),
		LineDown:   key.NewBinding(key.WithKeys("down", "j")),
		PageUp:     key.NewBinding(key.WithKeys("pgup")),
		PageDown:   key.NewBinding(key.WithKeys("pgdown")),
		GotoTop:    key.NewBinding(key.WithKeys("home", "g")),
		GotoBottom: key.NewBinding(key.WithKeys("end", "G")),
	}
}
