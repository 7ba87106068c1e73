package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/getmockd/carshop/pkg/car"
	"github.com/getmockd/carshop/pkg/form"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	faintStyle = lipgloss.NewStyle().Faint(true)
	labelStyle = lipgloss.NewStyle().Width(8).Foreground(lipgloss.Color("246"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2)
	errBoxStyle = boxStyle.BorderForeground(lipgloss.Color("203"))
)

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	return s
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Car shop"))
	if m.loading {
		b.WriteString(faintStyle.Render("  loading…"))
	}
	b.WriteString("\n\n")

	switch m.mode {
	case modeForm:
		b.WriteString(m.formView())
		b.WriteString("\n")
		b.WriteString(m.help.View(formHelp{m.keys}))
		return b.String()
	case modeAlert:
		b.WriteString(m.alertView())
		return b.String()
	}

	if len(m.page.Rows) == 0 && !m.loading {
		b.WriteString(faintStyle.Render("No cars found"))
		b.WriteString("\n")
	} else {
		b.WriteString(m.table.View())
		b.WriteString("\n")
	}
	b.WriteString(m.statusLine())
	b.WriteString("\n")

	switch m.mode {
	case modeConfirm:
		b.WriteString(m.confirmView())
	case modeSearch:
		b.WriteString(m.search.View())
	default:
		b.WriteString(m.help.View(m.keys))
	}
	return b.String()
}

func (m Model) statusLine() string {
	parts := []string{fmt.Sprintf("Page %d of %d (%d cars)", m.page.Number, m.page.Count, m.page.Total)}
	if m.query.SortBy != "" {
		dir := "asc"
		if m.query.Desc {
			dir = "desc"
		}
		parts = append(parts, fmt.Sprintf("sort %s %s", m.query.SortBy, dir))
	}
	if m.query.Search != "" {
		parts = append(parts, fmt.Sprintf("filter %q", m.query.Search))
	}
	return faintStyle.Render(strings.Join(parts, " · "))
}

func (m Model) formView() string {
	title := "Add car"
	if m.ctl.State() == form.EditOpen {
		title = "Edit car " + m.ctl.EditTargetID()
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")
	for i, f := range car.Fields {
		b.WriteString(labelStyle.Render(f.Label))
		b.WriteString(" ")
		b.WriteString(m.inputs[i].View())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	switch {
	case m.busy:
		b.WriteString(faintStyle.Render("Saving…"))
	case m.formErr != "":
		b.WriteString(errStyle.Render(m.formErr))
	default:
		b.WriteString(okStyle.Render("[ Save ]"))
		b.WriteString(faintStyle.Render("  enter"))
	}
	return boxStyle.Render(b.String())
}

func (m Model) confirmView() string {
	label := m.confirmLabel
	if label == "" {
		label = "car"
	}
	return errStyle.Render(fmt.Sprintf("Delete %s (id %s)? [y/n]", label, m.confirmID))
}

func (m Model) alertView() string {
	if len(m.alerts) == 0 {
		return ""
	}
	a := m.alerts[0]
	style := boxStyle
	if a.isError {
		style = errBoxStyle
	}
	body := a.message + "\n\n" + faintStyle.Render("press enter to continue")
	return style.Render(body)
}
