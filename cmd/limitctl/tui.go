package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/domain"
	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/ports"
)

var baseStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.NormalBorder()).
	BorderForeground(lipgloss.Color("240"))

var helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

// tuiPrompter shows one table per missing entry: remove, add at the end,
// or match one of the live rows.
type tuiPrompter struct {
	in  io.Reader
	out io.Writer
}

func (p *tuiPrompter) Prompt(entry domain.LimitFamilyEntry, labels []string) (ports.Resolution, error) {
	final, err := tea.NewProgram(newPromptModel(entry, labels), tea.WithInput(p.in), tea.WithOutput(p.out)).Run()
	if err != nil {
		return ports.Resolution{}, err
	}
	m, ok := final.(promptModel)
	if !ok || m.choice == nil {
		return ports.Resolution{}, errPromptAborted
	}
	return *m.choice, nil
}

const fixedChoices = 2 // remove, add

type promptModel struct {
	entry  domain.LimitFamilyEntry
	labels []string
	table  table.Model
	choice *ports.Resolution
}

func newPromptModel(entry domain.LimitFamilyEntry, labels []string) promptModel {
	rows := []table.Row{
		{"remove", "drop the entry from the import"},
		{"add", fmt.Sprintf("new row %d", len(labels))},
	}
	for _, l := range labels {
		rows = append(rows, table.Row{"match", l})
	}

	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Action", Width: 8},
			{Title: "Target", Width: 60},
		}),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(min(len(rows)+1, 15)),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(true)
	t.SetStyles(s)

	return promptModel{entry: entry, labels: labels, table: t}
}

func (m promptModel) Init() tea.Cmd { return nil }

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "enter":
			res := m.resolution(m.table.Cursor())
			m.choice = &res
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m promptModel) resolution(row int) ports.Resolution {
	switch {
	case row <= 0:
		return ports.Resolution{Action: ports.ActionRemove}
	case row == 1:
		return ports.Resolution{Action: ports.ActionAdd, Row: len(m.labels)}
	default:
		return ports.Resolution{Action: ports.ActionMatch, Label: m.labels[row-fixedChoices]}
	}
}

func (m promptModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("No live result for " + m.entry.Label()))
	b.WriteString("\n\n")
	b.WriteString(baseStyle.Render(m.table.View()))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("↑/↓ choose • enter confirm • q abort"))
	b.WriteString("\n")
	return b.String()
}
