package commands

import (
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kutbudev/crud-docs/internal/restdocs"
)

type operationItem struct {
	op restdocs.Operation
}

func (i operationItem) Title() string       { return i.op.Name }
func (i operationItem) Description() string { return strings.Join(i.op.Snippets, ", ") }
func (i operationItem) FilterValue() string { return i.op.Name }

// operationPicker lists documented operations; enter picks one.
type operationPicker struct {
	list   list.Model
	chosen string
}

func newOperationPicker(ops []restdocs.Operation) operationPicker {
	items := make([]list.Item, len(ops))
	for i, op := range ops {
		items[i] = operationItem{op: op}
	}
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Documented operations"
	return operationPicker{list: l}
}

func (m operationPicker) Init() tea.Cmd {
	return nil
}

func (m operationPicker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height)
	case tea.KeyMsg:
		// keys belong to the filter input while it is open
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "enter":
			if item, ok := m.list.SelectedItem().(operationItem); ok {
				m.chosen = item.op.Name
			}
			return m, tea.Quit
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m operationPicker) View() string {
	return m.list.View()
}

// pickOperation runs the picker full screen. An empty name means the user
// left without choosing.
func pickOperation(ops []restdocs.Operation) (string, error) {
	final, err := tea.NewProgram(newOperationPicker(ops), tea.WithAltScreen()).Run()
	if err != nil {
		return "", err
	}
	return final.(operationPicker).chosen, nil
}
