package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	wizardPromptStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("69"))

	wizardCursorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("205"))
)

// wizardField is one free-text field of the scaffold wizard
type wizardField struct {
	label string
	value string
}

// scaffoldWizardModel collects the name and description for a new plugin
// package interactively
type scaffoldWizardModel struct {
	fields    []wizardField
	active    int
	done      bool
	cancelled bool
}

func newScaffoldWizardModel() scaffoldWizardModel {
	return scaffoldWizardModel{
		fields: []wizardField{
			{label: "Plugin name (lowercase, underscores)"},
			{label: "Short description"},
		},
	}
}

// Init implements tea.Model
func (m scaffoldWizardModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m scaffoldWizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.cancelled = true
		return m, tea.Quit
	case tea.KeyEnter:
		if strings.TrimSpace(m.fields[m.active].value) == "" {
			return m, nil
		}
		if m.active == len(m.fields)-1 {
			m.done = true
			return m, tea.Quit
		}
		m.active++
	case tea.KeyBackspace:
		value := m.fields[m.active].value
		if value != "" {
			m.fields[m.active].value = value[:len(value)-1]
		}
	case tea.KeySpace:
		m.fields[m.active].value += " "
	case tea.KeyRunes:
		m.fields[m.active].value += string(keyMsg.Runes)
	}
	return m, nil
}

// View implements tea.Model
func (m scaffoldWizardModel) View() string {
	if m.done || m.cancelled {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("New training plugin"))
	b.WriteString("\n\n")
	for i, field := range m.fields {
		b.WriteString(wizardPromptStyle.Render(field.label + ":"))
		b.WriteString(" ")
		b.WriteString(field.value)
		if i == m.active {
			b.WriteString(wizardCursorStyle.Render("█"))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("enter: next · esc: cancel"))
	b.WriteString("\n")
	return b.String()
}

// runScaffoldWizard collects plugin name and description interactively
func runScaffoldWizard() (name, description string, err error) {
	program := tea.NewProgram(newScaffoldWizardModel())
	final, err := program.Run()
	if err != nil {
		return "", "", fmt.Errorf("wizard failed: %w", err)
	}

	model, ok := final.(scaffoldWizardModel)
	if !ok || !model.done {
		return "", "", fmt.Errorf("scaffold cancelled")
	}
	return strings.TrimSpace(model.fields[0].value), strings.TrimSpace(model.fields[1].value), nil
}
