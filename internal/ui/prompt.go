package ui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrPromptAborted is returned when the user cancels a prompt with esc.
var ErrPromptAborted = errors.New("aborted")

type promptModel struct {
	label   string
	ti      textinput.Model
	done    bool
	aborted bool
}

func (m promptModel) Init() tea.Cmd { return textinput.Blink }

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "enter":
			m.done = true
			return m, tea.Quit
		case "esc", "ctrl+c":
			m.aborted = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	return m, cmd
}

func (m promptModel) View() string {
	if m.done || m.aborted {
		return ""
	}
	return m.label + "\n" + m.ti.View() + "\n"
}

func prompt(label string, echo textinput.EchoMode) (string, error) {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.EchoMode = echo
	ti.CharLimit = 200
	ti.Focus()

	p := tea.NewProgram(promptModel{label: label, ti: ti})
	final, err := p.Run()
	if err != nil {
		return "", err
	}
	m, _ := final.(promptModel)
	if m.aborted {
		return "", ErrPromptAborted
	}
	return strings.TrimSpace(m.ti.Value()), nil
}

// Prompt reads one line of input with a label.
func Prompt(label string) (string, error) {
	return prompt(label, textinput.EchoNormal)
}

// PromptSecret reads one line without echoing it (passwords).
func PromptSecret(label string) (string, error) {
	return prompt(label, textinput.EchoPassword)
}
