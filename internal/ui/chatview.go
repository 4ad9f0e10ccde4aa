package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"taskdeck/internal/chat"
	"taskdeck/internal/model"
)

const chatGreeting = `Hi! I'm your todo assistant.

Try saying:
  "Add a task to buy groceries"
  "Show me all my tasks"
  "Mark task 1 as complete"`

// sendDoneMsg reports one settled send. The transcript itself lives in the
// session; the view only re-renders from it.
type sendDoneMsg struct{ err error }

type chatModel struct {
	session *chat.Session
	vp      viewport.Model
	ti      textinput.Model
	spin    spinner.Model
	sending bool
	ready   bool
}

// RunChat starts the interactive conversation view. Input is disabled
// while a send is pending; the session rejects overlapping sends anyway.
func RunChat(session *chat.Session) error {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type your message..."
	ti.CharLimit = 2000
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = accentStyle

	m := chatModel{session: session, ti: ti, spin: sp}
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m chatModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m chatModel) sendCmd(message string) tea.Cmd {
	session := m.session
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
		defer cancel()
		return sendDoneMsg{err: session.Send(ctx, message)}
	}
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.vp = viewport.New(msg.Width-4, msg.Height-6)
			m.ready = true
		} else {
			m.vp.Width = msg.Width - 4
			m.vp.Height = msg.Height - 6
		}
		m.vp.SetContent(m.transcript())
		m.vp.GotoBottom()
		return m, nil

	case sendDoneMsg:
		// On failure the session already appended a synthetic error
		// turn, so the transcript rerender covers both outcomes.
		m.sending = false
		m.ti.Focus()
		m.vp.SetContent(m.transcript())
		m.vp.GotoBottom()
		return m, textinput.Blink

	case spinner.TickMsg:
		if !m.sending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			if m.sending {
				return m, nil
			}
			text := strings.TrimSpace(m.ti.Value())
			if text == "" {
				return m, nil
			}
			m.sending = true
			m.ti.SetValue("")
			m.ti.Blur()
			// echo the user turn immediately; Send appends it to the
			// session before the network call, but the view renders
			// from its own copy until the command settles
			m.vp.SetContent(m.transcript() + "\n" + userBubbleStyle.Render("you ") + text)
			m.vp.GotoBottom()
			return m, tea.Batch(m.spin.Tick, m.sendCmd(text))
		}
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	cmds = append(cmds, cmd)
	m.vp, cmd = m.vp.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// transcript renders the session's turns for the viewport.
func (m chatModel) transcript() string {
	turns := m.session.Turns()
	if len(turns) == 0 {
		return mutedStyle.Render(chatGreeting)
	}
	width := m.vp.Width
	if width <= 0 {
		width = 76
	}
	wrap := lipgloss.NewStyle().Width(width)

	var b strings.Builder
	for i, t := range turns {
		if i > 0 {
			b.WriteString("\n\n")
		}
		switch t.Role {
		case model.RoleUser:
			b.WriteString(userBubbleStyle.Render("you "))
			b.WriteString(wrap.Render(t.Content))
		default:
			label := accentStyle.Render("assistant ")
			body := assistantBubbleStyle.Render(wrap.Render(t.Content))
			if t.Err {
				body = errorStyle.Render(wrap.Render(t.Content))
			}
			b.WriteString(label)
			b.WriteString(body)
			for _, tc := range t.ToolCalls {
				r := chat.Render(tc)
				b.WriteString("\n  " + toolCallStyle.Render(r.Icon+" "+r.Label+" · "+r.Status))
			}
		}
	}
	return b.String()
}

func (m chatModel) View() string {
	if !m.ready {
		return "loading..."
	}
	input := m.ti.View()
	if m.sending {
		input = m.spin.View() + " " + mutedStyle.Render("Thinking...")
	}
	bar := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8")).Padding(0, 1).Width(m.vp.Width)
	return panelString(m.vp.View()) + "\n" + bar.Render(input)
}
