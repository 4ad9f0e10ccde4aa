package ui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"taskdeck/internal/model"
	"taskdeck/internal/tasks"
)

// taskItem adapts a model.Task to bubbles/list.Item.
type taskItem struct {
	Task model.Task
}

func (i taskItem) title() string {
	box := boxUnchecked
	if i.Task.Completed {
		box = boxChecked
	}
	return fmt.Sprintf("%s %s", box, i.Task.Title)
}

// Implement list.Item interface
func (i taskItem) Title() string       { return i.title() }
func (i taskItem) Description() string { return "" }
func (i taskItem) FilterValue() string { return i.Task.Title }

// Messages from settled remote calls.
type (
	tasksLoadedMsg struct{ err error }
	addDoneMsg     struct {
		task model.Task
		err  error
	}
	toggleDoneMsg struct {
		id  string
		err error
	}
	deleteDoneMsg struct {
		id  string
		err error
	}
)

type tasksModel struct {
	list    list.Model
	store   *tasks.List
	loading bool
	spin    spinner.Model

	// Inline add. The draft is kept on failure so the user can retry.
	adding bool
	ti     textinput.Model
	addErr string

	// Last sync failure, shown under the list until the next action.
	syncErr string
}

// Custom delegate to control how items render (single line)
type taskDelegate struct{}

func (d taskDelegate) Height() int                               { return 1 }
func (d taskDelegate) Spacing() int                              { return 0 }
func (d taskDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d taskDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, _ := item.(taskItem)

	boxStyled := mutedStyle.Render(boxUnchecked)
	textStyled := it.Task.Title
	if it.Task.Completed {
		boxStyled = successStyle.Render(boxChecked)
		textStyled = doneStyle.Render(it.Task.Title)
	}

	line := fmt.Sprintf("%s %s", boxStyled, textStyled)
	if !it.Task.CreatedAt.IsZero() {
		line += " " + mutedStyle.Render(it.Task.CreatedAt.Format("2006-01-02"))
	}
	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprintln(w, prefix+line)
}

// RunTasks starts the interactive task view. The initial list load happens
// inside the program; every mutation goes through store and is rendered
// optimistically, with reverts picked up when the call settles.
func RunTasks(store *tasks.List) error {
	l := list.New(nil, taskDelegate{}, 0, 0)
	l.Title = titleStyle.Render("My Tasks")
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("task", "tasks")

	addBind := key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add"))
	toggleBind := key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle"))
	delBind := key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete"))
	refreshBind := key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh"))
	extra := func() []key.Binding {
		return []key.Binding{addBind, toggleBind, delBind, refreshBind}
	}
	l.AdditionalShortHelpKeys = extra
	l.AdditionalFullHelpKeys = extra

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = accentStyle

	m := tasksModel{
		list:    l,
		store:   store,
		loading: true,
		spin:    sp,
	}
	m.ti = textinput.New()
	m.ti.Prompt = "> "
	m.ti.Placeholder = "What needs to be done?"
	m.ti.CharLimit = 200

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m tasksModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.refreshCmd())
}

func (m tasksModel) refreshCmd() tea.Cmd {
	store := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return tasksLoadedMsg{err: store.Refresh(ctx)}
	}
}

func (m tasksModel) addCmd(title string) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		t, err := store.Add(ctx, title)
		return addDoneMsg{task: t, err: err}
	}
}

func (m tasksModel) toggleCmd(id string) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return toggleDoneMsg{id: id, err: store.Toggle(ctx, id)}
	}
}

func (m tasksModel) deleteCmd(id string) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return deleteDoneMsg{id: id, err: store.Delete(ctx, id)}
	}
}

// syncItems rebuilds the visible list from the store's snapshot, so the
// view always shows a whole pre- or post-mutation state.
func (m *tasksModel) syncItems() {
	snap := m.store.Snapshot()
	items := make([]list.Item, 0, len(snap))
	for _, t := range snap {
		items = append(items, taskItem{Task: t})
	}
	m.list.SetItems(items)
	done, pending := m.store.Stats()
	m.list.Title = fmt.Sprintf("%s   %s %d  %s %d",
		titleStyle.Render("My Tasks"),
		successStyle.Render("✔"), done,
		pendingStyle.Render("•"), pending,
	)
}

func (m tasksModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tasksLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.syncErr = msg.err.Error()
			return m, nil
		}
		m.syncErr = ""
		m.syncItems()
		return m, nil

	case addDoneMsg:
		if msg.err != nil {
			// draft stays in the input for a retry
			m.addErr = msg.err.Error()
			return m, nil
		}
		m.ti.SetValue("")
		m.ti.Blur()
		m.adding = false
		m.addErr = ""
		m.syncItems()
		return m, nil

	case toggleDoneMsg:
		if msg.err != nil {
			m.syncErr = "toggle failed: " + msg.err.Error()
		}
		m.syncItems() // picks up the revert on failure
		return m, nil

	case deleteDoneMsg:
		if msg.err != nil {
			m.syncErr = "delete failed: " + msg.err.Error()
		}
		m.syncItems()
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	// add mode
	if m.adding {
		var cmd tea.Cmd
		switch x := msg.(type) {
		case tea.KeyMsg:
			switch x.String() {
			case "enter":
				title := strings.TrimSpace(m.ti.Value())
				if title == "" {
					m.addErr = "Title cannot be empty"
					return m, nil
				}
				m.addErr = ""
				return m, m.addCmd(title)
			case "esc":
				m.adding = false
				m.ti.SetValue("")
				m.ti.Blur()
				return m, nil
			}
		}
		m.ti, cmd = m.ti.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc":
			return m, tea.Quit
		case " ":
			i := m.list.Index()
			if i >= 0 && i < len(m.list.Items()) {
				if it, ok := m.list.Items()[i].(taskItem); ok {
					// optimistic flip; settle msg re-syncs (or reverts)
					it.Task.Completed = !it.Task.Completed
					m.list.SetItem(i, it)
					m.syncErr = ""
					return m, m.toggleCmd(it.Task.ID)
				}
			}
			return m, nil
		case "d":
			i := m.list.Index()
			if i >= 0 && i < len(m.list.Items()) {
				if it, ok := m.list.Items()[i].(taskItem); ok {
					m.list.RemoveItem(i)
					m.syncErr = ""
					return m, m.deleteCmd(it.Task.ID)
				}
			}
			return m, nil
		case "a":
			m.adding = true
			m.ti.SetValue("")
			m.ti.Focus()
			return m, nil
		case "r":
			m.loading = true
			m.syncErr = ""
			return m, tea.Batch(m.spin.Tick, m.refreshCmd())
		}
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m tasksModel) View() string {
	w, h := widthHeight()
	listHeight := h - 4
	if m.adding {
		listHeight = h - 6
	}
	m.list.SetSize(w-2, listHeight)

	if m.loading {
		return panelString(m.spin.View() + " loading tasks...")
	}

	content := m.list.View()
	if m.adding {
		bar := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8")).Padding(0, 1)
		title := "Add new task"
		if m.addErr != "" {
			title += " - " + errorStyle.Render(m.addErr)
		}
		content = content + "\n" + bar.Render(title+"\n"+m.ti.View())
	}
	if m.syncErr != "" {
		content = content + "\n" + errorStyle.Render("✖ "+m.syncErr)
	}
	return panelString(content)
}
