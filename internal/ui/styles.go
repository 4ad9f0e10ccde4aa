package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ------- minimal styling helpers (Lip Gloss) -------
var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	accentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	mutedStyle   = lipgloss.NewStyle().Faint(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)

	selectedStyle = lipgloss.NewStyle().Bold(true).Reverse(true)
	doneStyle     = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	helpStyle     = lipgloss.NewStyle().Faint(true)

	userBubbleStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantBubbleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	toolCallStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Faint(true)

	boxChecked   = "☑"
	boxUnchecked = "☐"
)

// OK prints a success line to stdout.
func OK(msg string) {
	fmt.Println(successStyle.Render("✔ " + msg))
}

// Fail prints a failure line to stderr.
func Fail(msg string) {
	fmt.Fprintln(os.Stderr, errorStyle.Render("✖ "+msg))
}

// Hint prints a muted hint line to stderr.
func Hint(msg string) {
	fmt.Fprintln(os.Stderr, mutedStyle.Render(msg))
}

// Panel draws a framed box around the given lines.
func Panel(lines []string) {
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("8")).
		Padding(0, 1)
	fmt.Println(border.Render(strings.Join(lines, "\n")))
}

// ProgressBar renders a Unicode progress bar with counts.
func ProgressBar(done, total, width int) string {
	if total == 0 {
		total = 1
	}
	if width <= 0 {
		width = 28
	}
	filled := int(float64(done) / float64(total) * float64(width))
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + fmt.Sprintf("] %d/%d", done, total)
}
