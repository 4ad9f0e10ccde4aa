package cli

import (
	"fmt"
	"os"

	"taskdeck/internal/model"
	"taskdeck/internal/ui"
)

func stdoutIsTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

// printPlain renders the non-interactive listing inside a panel, with a
// progress bar header.
func printPlain(items []model.Task, group bool) {
	done := 0
	for _, t := range items {
		if t.Completed {
			done++
		}
	}

	var lines []string
	lines = append(lines, ui.ProgressBar(done, len(items), 28))
	lines = append(lines, "")
	if group {
		lines = append(lines, groupLines(items)...)
	} else {
		lines = append(lines, flatLines(items, 0)...)
	}
	lines = append(lines, "")
	lines = append(lines, `Tip: add with `+"`taskdeck add \"Buy milk\"`")
	ui.Panel(lines)
}

// flatLines renders tasks one per line with their 1-based index. base
// offsets the index when a grouped view splits the list.
func flatLines(items []model.Task, base int) []string {
	if len(items) == 0 {
		return []string{"no tasks"}
	}
	out := make([]string, 0, len(items))
	for i, t := range items {
		box := "☐"
		if t.Completed {
			box = "☑"
		}
		title := t.Title
		if r := []rune(title); len(r) > 80 {
			title = string(r[:77]) + "..."
		}
		out = append(out, fmt.Sprintf("%2d. %s %s", base+i+1, box, title))
	}
	return out
}

func groupLines(items []model.Task) []string {
	var pend, done []model.Task
	for _, t := range items {
		if t.Completed {
			done = append(done, t)
		} else {
			pend = append(pend, t)
		}
	}
	var lines []string
	lines = append(lines, "Pending")
	if len(pend) == 0 {
		lines = append(lines, "(none)")
	} else {
		lines = append(lines, flatLines(pend, 0)...)
	}
	lines = append(lines, "")
	lines = append(lines, "Done")
	if len(done) == 0 {
		lines = append(lines, "(none)")
	} else {
		lines = append(lines, flatLines(done, len(pend))...)
	}
	return lines
}
