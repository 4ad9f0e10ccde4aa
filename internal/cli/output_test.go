package cli

import (
	"strings"
	"testing"

	"taskdeck/internal/model"
)

func sampleTasks() []model.Task {
	return []model.Task{
		{ID: "t1", Title: "Buy milk"},
		{ID: "t2", Title: "Ship release", Completed: true},
		{ID: "t3", Title: "Water plants"},
	}
}

func TestFlatLinesNumbering(t *testing.T) {
	lines := flatLines(sampleTasks(), 0)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], " 1.") || !strings.Contains(lines[0], "Buy milk") {
		t.Errorf("unexpected first line %q", lines[0])
	}
	if !strings.Contains(lines[1], "☑") {
		t.Errorf("completed task should show a checked box: %q", lines[1])
	}
}

func TestFlatLinesEmpty(t *testing.T) {
	lines := flatLines(nil, 0)
	if len(lines) != 1 || lines[0] != "no tasks" {
		t.Errorf("unexpected empty rendering %v", lines)
	}
}

func TestGroupLinesSplitsPendingAndDone(t *testing.T) {
	lines := groupLines(sampleTasks())
	joined := strings.Join(lines, "\n")

	pendIdx := strings.Index(joined, "Pending")
	doneIdx := strings.Index(joined, "Done")
	if pendIdx < 0 || doneIdx < 0 || doneIdx < pendIdx {
		t.Fatalf("expected Pending before Done, got:\n%s", joined)
	}
	if !strings.Contains(joined[pendIdx:doneIdx], "Buy milk") {
		t.Errorf("Buy milk should be listed as pending:\n%s", joined)
	}
	if !strings.Contains(joined[doneIdx:], "Ship release") {
		t.Errorf("Ship release should be listed as done:\n%s", joined)
	}
}

func TestFlatLinesTruncatesLongTitles(t *testing.T) {
	long := strings.Repeat("x", 120)
	lines := flatLines([]model.Task{{ID: "t1", Title: long}}, 0)
	if !strings.Contains(lines[0], "...") {
		t.Errorf("expected truncation marker in %q", lines[0])
	}
	if strings.Contains(lines[0], long) {
		t.Error("long title should have been truncated")
	}
}

func TestFlatLinesTruncatesOnRuneBoundaries(t *testing.T) {
	long := strings.Repeat("ä", 120)
	lines := flatLines([]model.Task{{ID: "t1", Title: long}}, 0)
	if !strings.Contains(lines[0], strings.Repeat("ä", 77)+"...") {
		t.Errorf("expected 77 whole runes then the marker, got %q", lines[0])
	}
	if strings.ContainsRune(lines[0], '�') {
		t.Errorf("truncation split a rune: %q", lines[0])
	}
}
