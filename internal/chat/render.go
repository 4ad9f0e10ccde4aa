package chat

import (
	"encoding/json"

	"taskdeck/internal/model"
)

// Rendered is the display form of one tool call.
type Rendered struct {
	Icon   string
	Label  string
	Status string
}

// statusFallback is shown when the tool output carries no status string.
const statusFallback = "executed"

// toolIcons maps the tool names the service is known to emit to a glyph.
// The set is open-ended and server-owned; anything else gets defaultIcon.
var toolIcons = map[string]string{
	"add_task":      "✚",
	"list_tasks":    "☰",
	"complete_task": "✔",
	"delete_task":   "✖",
	"update_task":   "✎",
}

const defaultIcon = "⚙"

// Render maps a tool call to its display affordance. It is total: any
// tool name, including ones this client has never seen, renders with the
// fallback glyph, and any output shape yields a status string.
func Render(tc model.ToolCall) Rendered {
	icon, ok := toolIcons[tc.Tool]
	if !ok {
		icon = defaultIcon
	}
	label := tc.Tool
	if label == "" {
		label = "unknown"
	}
	return Rendered{
		Icon:   icon,
		Label:  label,
		Status: outputStatus(tc.Output),
	}
}

// outputStatus extracts output.status when it is a non-empty string.
func outputStatus(raw json.RawMessage) string {
	if len(raw) == 0 {
		return statusFallback
	}
	var out struct {
		Status any `json:"status"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return statusFallback
	}
	if s, ok := out.Status.(string); ok && s != "" {
		return s
	}
	return statusFallback
}
