package model

import "encoding/json"

// Turn roles. Only assistant turns carry tool calls.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ToolCall records one action the assistant executed server-side on the
// user's behalf. The tool name set is owned by the remote service and grows
// without notice, so Tool is a plain string and Input/Output stay opaque.
type ToolCall struct {
	Tool   string          `json:"tool"`
	Input  json.RawMessage `json:"input"`
	Output json.RawMessage `json:"output"`
}

// Turn is one entry in a conversation transcript. Turns are append-only.
type Turn struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// Err marks a synthetic assistant turn standing in for a failed send.
	Err bool `json:"-"`
}
