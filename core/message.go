package core

import (
	"time"

	"github.com/google/uuid"
)

// ToolCall is a request, embedded in a message, to run a named tool.
// Arguments holds the decoded argument mapping. When the producer supplied
// arguments that could not be decoded, Arguments is nil and RawArguments keeps
// the original payload so the executor can report the mismatch.
type ToolCall struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Arguments    map[string]any `json:"arguments,omitempty"`
	RawArguments string         `json:"raw_arguments,omitempty"`
}

// ToolResult is the textual outcome of a ToolCall. IsError marks error payloads
// produced when validation or execution failed.
type ToolResult struct {
	CallID  string `json:"call_id"`
	Name    string `json:"name"`
	Content string `json:"content"`
	IsError bool   `json:"is_error,omitempty"`
}

// Message is a single transcript entry. An empty Content means "no text".
// After being appended to a Transcript a Message must be treated as immutable.
type Message struct {
	ID         string      `json:"id"`
	Sender     string      `json:"sender"`
	Content    string      `json:"content,omitempty"`
	ToolCall   *ToolCall   `json:"tool_call,omitempty"`
	ToolResult *ToolResult `json:"tool_result,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}

// clone returns a deep copy of m. The tool call arguments are copied
// recursively so no map or slice is shared with the original.
func (m Message) clone() Message {
	if m.ToolCall != nil {
		call := *m.ToolCall
		if call.Arguments != nil {
			call.Arguments = cloneValue(call.Arguments).(map[string]any)
		}
		m.ToolCall = &call
	}
	if m.ToolResult != nil {
		result := *m.ToolResult
		m.ToolResult = &result
	}
	return m
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = cloneValue(e)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// NewID generates a new unique identifier for messages and sessions.
func NewID() string { return uuid.NewString() }

// NewTextMessage creates a plain text message authored by sender.
func NewTextMessage(sender, content string) Message {
	return Message{ID: NewID(), Sender: sender, Content: content, Timestamp: time.Now().UTC()}
}

// NewToolCallMessage creates a message requesting a tool invocation. Content
// may carry accompanying text and is usually empty.
func NewToolCallMessage(sender, content string, call ToolCall) Message {
	m := NewTextMessage(sender, content)
	m.ToolCall = &call
	return m
}

// NewToolResultMessage records the outcome of a tool call, authored by the
// executing participant.
func NewToolResultMessage(sender string, result ToolResult) Message {
	m := NewTextMessage(sender, "")
	m.ToolResult = &result
	return m
}

// IsToolCall reports whether the message requests a tool invocation.
func (m Message) IsToolCall() bool { return m.ToolCall != nil }

// IsToolResult reports whether the message carries a tool result.
func (m Message) IsToolResult() bool { return m.ToolResult != nil }

// IsEmpty reports whether the message has neither text nor tool payload.
func (m Message) IsEmpty() bool {
	return m.Content == "" && m.ToolCall == nil && m.ToolResult == nil
}

// Text returns the human readable text of the message: the content, or the
// tool result payload for tool result messages.
func (m Message) Text() string {
	if m.ToolResult != nil {
		return m.ToolResult.Content
	}
	return m.Content
}
