package testutil

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/hupe1980/agentchat/core"
)

// TranscriptBuilder constructs transcripts with fluent chaining.
// Example:
//
//	msgs := NewTranscriptBuilder("s-1").
//		Text("user", "1+2?").
//		ToolCall("assistant", "add", `{"a":1,"b":2}`).
//		ToolResult("proxy", "add", "3").
//		Messages()
type TranscriptBuilder struct {
	id       string
	messages []core.Message
	calls    int
}

// NewTranscriptBuilder creates a builder for the transcript with the given id.
func NewTranscriptBuilder(id string) *TranscriptBuilder {
	return &TranscriptBuilder{id: id}
}

// Text appends a plain text message (chainable).
func (b *TranscriptBuilder) Text(sender, content string) *TranscriptBuilder {
	b.messages = append(b.messages, core.NewTextMessage(sender, content))
	return b
}

// ToolCall appends a tool call message. Arguments that are not a JSON object
// are kept raw, the way a backend hands them over (chainable).
func (b *TranscriptBuilder) ToolCall(sender, name, args string) *TranscriptBuilder {
	b.calls++
	call := core.ToolCall{ID: fmt.Sprintf("call-%d", b.calls), Name: name, RawArguments: args}
	if parsed := gjson.Parse(args); parsed.IsObject() {
		call.Arguments, _ = parsed.Value().(map[string]any)
		call.RawArguments = ""
	}
	b.messages = append(b.messages, core.NewToolCallMessage(sender, "", call))
	return b
}

// ToolResult appends the result of the most recent tool call (chainable).
func (b *TranscriptBuilder) ToolResult(sender, name, content string) *TranscriptBuilder {
	return b.result(sender, name, content, false)
}

// ToolError appends an error result for the most recent tool call (chainable).
func (b *TranscriptBuilder) ToolError(sender, name, content string) *TranscriptBuilder {
	return b.result(sender, name, content, true)
}

func (b *TranscriptBuilder) result(sender, name, content string, isError bool) *TranscriptBuilder {
	b.messages = append(b.messages, core.NewToolResultMessage(sender, core.ToolResult{
		CallID:  fmt.Sprintf("call-%d", b.calls),
		Name:    name,
		Content: content,
		IsError: isError,
	}))
	return b
}

// Messages returns a copy of the messages built so far.
func (b *TranscriptBuilder) Messages() []core.Message {
	out := make([]core.Message, len(b.messages))
	copy(out, b.messages)
	return out
}

// Build returns an open transcript holding the messages.
func (b *TranscriptBuilder) Build() *core.Transcript {
	t := core.NewTranscript(b.id)
	for _, m := range b.messages {
		_ = t.Append(m)
	}
	return t
}
