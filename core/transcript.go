package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrTranscriptClosed is returned when appending to a closed transcript.
var ErrTranscriptClosed = errors.New("transcript is closed")

// Transcript is the ordered record of a session's messages. It is safe for
// concurrent access.
//
// Contract:
//   - Messages are totally ordered by append order
//   - Messages returns a deep copy; appended messages are copied too
//   - After Close the transcript is immutable
type Transcript struct {
	id       string
	messages []Message
	closed   bool
	mu       sync.RWMutex
}

// NewTranscript creates an empty, open transcript.
func NewTranscript(id string) *Transcript {
	return &Transcript{id: id, messages: []Message{}}
}

// ID returns the transcript identifier (the owning session id).
func (t *Transcript) ID() string { return t.id }

// Append adds a message at the end of the transcript.
func (t *Transcript) Append(m Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrTranscriptClosed
	}
	t.messages = append(t.messages, m.clone())
	return nil
}

// Messages returns a deep copy of all messages.
func (t *Transcript) Messages() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return cloneMessages(t.messages)
}

func cloneMessages(msgs []Message) []Message {
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = m.clone()
	}
	return out
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

// Last returns the most recent message.
func (t *Transcript) Last() (Message, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.messages) == 0 {
		return Message{}, false
	}
	return t.messages[len(t.messages)-1].clone(), true
}

// Close makes the transcript immutable. Closing twice is a no-op.
func (t *Transcript) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
}

// Closed reports whether Close has been called.
func (t *Transcript) Closed() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.closed
}

// Clone returns an open copy of the transcript.
func (t *Transcript) Clone() *Transcript {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return &Transcript{id: t.id, messages: cloneMessages(t.messages)}
}

// MarshalJSON encodes the transcript as {"id": ..., "messages": [...]}.
func (t *Transcript) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID       string    `json:"id"`
		Messages []Message `json:"messages"`
	}{t.ID(), t.Messages()})
}

// String renders the transcript one message per line.
func (t *Transcript) String() string {
	var sb strings.Builder
	for _, m := range t.Messages() {
		sb.WriteString(FormatMessage(m))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// FormatMessage renders a message as a single human readable line.
func FormatMessage(m Message) string {
	switch {
	case m.ToolCall != nil:
		args := m.ToolCall.RawArguments
		if m.ToolCall.Arguments != nil {
			if b, err := json.Marshal(m.ToolCall.Arguments); err == nil {
				args = string(b)
			}
		}
		return fmt.Sprintf("%s: [call %s(%s)] %s", m.Sender, m.ToolCall.Name, args, m.Content)
	case m.ToolResult != nil:
		tag := "result"
		if m.ToolResult.IsError {
			tag = "error"
		}
		return fmt.Sprintf("%s: [%s %s] %s", m.Sender, tag, m.ToolResult.Name, m.ToolResult.Content)
	default:
		return fmt.Sprintf("%s: %s", m.Sender, m.Content)
	}
}
