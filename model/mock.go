package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/agentchat/core"
)

// MockModel is a lightweight in‑memory Model useful for tests & examples.
// Replies are taken from the scripted queue first, then from canned prompt
// responses, and finally fall back to an echo of the last input.
type MockModel struct {
	info      Info
	mu        sync.Mutex
	responses map[string]string
	script    []scripted
	requests  []Request
}

type scripted struct {
	resp Response
	err  error
}

// NewMockModel constructs a MockModel with basic tool support enabled.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info: Info{
			Name:          name,
			Provider:      provider,
			SupportsTools: true,
		},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// Enqueue appends scripted responses consumed one per Generate call.
func (m *MockModel) Enqueue(responses ...Response) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range responses {
		m.script = append(m.script, scripted{resp: r})
	}
	return m
}

// EnqueueText appends plain text replies.
func (m *MockModel) EnqueueText(texts ...string) *MockModel {
	for _, t := range texts {
		m.Enqueue(TextResponse(t))
	}
	return m
}

// EnqueueToolCall appends a reply requesting the named tool.
func (m *MockModel) EnqueueToolCall(id, name, args string) *MockModel {
	return m.Enqueue(ToolCallResponse(id, name, args))
}

// EnqueueError makes the next Generate call fail with err.
func (m *MockModel) EnqueueError(err error) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, scripted{err: err})
	return m
}

// Requests returns a copy of every request received so far.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

func (m *MockModel) next(req Request) (Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)

	if len(m.script) > 0 {
		s := m.script[0]
		m.script = m.script[1:]
		return s.resp, s.err
	}

	var inputText string
	if len(req.Contents) > 0 {
		inputText = req.Contents[len(req.Contents)-1].Text()
	}
	full := m.responses[inputText]
	if full == "" {
		full = fmt.Sprintf("Mock response to: %s", inputText)
	}
	return TextResponse(full), nil
}

// Generate implements Model; emits optional streaming char chunks then final response.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(respCh)
		defer close(errCh)

		resp, err := m.next(req)
		if err != nil {
			errCh <- err
			return
		}
		if req.Stream {
			for _, r := range resp.Content.Text() {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{Partial: true, Content: core.NewTextContent(core.RoleAssistant, string(r))}:
				}
			}
		}
		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
		case respCh <- resp:
		}
	}()
	return respCh, errCh
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }

// TextResponse builds a final assistant text response.
func TextResponse(text string) Response {
	return Response{Content: core.NewTextContent(core.RoleAssistant, text), FinishReason: "stop"}
}

// ToolCallResponse builds a final assistant response requesting one tool call.
func ToolCallResponse(id, name, args string) Response {
	return Response{
		Content: core.Content{
			Role:  core.RoleAssistant,
			Parts: []core.Part{core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: id, Name: name, Arguments: args}}},
		},
		FinishReason: "tool_calls",
	}
}
