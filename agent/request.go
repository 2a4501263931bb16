package agent

import (
	"encoding/json"
	"fmt"

	"github.com/hupe1980/agentchat/core"
)

// BuildContents renders a transcript from the agent's point of view: its own
// messages become assistant turns, everybody else's become named user turns.
// Tool calls the agent made, together with their results, keep their
// structured form so the backend can match them; other agents' tool traffic
// is rendered as text.
func (a *Agent) BuildContents(history []core.Message) []core.Content {
	contents := make([]core.Content, 0, len(history))
	ownCalls := map[string]bool{}

	for _, m := range history {
		switch {
		case m.IsToolCall() && m.Sender == a.name:
			ownCalls[m.ToolCall.ID] = true
			var parts []core.Part
			if m.Content != "" {
				parts = append(parts, core.TextPart{Text: m.Content})
			}
			parts = append(parts, core.FunctionCallPart{FunctionCall: core.FunctionCall{
				ID:        m.ToolCall.ID,
				Name:      m.ToolCall.Name,
				Arguments: argumentsJSON(*m.ToolCall),
			}})
			contents = append(contents, core.Content{Role: core.RoleAssistant, Parts: parts})

		case m.IsToolResult() && ownCalls[m.ToolResult.CallID]:
			resp := core.FunctionResponse{ID: m.ToolResult.CallID, Name: m.ToolResult.Name}
			if m.ToolResult.IsError {
				resp.Error = m.ToolResult.Content
			} else {
				resp.Response = m.ToolResult.Content
			}
			contents = append(contents, core.Content{
				Role:  core.RoleTool,
				Parts: []core.Part{core.FunctionResponsePart{FunctionResponse: resp}},
			})

		case m.IsToolCall():
			text := fmt.Sprintf("Requested tool %s with arguments %s", m.ToolCall.Name, argumentsJSON(*m.ToolCall))
			if m.Content != "" {
				text = m.Content + "\n\n" + text
			}
			contents = append(contents, a.turn(m.Sender, text))

		case m.IsToolResult():
			label := "Result"
			if m.ToolResult.IsError {
				label = "Error"
			}
			contents = append(contents, a.turn(m.Sender, fmt.Sprintf("%s of tool %s: %s", label, m.ToolResult.Name, m.ToolResult.Content)))

		case m.Content != "":
			contents = append(contents, a.turn(m.Sender, m.Content))
		}
	}
	return contents
}

func (a *Agent) turn(sender, text string) core.Content {
	if sender == a.name {
		return core.NewTextContent(core.RoleAssistant, text)
	}
	c := core.NewTextContent(core.RoleUser, text)
	c.Name = sender
	return c
}

func argumentsJSON(call core.ToolCall) string {
	if call.Arguments == nil {
		if call.RawArguments != "" {
			return call.RawArguments
		}
		return "{}"
	}
	b, err := json.Marshal(call.Arguments)
	if err != nil {
		return call.RawArguments
	}
	return string(b)
}

// toolCallFrom converts a backend function call into a transcript tool call.
// Undecodable arguments are kept raw for the executor to report.
func toolCallFrom(fc core.FunctionCall) core.ToolCall {
	call := core.ToolCall{ID: fc.ID, Name: fc.Name, RawArguments: fc.Arguments}
	if call.ID == "" {
		call.ID = "call_" + core.NewID()
	}
	if fc.Arguments == "" {
		call.Arguments = map[string]any{}
		return call
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(fc.Arguments), &args); err == nil && args != nil {
		call.Arguments = args
	}
	return call
}
