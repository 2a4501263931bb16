package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContent_JSONPreservesPartTypes(t *testing.T) {
	in := Content{
		Role: RoleAssistant,
		Name: "planner",
		Parts: []Part{
			TextPart{Text: "hello"},
			DataPart{Data: map[string]any{"k": "v"}},
			FunctionCallPart{FunctionCall: FunctionCall{ID: "c1", Name: "search", Arguments: `{"query":"x"}`}},
			FunctionResponsePart{FunctionResponse: FunctionResponse{ID: "c1", Name: "search", Response: "[]"}},
		},
	}

	raw, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"type":"function_call"`)

	var out Content
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, in, out)
	assert.Equal(t, "hello", out.Text())
	assert.Len(t, out.FunctionCalls(), 1)
	assert.Len(t, out.FunctionResponses(), 1)
}

func TestUnmarshalPartJSON_UnknownType(t *testing.T) {
	_, err := UnmarshalPartJSON([]byte(`{"type":"video"}`))
	assert.Error(t, err)
}
