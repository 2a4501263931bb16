package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleArgs struct {
	A string  `json:"a" description:"Field A"`
	B *int    `json:"b" description:"Optional pointer field"`
	C int     `json:"c,omitempty"`
	D string  `json:"d" enum:"x,y"`
	e float64
}

func TestFieldsFromStruct(t *testing.T) {
	fields := FieldsFromStruct(sampleArgs{})
	require.Len(t, fields, 4)

	assert.Equal(t, Field{Name: "a", Type: "string", Description: "Field A", Required: true}, fields[0])
	assert.False(t, fields[1].Required)
	assert.Equal(t, "integer", fields[1].Type)
	assert.False(t, fields[2].Required)
	assert.Equal(t, []string{"x", "y"}, fields[3].Enum)

	assert.Nil(t, FieldsFromStruct(42))
}

func TestCreateSchema(t *testing.T) {
	schema := CreateSchema([]Field{
		{Name: "query", Type: "string", Description: "text", Required: true},
		{Name: "tags", Type: "array"},
	})
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "query")
	assert.Contains(t, props, "tags")
	assert.Equal(t, []string{"query"}, schema["required"])
	assert.Equal(t, "object", schema["type"])
}

func TestValidateArguments(t *testing.T) {
	fields := []Field{
		{Name: "x", Type: "integer", Required: true},
		{Name: "mode", Type: "string", Enum: []string{"fast", "slow"}},
	}

	tests := []struct {
		name  string
		args  map[string]any
		kind  string
		field string
	}{
		{"ok", map[string]any{"x": 5}, "", ""},
		{"ok json float", map[string]any{"x": float64(5), "mode": "fast"}, "", ""},
		{"missing", map[string]any{}, ValidationMissing, "x"},
		{"nil required", map[string]any{"x": nil}, ValidationMissing, "x"},
		{"extra", map[string]any{"x": 1, "zz": true, "aa": 1}, ValidationExtra, "aa"},
		{"mistyped", map[string]any{"x": "not-int"}, ValidationMistyped, "x"},
		{"fractional", map[string]any{"x": 1.5}, ValidationMistyped, "x"},
		{"enum", map[string]any{"x": 1, "mode": "medium"}, ValidationMistyped, "mode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateArguments(tt.args, fields)
			if tt.kind == "" {
				assert.NoError(t, err)
				return
			}
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.kind, vErr.Kind)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestIsValidType(t *testing.T) {
	assert.True(t, isValidType([]string{"a"}, "array"))
	assert.True(t, isValidType(map[string]int{"a": 1}, "object"))
	assert.False(t, isValidType("x", "boolean"))
	assert.True(t, isValidType("anything", "custom"))
}

func TestRenderTemplate(t *testing.T) {
	out, err := RenderTemplate("plain text", nil)
	require.NoError(t, err)
	assert.Equal(t, "plain text", out)

	out, err = RenderTemplate("Pick one of {{join \", \" .Names}} as {{upper .Role}}", map[string]any{
		"Names": []string{"planner", "critic"},
		"Role":  "speaker",
	})
	require.NoError(t, err)
	assert.Equal(t, "Pick one of planner, critic as SPEAKER", out)

	_, err = RenderTemplate("{{.Broken", nil)
	assert.Error(t, err)
}
