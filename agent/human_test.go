package agent

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleInput(t *testing.T) {
	var out bytes.Buffer
	in := NewConsoleInput(strings.NewReader("  looks good \n\n"), &out)
	ctx := context.Background()

	got, err := in.Prompt(ctx, "code_executor_agent", "Provide feedback")
	require.NoError(t, err)
	assert.Equal(t, "looks good", got)
	assert.Contains(t, out.String(), "[code_executor_agent] Provide feedback: ")

	got, err = in.Prompt(ctx, "code_executor_agent", "again")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = in.Prompt(ctx, "code_executor_agent", "eof")
	require.NoError(t, err)
	assert.Equal(t, ExitCommand, got)
}

func TestConsoleInput_CancelledPromptKeepsNextLine(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	in := NewConsoleInput(pr, io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := in.Prompt(ctx, "user_proxy", "first")
	require.ErrorIs(t, err, context.Canceled)

	go func() { _, _ = io.WriteString(pw, "hello\n") }()

	got, err := in.Prompt(context.Background(), "user_proxy", "second")
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestConsoleInput_ExitAfterEOFIsSticky(t *testing.T) {
	in := NewConsoleInput(strings.NewReader("last"), io.Discard)
	ctx := context.Background()

	got, err := in.Prompt(ctx, "user_proxy", "one")
	require.NoError(t, err)
	assert.Equal(t, "last", got)

	for range 2 {
		got, err = in.Prompt(ctx, "user_proxy", "more")
		require.NoError(t, err)
		assert.Equal(t, ExitCommand, got)
	}
}

func TestScriptedInput(t *testing.T) {
	in := NewScriptedInput("first", "exit")
	ctx := context.Background()

	a, _ := in.Prompt(ctx, "x", "")
	b, _ := in.Prompt(ctx, "y", "")
	c, _ := in.Prompt(ctx, "x", "")
	assert.Equal(t, []string{"first", "exit", ""}, []string{a, b, c})
	assert.Equal(t, []string{"x", "y", "x"}, in.Prompts())
}
