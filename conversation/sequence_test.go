package conversation

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentchat/agent"
	"github.com/hupe1980/agentchat/core"
	"github.com/hupe1980/agentchat/internal/testutil"
	"github.com/hupe1980/agentchat/model"
)

func TestLastMessage(t *testing.T) {
	msgs := testutil.NewTranscriptBuilder("s").
		Text("a", "first").
		Text("b", "final answer").
		ToolCall("b", "x", `{}`).
		ToolResult("c", "x", "ignored").
		Text("a", "  ").
		Messages()
	got, err := LastMessage{}.Summarize(context.Background(), msgs)
	require.NoError(t, err)
	assert.Equal(t, "final answer", got)

	got, err = LastMessage{}.Summarize(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReflection(t *testing.T) {
	llm := model.NewMockModel("gpt-4", "mock").EnqueueText("  The incident was a full disk.  ")
	got, err := Reflection{Model: llm}.Summarize(context.Background(),
		testutil.NewTranscriptBuilder("s").Text("user", "disk full").Text("rca", "root cause: logs").Messages())
	require.NoError(t, err)
	assert.Equal(t, "The incident was a full disk.", got)

	reqs := llm.Requests()
	require.Len(t, reqs, 1)
	contents := reqs[0].Contents
	require.Len(t, contents, 3)
	assert.Equal(t, "user: disk full", contents[0].Text())
	assert.Equal(t, DefaultReflectionPrompt, contents[2].Text())

	_, err = Reflection{}.Summarize(context.Background(), nil)
	assert.Error(t, err)
}

func TestSummaryIsSkippedOnFailure(t *testing.T) {
	var calls atomic.Int32
	summarizer := SummarizerFunc(func(context.Context, []core.Message) (string, error) {
		calls.Add(1)
		return "summary", nil
	})

	failing := newAssistant(t, "assistant", model.NewMockModel("gpt-4", "mock").EnqueueError(errors.New("down")))
	chat, err := NewPairwise(newExecutor(t, "proxy"), failing, func(o *Options) { o.Summarizer = summarizer })
	require.NoError(t, err)

	res, err := chat.Run(context.Background(), "hi")
	require.Error(t, err)
	assert.Empty(t, res.Summary)
	assert.Zero(t, calls.Load())
}

func TestSummaryErrorIsNotFatal(t *testing.T) {
	chat, err := NewPairwise(newExecutor(t, "proxy"), newAssistant(t, "assistant", model.NewMockModel("gpt-4", "mock")),
		func(o *Options) {
			o.MaxRounds = 2
			o.Summarizer = SummarizerFunc(func(context.Context, []core.Message) (string, error) {
				return "", errors.New("no summary today")
			})
		})
	require.NoError(t, err)

	res, err := chat.Run(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, StateTerminatedByRoundLimit, res.State)
	assert.Empty(t, res.Summary)
}

func TestSequence_CarriesSummariesForward(t *testing.T) {
	user := newExecutor(t, "user")
	classifier := newAssistant(t, "classifier", model.NewMockModel("gpt-4", "mock").EnqueueText("High severity"))
	mitigation := newAssistant(t, "mitigation", model.NewMockModel("gpt-4", "mock").EnqueueText("Runbook ready"))

	results, err := Sequence(context.Background(), user, []ChatStep{
		{Recipient: classifier, Message: "Classify: CPU high", MaxRounds: 2},
		{Recipient: mitigation, Message: "Create a runbook", MaxRounds: 2},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "High severity", results[0].Summary)
	assert.Equal(t, "Create a runbook\nContext: \nHigh severity", results[1].Messages()[0].Content)
	assert.Equal(t, "Runbook ready", results[1].Summary)
}

func TestSequence_InitiatorExecutesStepTools(t *testing.T) {
	user := newExecutor(t, "user", func(o *agent.Options) { o.Executes = []string{"add"} })
	rca := newAssistant(t, "rca",
		model.NewMockModel("gpt-4", "mock").EnqueueToolCall("c1", "add", `{"a":1,"b":1}`),
		func(o *agent.Options) { o.Tools = []string{"add"} })

	results, err := Sequence(context.Background(), user, []ChatStep{
		{Recipient: rca, Message: "Look through the data logs", MaxRounds: 2},
	}, func(o *Options) { o.Registry = addRegistry(t) })
	require.NoError(t, err)
	require.Len(t, results, 1)

	msgs := results[0].Messages()
	require.Len(t, msgs, 3)
	assertToolSequencing(t, msgs)
	assert.Equal(t, "user", msgs[2].Sender)
	assert.False(t, msgs[2].ToolResult.IsError)
	assert.Equal(t, "2", msgs[2].ToolResult.Content)
}

func TestSequence_StopsAtFirstFailure(t *testing.T) {
	user := newExecutor(t, "user")
	boom := errors.New("boom")
	broken := newAssistant(t, "broken", model.NewMockModel("gpt-4", "mock").EnqueueError(boom))
	never := newAssistant(t, "never", model.NewMockModel("gpt-4", "mock"))

	results, err := Sequence(context.Background(), user, []ChatStep{
		{Recipient: broken, Message: "one"},
		{Recipient: never, Message: "two"},
	})
	assert.ErrorIs(t, err, boom)
	require.Len(t, results, 1)
	assert.Equal(t, StateFailed, results[0].State)
}

func TestRunParallel(t *testing.T) {
	job := func(name string, fail bool) Job {
		return func(ctx context.Context) (*Result, error) {
			llm := model.NewMockModel("gpt-4", "mock")
			if fail {
				llm.EnqueueError(errors.New(name + " failed"))
			}
			chat, err := NewPairwise(newExecutor(t, "user"), newAssistant(t, name, llm),
				func(o *Options) { o.MaxRounds = 2 })
			if err != nil {
				return nil, err
			}
			return chat.Run(ctx, "hello "+name)
		}
	}

	results, err := RunParallel(context.Background(), 2, job("a", false), job("b", true), job("c", false))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "job 2")
	assert.Contains(t, err.Error(), "b failed")

	require.Len(t, results, 3)
	assert.Equal(t, StateTerminatedByRoundLimit, results[0].State)
	assert.Equal(t, StateFailed, results[1].State)
	assert.Equal(t, StateTerminatedByRoundLimit, results[2].State)
	assert.Equal(t, "hello c", results[2].Messages()[0].Content)
}

func TestRunParallel_SharedAgents(t *testing.T) {
	shared := newExecutor(t, "proxy", func(o *agent.Options) { o.DefaultAutoReply = "ok" })
	jobs := make([]Job, 8)
	for i := range jobs {
		jobs[i] = func(ctx context.Context) (*Result, error) {
			chat, err := NewPairwise(shared, newAssistant(t, "assistant", model.NewMockModel("gpt-4", "mock")),
				func(o *Options) { o.MaxRounds = 6 })
			if err != nil {
				return nil, err
			}
			return chat.Run(ctx, "ping")
		}
	}
	results, err := RunParallel(context.Background(), 0, jobs...)
	require.NoError(t, err)
	for _, r := range results {
		assert.Equal(t, 6, r.Rounds)
	}
}
