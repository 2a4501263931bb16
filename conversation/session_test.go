package conversation

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/hupe1980/agentchat/agent"
	"github.com/hupe1980/agentchat/logging"
	"github.com/hupe1980/agentchat/model"
)

type recordingObserver struct {
	mu       sync.Mutex
	llmCalls []string
	rounds   []string
	sessions []string
}

func (o *recordingObserver) ObserveLLMCall(agentName, _ string, _ time.Duration, _ int, _ bool, _ error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.llmCalls = append(o.llmCalls, agentName)
}

func (o *recordingObserver) ObserveRound(_, speaker string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.rounds = append(o.rounds, speaker)
}

func (o *recordingObserver) ObserveSession(kind, state string, _ int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sessions = append(o.sessions, kind+":"+state)
}

func TestSession_SpansAndObserver(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	obs := &recordingObserver{}

	llm := model.NewMockModel("gpt-4", "mock").
		EnqueueToolCall("c1", "add", `{"a":1,"b":2}`).
		EnqueueText("3")
	assistant := newAssistant(t, "assistant", llm, func(o *agent.Options) { o.Tools = []string{"add"} })
	proxy := newExecutor(t, "proxy", func(o *agent.Options) { o.Executes = []string{"add"} })

	chat, err := NewPairwise(proxy, assistant, func(o *Options) {
		o.MaxRounds = 4
		o.Registry = addRegistry(t)
		o.Tracer = tp.Tracer("test")
		o.Observer = obs
	})
	require.NoError(t, err)

	res, err := chat.Run(context.Background(), "1+2?")
	require.NoError(t, err)
	assert.Equal(t, StateTerminatedByRoundLimit, res.State)

	counts := map[string]int{}
	var root sdktrace.ReadOnlySpan
	for _, s := range sr.Ended() {
		counts[s.Name()]++
		if s.Name() == "conversation.pairwise" {
			root = s
		}
	}
	assert.Equal(t, 1, counts["conversation.pairwise"])
	assert.Equal(t, 3, counts["conversation.turn"])
	assert.Equal(t, 1, counts["tool.invoke"])

	require.NotNil(t, root)
	attrs := map[string]string{}
	for _, kv := range root.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, StateTerminatedByRoundLimit.String(), attrs["conversation.state"])
	assert.Equal(t, "4", attrs["conversation.rounds"])
	assert.Len(t, root.Events(), 4)

	assert.Equal(t, []string{"assistant", "assistant"}, obs.llmCalls)
	assert.Equal(t, []string{"proxy", "assistant", "proxy", "assistant"}, obs.rounds)
	assert.Equal(t, []string{"pairwise:TERMINATED_BY_ROUND_LIMIT"}, obs.sessions)
}

func TestSession_StructuredLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger(&logging.LoggerConfig{Level: logging.LogLevelDebug, Format: "json", Output: &buf})

	chat, err := NewPairwise(newExecutor(t, "proxy"), newAssistant(t, "assistant", model.NewMockModel("gpt-4", "mock")),
		func(o *Options) {
			o.MaxRounds = 2
			o.Logger = logger
		})
	require.NoError(t, err)

	res, err := chat.Run(context.Background(), "hi")
	require.NoError(t, err)

	var msgs []string
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		msgs = append(msgs, entry["msg"].(string))
		assert.Equal(t, "conversation", entry["component"])
		assert.Equal(t, res.ID, entry["session_id"])
	}
	assert.Equal(t, []string{
		"conversation.start",
		"conversation.round.completed",
		"conversation.round.completed",
		"conversation.finished",
	}, msgs)
}

func TestState(t *testing.T) {
	assert.Equal(t, "TERMINATED_BY_MESSAGE", StateTerminatedByMessage.String())
	assert.Equal(t, "UNKNOWN", State(42).String())
	assert.False(t, StateRunning.Terminal())
	assert.True(t, StateAborted.Terminal())
	assert.True(t, StateTerminatedByReplyLimit.Normal())
	assert.False(t, StateFailed.Normal())
}

func TestReplyCounter(t *testing.T) {
	c := newReplyCounter()
	assert.False(t, c.Exhausted("a", 2))
	c.Increment("a")
	assert.Equal(t, 2, c.Increment("a"))
	assert.True(t, c.Exhausted("a", 2))
	assert.False(t, c.Exhausted("a", 0))
	c.Reset("a")
	assert.Zero(t, c.Count("a"))
}
