package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// AgentChatLogger wraps slog.Logger adding contextual cloning helpers and
// conversation specific convenience methods. It is cheap to copy via the
// With* methods and satisfies Logger.
type AgentChatLogger struct {
	logger    *slog.Logger
	level     LogLevel
	context   map[string]any
	component string
	sessionID string
}

// LoggerConfig configures construction of a AgentChatLogger.
type LoggerConfig struct {
	Level       LogLevel
	Format      string // json or text
	Output      io.Writer
	AddSource   bool
	Component   string
	SessionID   string
	CustomAttrs map[string]any
}

// DefaultLoggerConfig returns a baseline JSON info level configuration.
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{Level: LogLevelInfo, Format: "json", Output: os.Stderr, CustomAttrs: map[string]any{}}
}

// NewLogger builds a AgentChatLogger from a config (or defaults if nil).
func NewLogger(cfg *LoggerConfig) *AgentChatLogger {
	if cfg == nil {
		cfg = DefaultLoggerConfig()
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: slogLevel(cfg.Level), AddSource: cfg.AddSource}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}
	ctx := make(map[string]any, len(cfg.CustomAttrs))
	for k, v := range cfg.CustomAttrs {
		ctx[k] = v
	}
	return &AgentChatLogger{logger: slog.New(handler), level: cfg.Level, context: ctx, component: cfg.Component, sessionID: cfg.SessionID}
}

// NewSlogLogger creates a new AgentChatLogger with the specified level and format.
func NewSlogLogger(level LogLevel, format string, addSource bool) *AgentChatLogger {
	cfg := DefaultLoggerConfig()
	cfg.Level = level
	if format != "" {
		cfg.Format = format
	}
	cfg.AddSource = addSource
	return NewLogger(cfg)
}

func (l *AgentChatLogger) clone() *AgentChatLogger {
	nl := *l
	nl.context = make(map[string]any, len(l.context))
	for k, v := range l.context {
		nl.context[k] = v
	}
	return &nl
}

// WithContext adds a key/value attribute that will be attached to every log entry.
func (l *AgentChatLogger) WithContext(key string, value any) *AgentChatLogger {
	nl := l.clone()
	nl.context[key] = value
	return nl
}

// WithComponent sets the logical component (conversation, tool, cache, ...).
func (l *AgentChatLogger) WithComponent(c string) *AgentChatLogger {
	nl := l.clone()
	nl.component = c
	return nl
}

// WithSession attaches a conversation session identifier.
func (l *AgentChatLogger) WithSession(sid string) *AgentChatLogger {
	nl := l.clone()
	nl.sessionID = sid
	return nl
}

func (l *AgentChatLogger) buildAttrs() []slog.Attr {
	attrs := make([]slog.Attr, 0, len(l.context)+2)
	if l.component != "" {
		attrs = append(attrs, slog.String("component", l.component))
	}
	if l.sessionID != "" {
		attrs = append(attrs, slog.String("session_id", l.sessionID))
	}
	for k, v := range l.context {
		attrs = append(attrs, slog.Any(k, v))
	}
	return attrs
}

func (l *AgentChatLogger) log(level slog.Level, msg string, args ...any) {
	if level < slogLevel(l.level) {
		return
	}
	r := slog.NewRecord(time.Now(), level, msg, 0)
	r.AddAttrs(l.buildAttrs()...)
	r.Add(args...)
	_ = l.logger.Handler().Handle(context.Background(), r)
}

// Debug logs at debug level.
func (l *AgentChatLogger) Debug(msg string, args ...any) { l.log(slog.LevelDebug, msg, args...) }

// Info logs at info level.
func (l *AgentChatLogger) Info(msg string, args ...any) { l.log(slog.LevelInfo, msg, args...) }

// Warn logs at warn level.
func (l *AgentChatLogger) Warn(msg string, args ...any) { l.log(slog.LevelWarn, msg, args...) }

// Error logs at error level.
func (l *AgentChatLogger) Error(msg string, args ...any) { l.log(slog.LevelError, msg, args...) }

// LogToolCall records execution details for a tool invocation.
func (l *AgentChatLogger) LogToolCall(tool string, dur time.Duration, success bool, err error) {
	args := []any{"tool_name", tool, "duration", dur, "success", success}
	if err != nil {
		args = append(args, "error", err.Error())
	}
	if !success {
		l.log(slog.LevelError, "tool.call.failed", args...)
		return
	}
	l.log(slog.LevelInfo, "tool.call.completed", args...)
}

// LogLLMCall records model call latency, token usage and success.
func (l *AgentChatLogger) LogLLMCall(model string, tokens int, dur time.Duration, success bool, err error) {
	args := []any{"model", model, "token_count", tokens, "duration", dur, "success", success}
	if err != nil {
		args = append(args, "error", err.Error())
	}
	if !success {
		l.log(slog.LevelError, "llm.call.failed", args...)
		return
	}
	l.log(slog.LevelInfo, "llm.call.completed", args...)
}

// LogSession records the outcome of a finished conversation.
func (l *AgentChatLogger) LogSession(kind, state string, rounds int, dur time.Duration, err error) {
	args := []any{"session_kind", kind, "state", state, "rounds", rounds, "duration", dur}
	if err != nil {
		args = append(args, "error", err.Error())
		l.log(slog.LevelError, "conversation.finished", args...)
		return
	}
	l.log(slog.LevelInfo, "conversation.finished", args...)
}

// LogRound records a completed round of a conversation.
func (l *AgentChatLogger) LogRound(round int, speaker string, toolCall bool) {
	l.log(slog.LevelDebug, "conversation.round.completed", "round", round, "speaker", speaker, "tool_call", toolCall)
}

// EventLogger is implemented by loggers that record structured conversation
// events. The conversation engine uses it when the configured Logger
// implements it and falls back to plain key/value lines otherwise.
type EventLogger interface {
	Logger
	LogToolCall(tool string, dur time.Duration, success bool, err error)
	LogLLMCall(model string, tokens int, dur time.Duration, success bool, err error)
	LogSession(kind, state string, rounds int, dur time.Duration, err error)
	LogRound(round int, speaker string, toolCall bool)
}

var _ EventLogger = (*AgentChatLogger)(nil)
