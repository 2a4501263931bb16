package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/agentchat/internal/util"
	"github.com/hupe1980/agentchat/logging"
	"github.com/hupe1980/agentchat/model"
)

// Observer receives one notification per tool invocation.
type Observer interface {
	ObserveToolCall(tool string, dur time.Duration, err error)
}

// RegistryOptions configure a Registry.
type RegistryOptions struct {
	Logger   logging.Logger
	Observer Observer
}

// Registry associates tools with unique names so agents can request them by
// name. A Registry is safe for concurrent use and is typically shared, read
// only, by several sessions after startup registration.
type Registry struct {
	mu       sync.RWMutex
	tools    map[string]Tool
	order    []string
	logger   logging.Logger
	observer Observer
}

// NewRegistry creates an empty registry.
func NewRegistry(optFns ...func(o *RegistryOptions)) *Registry {
	opts := RegistryOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Registry{
		tools:    map[string]Tool{},
		logger:   logging.OrNoOp(opts.Logger),
		observer: opts.Observer,
	}
}

// Register adds t. It fails with *DuplicateNameError when the name is taken
// and with a plain error for an empty name or duplicate parameter names.
func (r *Registry) Register(t Tool) error {
	name := t.Name()
	if strings.TrimSpace(name) == "" {
		return errors.New("tool name must not be empty")
	}
	seen := map[string]bool{}
	for _, p := range t.Signature() {
		if seen[p.Name] {
			return fmt.Errorf("tool %s: duplicate parameter %q", name, p.Name)
		}
		seen[p.Name] = true
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[name]; exists {
		return &DuplicateNameError{Name: name}
	}
	r.tools[name] = t
	r.order = append(r.order, name)
	return nil
}

// RegisterFunc is shorthand for Register(NewFunction(...)).
func (r *Registry) RegisterFunc(name, description string, signature Signature, fn Func) error {
	return r.Register(NewFunction(name, description, signature, fn))
}

// MustRegister is like Register but panics on error. Intended for program
// startup where a duplicate name is a programming error.
func (r *Registry) MustRegister(tools ...Tool) *Registry {
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
	return r
}

// Get looks up a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names returns the registered names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Definitions returns model tool definitions for the given names (all tools
// when none are given) in registration order. Unknown names are skipped.
func (r *Registry) Definitions(names ...string) []model.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	want := map[string]bool{}
	for _, n := range names {
		want[n] = true
	}

	defs := make([]model.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		if len(names) > 0 && !want[name] {
			continue
		}
		t := r.tools[name]
		defs = append(defs, model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Signature().Schema(),
			},
		})
	}
	return defs
}

// InvokeJSON decodes a JSON object argument payload and invokes the tool.
// A payload that is not a JSON object yields *ArgumentMismatchError.
func (r *Registry) InvokeJSON(ctx context.Context, name, rawArgs string) (string, error) {
	args := Args{}
	if strings.TrimSpace(rawArgs) != "" {
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			mErr := &ArgumentMismatchError{Tool: name, Kind: "malformed", Err: fmt.Errorf("arguments are not a JSON object: %w", err)}
			r.finish(name, 0, mErr)
			return "", mErr
		}
	}
	return r.Invoke(ctx, name, args)
}

// Invoke validates args against the tool signature, calls the tool and
// returns its result as text. Failures are returned as *ArgumentMismatchError
// or *ToolExecutionError; panics inside the tool are recovered.
func (r *Registry) Invoke(ctx context.Context, name string, args Args) (string, error) {
	t, ok := r.Get(name)
	if !ok {
		err := &ToolExecutionError{Tool: name, Err: ErrToolNotFound}
		r.finish(name, 0, err)
		return "", err
	}
	if args == nil {
		args = Args{}
	}

	r.logger.Debug("tool.call.start", "tool", name)

	if err := t.Signature().Validate(args); err != nil {
		mErr := &ArgumentMismatchError{Tool: name, Err: err}
		var vErr *util.ValidationError
		if errors.As(err, &vErr) {
			mErr.Field = vErr.Field
			mErr.Kind = vErr.Kind
		}
		r.logger.Warn("tool.call.validation_failed", "tool", name, "error", err.Error())
		r.finish(name, 0, mErr)
		return "", mErr
	}

	start := time.Now()
	result, err := callSafely(ctx, t, args)
	var pErr *panicError
	if errors.As(err, &pErr) {
		r.logger.Error("tool.call.panic", "tool", name, "panic", fmt.Sprint(pErr.value), "stack", string(pErr.stack))
	}
	if err == nil {
		var text string
		text, err = ResultText(result)
		if err == nil {
			r.logger.Info("tool.call.success", "tool", name, "duration_ms", time.Since(start).Milliseconds())
			r.finish(name, time.Since(start), nil)
			return text, nil
		}
	}

	var execErr *ToolExecutionError
	if !errors.As(err, &execErr) {
		execErr = &ToolExecutionError{Tool: name, Err: err}
	}
	r.logger.Error("tool.call.error", "tool", name, "error", err.Error())
	r.finish(name, time.Since(start), execErr)
	return "", execErr
}

func (r *Registry) finish(name string, dur time.Duration, err error) {
	if r.observer != nil {
		r.observer.ObserveToolCall(name, dur, err)
	}
}

// callSafely invokes the tool converting panics into errors.
func callSafely(ctx context.Context, t Tool, args Args) (result any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &panicError{value: rec, stack: debug.Stack()}
		}
	}()
	return t.Call(ctx, args)
}

// ResultText renders a tool result as text: strings (and byte slices) are
// returned verbatim, nil becomes "", everything else is JSON encoded.
func ResultText(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case []byte:
		return string(val), nil
	case fmt.Stringer:
		return val.String(), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}
	return string(b), nil
}
