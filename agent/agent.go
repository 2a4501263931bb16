package agent

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/hupe1980/agentchat/code"
	"github.com/hupe1980/agentchat/core"
	"github.com/hupe1980/agentchat/logging"
	"github.com/hupe1980/agentchat/model"
)

// Role is the closed set of participant kinds.
type Role int

// Supported roles.
const (
	RolePolicy Role = iota
	RoleExecutor
	RoleHuman
)

func (r Role) String() string {
	switch r {
	case RolePolicy:
		return "policy"
	case RoleExecutor:
		return "executor"
	case RoleHuman:
		return "human"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// HumanInputMode decides when a human is consulted.
type HumanInputMode string

// Human input modes.
const (
	HumanInputNever     HumanInputMode = "NEVER"
	HumanInputAlways    HumanInputMode = "ALWAYS"
	HumanInputTerminate HumanInputMode = "TERMINATE"
)

// ParseHumanInputMode parses a mode name case-insensitively.
func ParseHumanInputMode(s string) (HumanInputMode, error) {
	switch m := HumanInputMode(strings.ToUpper(strings.TrimSpace(s))); m {
	case "":
		return HumanInputNever, nil
	case HumanInputNever, HumanInputAlways, HumanInputTerminate:
		return m, nil
	default:
		return "", fmt.Errorf("unknown human input mode %q", s)
	}
}

// DefaultTimeout bounds a single policy call.
const DefaultTimeout = 120 * time.Second

// ErrInvalidConfig is wrapped by every construction error.
var ErrInvalidConfig = errors.New("invalid agent configuration")

// Options is the explicit configuration record of an Agent.
type Options struct {
	Description             string
	SystemPrompt            Instruction
	IsTermination           core.TerminationFunc
	HumanInputMode          HumanInputMode
	MaxConsecutiveAutoReply int // 0 means unlimited
	Tools                   []string
	Executes                []string
	CodeExecutor            code.Executor
	DefaultAutoReply        string
	Timeout                 time.Duration
	Logger                  logging.Logger
}

// Agent is an immutable conversation participant.
type Agent struct {
	name   string
	role   Role
	model  model.Model
	opts   Options
	logger logging.Logger
}

// New validates the configuration and constructs an agent. Policy agents
// require a model; other roles must not have one.
func New(name string, role Role, llm model.Model, optFns ...func(o *Options)) (*Agent, error) {
	opts := Options{
		HumanInputMode: HumanInputNever,
		Timeout:        DefaultTimeout,
	}
	if role == RoleHuman {
		opts.HumanInputMode = HumanInputAlways
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	switch {
	case strings.TrimSpace(name) == "":
		return nil, fmt.Errorf("%w: name must not be empty", ErrInvalidConfig)
	case role < RolePolicy || role > RoleHuman:
		return nil, fmt.Errorf("%w: agent %s: unknown role %v", ErrInvalidConfig, name, role)
	case role == RolePolicy && llm == nil:
		return nil, fmt.Errorf("%w: agent %s: policy agents need a model", ErrInvalidConfig, name)
	case role != RolePolicy && llm != nil:
		return nil, fmt.Errorf("%w: agent %s: %s agents must not have a model", ErrInvalidConfig, name, role)
	case opts.MaxConsecutiveAutoReply < 0:
		return nil, fmt.Errorf("%w: agent %s: negative MaxConsecutiveAutoReply", ErrInvalidConfig, name)
	}
	if _, err := ParseHumanInputMode(string(opts.HumanInputMode)); err != nil {
		return nil, fmt.Errorf("%w: agent %s: %v", ErrInvalidConfig, name, err)
	}

	if opts.IsTermination == nil {
		opts.IsTermination = core.Never
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Description == "" {
		opts.Description = fmt.Sprintf("Agent %s", name)
	}
	opts.Tools = slices.Clone(opts.Tools)
	opts.Executes = slices.Clone(opts.Executes)

	return &Agent{
		name:   name,
		role:   role,
		model:  llm,
		opts:   opts,
		logger: logging.OrNoOp(opts.Logger),
	}, nil
}

// NewAssistant builds a policy-driven agent.
func NewAssistant(name string, llm model.Model, optFns ...func(o *Options)) (*Agent, error) {
	return New(name, RolePolicy, llm, optFns...)
}

// NewExecutor builds an agent that executes tools and code.
func NewExecutor(name string, optFns ...func(o *Options)) (*Agent, error) {
	return New(name, RoleExecutor, nil, optFns...)
}

// NewHuman builds a human-gated agent.
func NewHuman(name string, optFns ...func(o *Options)) (*Agent, error) {
	return New(name, RoleHuman, nil, optFns...)
}

// Name returns the agent name.
func (a *Agent) Name() string { return a.name }

// Role returns the agent role.
func (a *Agent) Role() Role { return a.role }

// Model returns the policy backend, nil for non-policy agents.
func (a *Agent) Model() model.Model { return a.model }

// Description is used by speaker selectors to introduce the agent.
func (a *Agent) Description() string { return a.opts.Description }

// HumanInputMode returns when the agent consults a human.
func (a *Agent) HumanInputMode() HumanInputMode { return a.opts.HumanInputMode }

// MaxConsecutiveAutoReply returns the auto-reply limit, 0 for unlimited.
func (a *Agent) MaxConsecutiveAutoReply() int { return a.opts.MaxConsecutiveAutoReply }

// DefaultAutoReply is sent when the agent has nothing else to say.
func (a *Agent) DefaultAutoReply() string { return a.opts.DefaultAutoReply }

// Timeout bounds each policy call.
func (a *Agent) Timeout() time.Duration { return a.opts.Timeout }

// CodeExecutor returns the configured code executor, if any.
func (a *Agent) CodeExecutor() code.Executor { return a.opts.CodeExecutor }

// Tools returns the names of the tools advertised to the policy backend.
func (a *Agent) Tools() []string { return slices.Clone(a.opts.Tools) }

// CanRequest reports whether the agent may ask for the named tool.
func (a *Agent) CanRequest(tool string) bool { return slices.Contains(a.opts.Tools, tool) }

// Executes reports whether the agent runs the named tool.
func (a *Agent) Executes(tool string) bool { return slices.Contains(a.opts.Executes, tool) }

// IsTermination evaluates the termination predicate on msg.
func (a *Agent) IsTermination(msg core.Message) bool { return a.opts.IsTermination(msg) }

// SystemPrompt renders the agent instructions.
func (a *Agent) SystemPrompt(ic InstructionContext) (string, error) {
	ic.AgentName = a.name
	return a.opts.SystemPrompt.Resolve(ic)
}

// Speaks reports whether the agent can be chosen as a group speaker.
func (a *Agent) Speaks() bool { return a.role != RoleExecutor }

func (a *Agent) String() string { return a.name }
