// Package agentchat provides a high-level façade over the conversation
// engine and its supporting services (tool registry, response cache, metrics,
// tracing and logging). Most applications interact with this package by:
//  1. Creating an AgentChat via New() (optionally overriding the defaults)
//  2. Registering the tools their agents request and execute
//  3. Building models from config.ModelConfig entries via NewModel
//  4. Running pairwise chats, group chats or chat sequences
//
// Every session started through the façade shares the same registry,
// observers and logger. All defaults are safe for local development and
// testing; production deployments typically supply a durable cache store and
// a structured logger.
package agentchat

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/hupe1980/agentchat/agent"
	"github.com/hupe1980/agentchat/cache"
	"github.com/hupe1980/agentchat/config"
	"github.com/hupe1980/agentchat/conversation"
	"github.com/hupe1980/agentchat/logging"
	"github.com/hupe1980/agentchat/metrics"
	"github.com/hupe1980/agentchat/model"
	"github.com/hupe1980/agentchat/session"
	"github.com/hupe1980/agentchat/tool"
)

// Options configures the AgentChat instance.
type Options struct {
	// MaxRounds bounds every session that does not set its own limit.
	MaxRounds int

	// HumanInput answers agents whose human input mode asks for it. Nil means
	// no human is attached.
	HumanInput agent.HumanInput

	// CacheStore backs the response cache of models built by NewModel
	// (defaults to an in-memory store).
	CacheStore cache.Store

	// SessionStore archives the result of every session run through the
	// façade (defaults to an in-memory store).
	SessionStore session.Store

	// Metrics receives session, policy, tool and cache observations
	// (defaults to a collector with its own registry).
	Metrics *metrics.Collector

	Tracer trace.Tracer

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// AgentChat is the high-level façade aggregating the registry and services.
type AgentChat struct {
	opts     Options
	registry *tool.Registry
}

// New creates a new AgentChat instance with optional overrides.
func New(optFns ...func(o *Options)) *AgentChat {
	opts := Options{
		MaxRounds:    conversation.DefaultMaxRounds,
		CacheStore:   cache.NewMemoryStore(),
		SessionStore: session.NewInMemoryStore(),
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	opts.Logger = logging.OrNoOp(opts.Logger)
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewCollector(func(o *metrics.Options) { o.Logger = opts.Logger })
	}

	registry := tool.NewRegistry(func(o *tool.RegistryOptions) {
		o.Logger = opts.Logger
		o.Observer = opts.Metrics
	})

	return &AgentChat{opts: opts, registry: registry}
}

// Registry returns the shared tool registry.
func (c *AgentChat) Registry() *tool.Registry { return c.registry }

// Metrics returns the collector every session reports to.
func (c *AgentChat) Metrics() *metrics.Collector { return c.opts.Metrics }

// Sessions returns the archive of finished sessions.
func (c *AgentChat) Sessions() session.Store { return c.opts.SessionStore }

// RegisterTool adds tools to the shared registry.
func (c *AgentChat) RegisterTool(tools ...tool.Tool) error {
	for _, t := range tools {
		if err := c.registry.Register(t); err != nil {
			return err
		}
	}
	return nil
}

// NewModel builds a policy backend from a model configuration, cached in the
// façade's store when the entry carries a cache seed.
func (c *AgentChat) NewModel(mc config.ModelConfig) (model.Model, error) {
	return config.NewModel(mc, func(o *config.ModelOptions) {
		o.Store = c.opts.CacheStore
		o.CacheObserver = c.opts.Metrics
		o.Logger = c.opts.Logger
	})
}

func (c *AgentChat) sessionOptions(o *conversation.Options) {
	o.MaxRounds = c.opts.MaxRounds
	o.Registry = c.registry
	o.Logger = c.opts.Logger
	o.Observer = c.opts.Metrics
	o.Tracer = c.opts.Tracer
	o.HumanInput = c.opts.HumanInput
}

// NewPairwise prepares a two-party chat wired to the shared services. optFns
// run after the defaults and may override them.
func (c *AgentChat) NewPairwise(initiator, recipient *agent.Agent, optFns ...func(o *conversation.Options)) (*conversation.Pairwise, error) {
	return conversation.NewPairwise(initiator, recipient, append([]func(o *conversation.Options){c.sessionOptions}, optFns...)...)
}

// Chat runs a two-party chat to completion.
func (c *AgentChat) Chat(ctx context.Context, initiator, recipient *agent.Agent, opening string, optFns ...func(o *conversation.Options)) (*conversation.Result, error) {
	chat, err := c.NewPairwise(initiator, recipient, optFns...)
	if err != nil {
		return nil, err
	}
	res, err := chat.Run(ctx, opening)
	c.archive(res)
	return res, err
}

// NewGroupChat prepares a group chat wired to the shared services and
// returns the manager that drives it.
func (c *AgentChat) NewGroupChat(managerName string, participants []*agent.Agent, optFns ...func(o *conversation.GroupOptions)) (*conversation.Manager, error) {
	fns := append([]func(o *conversation.GroupOptions){func(o *conversation.GroupOptions) {
		c.sessionOptions(&o.Options)
	}}, optFns...)

	group, err := conversation.NewGroup(participants, fns...)
	if err != nil {
		return nil, err
	}
	return conversation.NewManager(managerName, group)
}

// GroupChat runs a group chat opened by initiator to completion.
func (c *AgentChat) GroupChat(ctx context.Context, managerName string, participants []*agent.Agent, initiator *agent.Agent, opening string, optFns ...func(o *conversation.GroupOptions)) (*conversation.Result, error) {
	manager, err := c.NewGroupChat(managerName, participants, optFns...)
	if err != nil {
		return nil, err
	}
	res, err := manager.Run(ctx, initiator, opening)
	c.archive(res)
	return res, err
}

// Sequence runs chained chats with the shared services.
func (c *AgentChat) Sequence(ctx context.Context, initiator *agent.Agent, steps []conversation.ChatStep, optFns ...func(o *conversation.Options)) ([]*conversation.Result, error) {
	results, err := conversation.Sequence(ctx, initiator, steps, append([]func(o *conversation.Options){c.sessionOptions}, optFns...)...)
	for _, res := range results {
		c.archive(res)
	}
	return results, err
}

func (c *AgentChat) archive(res *conversation.Result) {
	if res == nil {
		return
	}
	if err := c.opts.SessionStore.Save(res); err != nil {
		c.opts.Logger.Warn("agentchat.session.archive_failed", "session_id", res.ID, "error", err)
	}
}
